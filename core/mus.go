// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the persisted domain types. Timestamps are stored as
// Unix microseconds; vectors as a varint length prefix followed by raw
// float32 elements.

// TextUnitMUS serializes TextUnit values.
var TextUnitMUS = textUnitMUS{}

type textUnitMUS struct{}

func (s textUnitMUS) Marshal(u TextUnit, bs []byte) (n int) {
	n = ord.String.Marshal(u.ID, bs)
	n += ord.String.Marshal(u.Text, bs[n:])
	n += ord.String.Marshal(u.SubjectID, bs[n:])
	n += ord.String.Marshal(string(u.ResourceKind), bs[n:])
	n += ord.String.Marshal(u.ResourceID, bs[n:])
	n += varint.Int64.Marshal(u.IndexedAt.UnixMicro(), bs[n:])
	return
}

func (s textUnitMUS) Unmarshal(bs []byte) (u TextUnit, n int, err error) {
	var n1 int
	u.ID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	u.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	u.SubjectID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var kind string
	kind, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	u.ResourceKind = ResourceKind(kind)
	u.ResourceID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	u.IndexedAt = time.UnixMicro(micros).UTC()
	return
}

func (s textUnitMUS) Size(u TextUnit) (size int) {
	size = ord.String.Size(u.ID)
	size += ord.String.Size(u.Text)
	size += ord.String.Size(u.SubjectID)
	size += ord.String.Size(string(u.ResourceKind))
	size += ord.String.Size(u.ResourceID)
	size += varint.Int64.Size(u.IndexedAt.UnixMicro())
	return
}

// VectorRecordMUS serializes VectorRecord values.
var VectorRecordMUS = vectorRecordMUS{}

type vectorRecordMUS struct{}

func (s vectorRecordMUS) Marshal(r VectorRecord, bs []byte) (n int) {
	n = TextUnitMUS.Marshal(r.Unit, bs)
	n += varint.Int.Marshal(len(r.Vector), bs[n:])
	for _, v := range r.Vector {
		n += raw.Float32.Marshal(v, bs[n:])
	}
	return
}

func (s vectorRecordMUS) Unmarshal(bs []byte) (r VectorRecord, n int, err error) {
	var n1 int
	r.Unit, n, err = TextUnitMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var length int
	length, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if length < 0 {
		err = ErrEmptyVector
		return
	}
	r.Vector = make([]float32, length)
	for i := 0; i < length; i++ {
		r.Vector[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (s vectorRecordMUS) Size(r VectorRecord) (size int) {
	size = TextUnitMUS.Size(r.Unit)
	size += varint.Int.Size(len(r.Vector))
	for _, v := range r.Vector {
		size += raw.Float32.Size(v)
	}
	return
}
