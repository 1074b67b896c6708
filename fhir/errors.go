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


package fhir

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig indicates missing or invalid client configuration.
	ErrConfig = errors.New("invalid fhir configuration")

	// ErrAuth indicates assertion signing or token exchange failed.
	ErrAuth = errors.New("authentication failed")
)

// RemoteError is a non-retryable HTTP failure from the resource API.
// HTTP 429 never surfaces as a RemoteError unless the retry budget is
// exhausted.
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote api error: status %d: %s", e.Status, e.Body)
}
