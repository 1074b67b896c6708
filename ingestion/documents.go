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


package ingestion

import (
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/medrecall/core"
	"github.com/poiesic/medrecall/fhir"
)

// DefaultPlaceholder is rendered for fields absent from a resource.
const DefaultPlaceholder = "Unknown"

// DocumentBuilder converts fetched clinical resources into text units.
// Build is pure and total: missing optional fields render the configured
// placeholder, never an error.
type DocumentBuilder struct {
	placeholder string
}

// BuilderOption configures a DocumentBuilder.
type BuilderOption func(*DocumentBuilder)

// WithPlaceholder sets the text rendered for absent fields.
func WithPlaceholder(placeholder string) BuilderOption {
	return func(b *DocumentBuilder) {
		if placeholder != "" {
			b.placeholder = placeholder
		}
	}
}

// NewDocumentBuilder creates a DocumentBuilder with the default placeholder.
func NewDocumentBuilder(opts ...BuilderOption) *DocumentBuilder {
	b := &DocumentBuilder{placeholder: DefaultPlaceholder}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build renders every resource in the bundle into a text unit, stamped with
// the given indexing time. Order is demographics, conditions, medications,
// observations, matching fetch order.
func (b *DocumentBuilder) Build(bundle *fhir.PatientBundle, at time.Time) []*core.TextUnit {
	if bundle == nil {
		return nil
	}

	units := make([]*core.TextUnit, 0,
		1+len(bundle.Conditions)+len(bundle.Medications)+len(bundle.Observations))

	if bundle.Patient != nil {
		units = append(units, b.unit(bundle.SubjectID, core.KindPatient,
			fallbackID(bundle.Patient.ID, "patient", 0), b.renderPatient(bundle.Patient), at))
	}
	for i := range bundle.Conditions {
		condition := &bundle.Conditions[i]
		units = append(units, b.unit(bundle.SubjectID, core.KindCondition,
			fallbackID(condition.ID, "condition", i), b.renderCondition(condition), at))
	}
	for i := range bundle.Medications {
		medication := &bundle.Medications[i]
		units = append(units, b.unit(bundle.SubjectID, core.KindMedication,
			fallbackID(medication.ID, "medication", i), b.renderMedication(medication), at))
	}
	for i := range bundle.Observations {
		observation := &bundle.Observations[i]
		units = append(units, b.unit(bundle.SubjectID, core.KindObservation,
			fallbackID(observation.ID, "observation", i), b.renderObservation(observation), at))
	}

	return units
}

// fallbackID substitutes a positional identifier when the resource carries
// no id of its own. Without it every id-less resource of one kind would
// collapse into a single unit ID and overwrite its siblings on upsert.
func fallbackID(id, segment string, idx int) string {
	if id != "" {
		return id
	}
	return fmt.Sprintf("%s_%d", segment, idx)
}

func (b *DocumentBuilder) unit(subjectID string, kind core.ResourceKind, resourceID, text string, at time.Time) *core.TextUnit {
	return &core.TextUnit{
		ID:           core.UnitID(subjectID, kind, resourceID),
		Text:         text,
		SubjectID:    subjectID,
		ResourceKind: kind,
		ResourceID:   resourceID,
		IndexedAt:    at,
	}
}

func (b *DocumentBuilder) renderPatient(patient *fhir.Patient) string {
	return fmt.Sprintf("Patient: %s\nGender: %s\nBirth Date: %s",
		b.orPlaceholder(patient.DisplayName()),
		b.orPlaceholder(patient.Gender),
		b.orPlaceholder(patient.BirthDate))
}

func (b *DocumentBuilder) renderCondition(condition *fhir.Condition) string {
	return fmt.Sprintf("Condition: %s\nStatus: %s\nOnset Date: %s",
		b.orPlaceholder(condition.Code.Display()),
		b.orPlaceholder(condition.ClinicalStatus.Display()),
		b.orPlaceholder(condition.OnsetDateTime))
}

func (b *DocumentBuilder) renderMedication(medication *fhir.MedicationRequest) string {
	text := fmt.Sprintf("Medication: %s\nStatus: %s\nAuthored Date: %s",
		b.orPlaceholder(medication.MedicationCodeableConcept.Display()),
		b.orPlaceholder(medication.Status),
		b.orPlaceholder(medication.AuthoredOn))
	for _, dosage := range medication.DosageInstruction {
		if dosage.Text != "" {
			text += "\nDosage: " + dosage.Text
		}
	}
	return text
}

func (b *DocumentBuilder) renderObservation(observation *fhir.Observation) string {
	return fmt.Sprintf("Observation: %s\nValue: %s\nDate: %s",
		b.orPlaceholder(observation.Code.Display()),
		b.observationValue(observation),
		b.orPlaceholder(observation.EffectiveDateTime))
}

// observationValue prefers a quantity with its unit, then the string value,
// then the placeholder.
func (b *DocumentBuilder) observationValue(observation *fhir.Observation) string {
	if q := observation.ValueQuantity; q != nil && q.Value != nil {
		return strings.TrimSpace(fmt.Sprintf("%g %s", *q.Value, q.Unit))
	}
	if observation.ValueString != "" {
		return observation.ValueString
	}
	return b.placeholder
}

func (b *DocumentBuilder) orPlaceholder(value string) string {
	if value == "" {
		return b.placeholder
	}
	return value
}
