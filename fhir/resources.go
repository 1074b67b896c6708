package fhir

import "encoding/json"

// Typed views over the FHIR resource kinds this pipeline consumes. Fields
// not rendered into text are left unmapped on purpose; the raw entry is
// still available through Client.FetchAll when callers need more.

// Coding is one entry of a coded field.
type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// CodeableConcept is a coded field with an optional free-text fallback.
type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// Display returns the preferred human-readable form: the first coding
// display, then the free text, then the empty string.
func (c *CodeableConcept) Display() string {
	if c == nil {
		return ""
	}
	for _, coding := range c.Coding {
		if coding.Display != "" {
			return coding.Display
		}
	}
	return c.Text
}

// Quantity is a measured value with a unit.
type Quantity struct {
	Value *float64 `json:"value,omitempty"`
	Unit  string   `json:"unit,omitempty"`
}

// HumanName is one name entry of a Patient resource.
type HumanName struct {
	Text   string   `json:"text,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
}

// Patient is the demographic resource for a subject.
type Patient struct {
	ID        string      `json:"id"`
	Name      []HumanName `json:"name,omitempty"`
	Gender    string      `json:"gender,omitempty"`
	BirthDate string      `json:"birthDate,omitempty"`
}

// DisplayName returns the patient's preferred name text, falling back to
// family/given assembly, then the empty string.
func (p *Patient) DisplayName() string {
	if p == nil {
		return ""
	}
	for _, name := range p.Name {
		if name.Text != "" {
			return name.Text
		}
	}
	for _, name := range p.Name {
		if name.Family == "" && len(name.Given) == 0 {
			continue
		}
		full := ""
		for _, given := range name.Given {
			if full != "" {
				full += " "
			}
			full += given
		}
		if name.Family != "" {
			if full != "" {
				full += " "
			}
			full += name.Family
		}
		return full
	}
	return ""
}

// Condition is one diagnosed condition.
type Condition struct {
	ID             string           `json:"id"`
	Code           *CodeableConcept `json:"code,omitempty"`
	ClinicalStatus *CodeableConcept `json:"clinicalStatus,omitempty"`
	OnsetDateTime  string           `json:"onsetDateTime,omitempty"`
	RecordedDate   string           `json:"recordedDate,omitempty"`
}

// Dosage is one dosage instruction of a medication request.
type Dosage struct {
	Text string `json:"text,omitempty"`
}

// MedicationRequest is one medication order.
type MedicationRequest struct {
	ID                        string           `json:"id"`
	MedicationCodeableConcept *CodeableConcept `json:"medicationCodeableConcept,omitempty"`
	Status                    string           `json:"status,omitempty"`
	AuthoredOn                string           `json:"authoredOn,omitempty"`
	DosageInstruction         []Dosage         `json:"dosageInstruction,omitempty"`
}

// Observation is one measured or reported finding. ValueQuantity and
// ValueString are mutually exclusive on the wire; rendering prefers the
// quantity when both somehow appear.
type Observation struct {
	ID                string            `json:"id"`
	Code              *CodeableConcept  `json:"code,omitempty"`
	Category          []CodeableConcept `json:"category,omitempty"`
	ValueQuantity     *Quantity         `json:"valueQuantity,omitempty"`
	ValueString       string            `json:"valueString,omitempty"`
	EffectiveDateTime string            `json:"effectiveDateTime,omitempty"`
	Status            string            `json:"status,omitempty"`
}

// PatientBundle is the full record set fetched for one subject in one
// ingestion run. It is built once by Client.FetchBundle and immutable
// afterwards; the pipeline's observation sampling copies the slice header,
// never the bundle.
type PatientBundle struct {
	SubjectID    string
	Patient      *Patient
	Conditions   []Condition
	Medications  []MedicationRequest
	Observations []Observation
}

// Wire types for search responses: a bundle of entries plus paging links.

type bundleLink struct {
	Relation string `json:"relation"`
	URL      string `json:"url"`
}

type bundleEntry struct {
	Resource json.RawMessage `json:"resource"`
}

type searchBundle struct {
	Entry []bundleEntry `json:"entry"`
	Link  []bundleLink  `json:"link"`
}

// nextURL returns the "next" paging link, or the empty string when the
// bundle is the last page.
func (b *searchBundle) nextURL() string {
	for _, link := range b.Link {
		if link.Relation == "next" {
			return link.URL
		}
	}
	return ""
}
