// Package clinical exposes the billable service records produced by the
// clinical modules (pharmacy, imaging, hospitalization, surgery,
// consultations). Billing never touches the producer tables directly; it
// goes through the Producer interface and the static Registry.
package clinical

import (
	"time"

	"github.com/google/uuid"
)

// ServiceKind discriminates the producer a service record came from. It is
// one half of the polymorphic reference stored on invoice line items.
type ServiceKind string

const (
	KindMedication      ServiceKind = "medication"
	KindImaging         ServiceKind = "imaging"
	KindHospitalization ServiceKind = "hospitalization"
	KindSurgery         ServiceKind = "surgery"
	KindConsultation    ServiceKind = "consultation"
)

// ValidKind reports whether k names a known producer kind.
func ValidKind(k ServiceKind) bool {
	switch k {
	case KindMedication, KindImaging, KindHospitalization, KindSurgery, KindConsultation:
		return true
	}
	return false
}

// ServiceRecord is the normalized view of one billable clinical event.
// Monetary values are integer centavos. Total is quantity times unit price,
// computed when the producing module records the event.
type ServiceRecord struct {
	Kind                 ServiceKind `json:"kind"`
	ID                   uuid.UUID   `json:"id"`
	PatientID            uuid.UUID   `json:"patient_id"`
	Code                 string      `json:"code"`
	Name                 string      `json:"name"`
	ServiceDate          time.Time   `json:"service_date"`
	Quantity             int64       `json:"quantity"`
	UnitPrice            int64       `json:"unit_price"`
	Total                int64       `json:"total"`
	DiagnosisCode        string      `json:"diagnosis_code,omitempty"`
	RelatedDiagnosisCode string      `json:"related_diagnosis_code,omitempty"`
	AuthorizationNumber  string      `json:"authorization_number,omitempty"`
	Billed               bool        `json:"billed"`
}

// ServiceRef is a polymorphic reference to one ServiceRecord.
type ServiceRef struct {
	Kind ServiceKind `json:"kind"`
	ID   uuid.UUID   `json:"id"`
}
