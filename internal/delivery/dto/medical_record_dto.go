package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateAllergyRequest struct {
	Allergen string `json:"allergen" validate:"required,max=255"`
	Type     string `json:"type" validate:"required,oneof=MEDICATION FOOD ENVIRONMENTAL OTHER"`
	Severity string `json:"severity" validate:"required,oneof=MILD MODERATE SEVERE ANAPHYLACTIC"`
	Reaction string `json:"reaction" validate:"omitempty,max=2000"`
}

// CreateMedicationRequest prescribes a medication. Override acknowledges a severe
// allergy match and records the prescription anyway.
type CreateMedicationRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	Dosage    string `json:"dosage" validate:"omitempty,max=100"`
	Frequency string `json:"frequency" validate:"omitempty,max=100"`
	Notes     string `json:"notes" validate:"omitempty,max=2000"`
	Override  bool   `json:"override"`
}

// Response DTOs

type AllergyResponse struct {
	ID         uuid.UUID `json:"id"`
	PatientID  uuid.UUID `json:"patient_id"`
	Allergen   string    `json:"allergen"`
	Type       string    `json:"type"`
	Severity   string    `json:"severity"`
	Reaction   string    `json:"reaction,omitempty"`
	RecordedBy uuid.UUID `json:"recorded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type MedicationResponse struct {
	ID              uuid.UUID `json:"id"`
	PatientID       uuid.UUID `json:"patient_id"`
	Name            string    `json:"name"`
	Dosage          string    `json:"dosage,omitempty"`
	Frequency       string    `json:"frequency,omitempty"`
	PrescribedBy    uuid.UUID `json:"prescribed_by"`
	AllergyOverride bool      `json:"allergy_override"`
	Notes           string    `json:"notes,omitempty"`
	Warning         string    `json:"warning,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type CanPrescribeResponse struct {
	CanPrescribe bool              `json:"can_prescribe"`
	Warning      string            `json:"warning,omitempty"`
	Matches      []AllergyResponse `json:"matches,omitempty"`
}

type AllergyListResponse struct {
	Allergies []AllergyResponse `json:"allergies"`
	Total     int               `json:"total"`
}

type MedicationListResponse struct {
	Medications []MedicationResponse `json:"medications"`
	Total       int                  `json:"total"`
}
