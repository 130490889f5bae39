package entity

import (
	"time"

	"github.com/google/uuid"
)

type AllergyType string

const (
	AllergyTypeMedication    AllergyType = "MEDICATION"
	AllergyTypeFood          AllergyType = "FOOD"
	AllergyTypeEnvironmental AllergyType = "ENVIRONMENTAL"
	AllergyTypeOther         AllergyType = "OTHER"
)

type AllergySeverity string

const (
	AllergySeverityMild         AllergySeverity = "MILD"
	AllergySeverityModerate     AllergySeverity = "MODERATE"
	AllergySeveritySevere       AllergySeverity = "SEVERE"
	AllergySeverityAnaphylactic AllergySeverity = "ANAPHYLACTIC"
)

// Blocking reports whether a matching allergy of this severity forbids prescribing.
func (s AllergySeverity) Blocking() bool {
	return s == AllergySeveritySevere || s == AllergySeverityAnaphylactic
}

type Allergy struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"patient_id"`
	Allergen   string          `gorm:"type:varchar(255);not null" json:"allergen"`
	Type       AllergyType     `gorm:"type:varchar(20);not null" json:"type"`
	Severity   AllergySeverity `gorm:"type:varchar(20);not null" json:"severity"`
	Reaction   string          `gorm:"type:text" json:"reaction,omitempty"`
	RecordedBy uuid.UUID       `gorm:"type:uuid;not null" json:"recorded_by"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Allergy) TableName() string {
	return "allergies"
}

type Medication struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID       uuid.UUID `gorm:"type:uuid;not null;index" json:"patient_id"`
	Name            string    `gorm:"type:varchar(255);not null" json:"name"`
	Dosage          string    `gorm:"type:varchar(100)" json:"dosage,omitempty"`
	Frequency       string    `gorm:"type:varchar(100)" json:"frequency,omitempty"`
	PrescribedBy    uuid.UUID `gorm:"type:uuid;not null" json:"prescribed_by"`
	AllergyOverride bool      `gorm:"not null;default:false" json:"allergy_override"`
	Notes           string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Medication) TableName() string {
	return "medications"
}
