package entity

import (
	"time"

	"github.com/google/uuid"
)

type FamilyDoctorChangeType string

const (
	FamilyDoctorAssigned FamilyDoctorChangeType = "ASSIGNED"
	FamilyDoctorChanged  FamilyDoctorChangeType = "CHANGED"
	FamilyDoctorRemoved  FamilyDoctorChangeType = "REMOVED"
)

// FamilyDoctorHistory is one immutable ledger row. Rows are only ever inserted.
type FamilyDoctorHistory struct {
	ID               uuid.UUID              `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID        uuid.UUID              `gorm:"type:uuid;not null;index" json:"patient_id"`
	PreviousDoctorID *uuid.UUID             `gorm:"type:uuid" json:"previous_doctor_id,omitempty"`
	NewDoctorID      *uuid.UUID             `gorm:"type:uuid" json:"new_doctor_id,omitempty"`
	ChangeType       FamilyDoctorChangeType `gorm:"type:varchar(20);not null" json:"change_type"`
	ChangedBy        uuid.UUID              `gorm:"type:uuid;not null" json:"changed_by"`
	Reason           string                 `gorm:"type:text" json:"reason,omitempty"`
	ChangedAt        time.Time              `gorm:"not null;index" json:"changed_at"`
}

func (FamilyDoctorHistory) TableName() string {
	return "family_doctor_history"
}
