package entity

import (
	"time"

	"github.com/google/uuid"
)

// PatientProfile represents patient-specific profile data. UserID doubles as the patient id.
type PatientProfile struct {
	UserID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	PhoneNumber            string     `gorm:"type:varchar(20)" json:"phone_number,omitempty"`
	DateOfBirth            *time.Time `gorm:"type:date" json:"date_of_birth,omitempty"`
	Gender                 string     `gorm:"type:char(1)" json:"gender,omitempty"`
	Address                string     `gorm:"type:text" json:"address,omitempty"`
	EmergencyContact       string     `gorm:"type:varchar(255)" json:"emergency_contact,omitempty"`
	FamilyDoctorID         *uuid.UUID `gorm:"type:uuid;index" json:"family_doctor_id,omitempty"`
	FamilyDoctorAssignedAt *time.Time `json:"family_doctor_assigned_at,omitempty"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (PatientProfile) TableName() string {
	return "patient_profiles"
}

const (
	GenderMale   = "M"
	GenderFemale = "F"
)

// HasFamilyDoctor reports whether a family doctor is on record.
func (p *PatientProfile) HasFamilyDoctor() bool {
	return p.FamilyDoctorID != nil
}

// IsFamilyDoctor reports whether doctorID is the patient's family doctor.
func (p *PatientProfile) IsFamilyDoctor(doctorID uuid.UUID) bool {
	return p.FamilyDoctorID != nil && *p.FamilyDoctorID == doctorID
}

// SetFamilyDoctor points the patient at doctorID, stamping the assignment time.
func (p *PatientProfile) SetFamilyDoctor(doctorID uuid.UUID, at time.Time) {
	id := doctorID
	p.FamilyDoctorID = &id
	p.FamilyDoctorAssignedAt = &at
}

// ClearFamilyDoctor removes the family doctor and its timestamp together.
func (p *PatientProfile) ClearFamilyDoctor() {
	p.FamilyDoctorID = nil
	p.FamilyDoctorAssignedAt = nil
}
