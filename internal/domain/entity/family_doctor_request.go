package entity

import (
	"time"

	"github.com/google/uuid"
)

type FamilyDoctorRequestStatus string

const (
	FamilyDoctorRequestPending  FamilyDoctorRequestStatus = "PENDING"
	FamilyDoctorRequestApproved FamilyDoctorRequestStatus = "APPROVED"
	FamilyDoctorRequestRejected FamilyDoctorRequestStatus = "REJECTED"
)

func (s FamilyDoctorRequestStatus) Valid() bool {
	return s == FamilyDoctorRequestPending || s == FamilyDoctorRequestApproved || s == FamilyDoctorRequestRejected
}

// FamilyDoctorRequest is a patient's request to adopt a doctor as family doctor.
type FamilyDoctorRequest struct {
	ID             uuid.UUID                 `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID      uuid.UUID                 `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID       uuid.UUID                 `gorm:"type:uuid;not null;index" json:"doctor_id"`
	Status         FamilyDoctorRequestStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	RequestReason  string                    `gorm:"type:text" json:"request_reason,omitempty"`
	ResponseReason string                    `gorm:"type:text" json:"response_reason,omitempty"`
	RequestedAt    time.Time                 `gorm:"not null" json:"requested_at"`
	RespondedAt    *time.Time                `json:"responded_at,omitempty"`
	RespondedBy    *uuid.UUID                `gorm:"type:uuid" json:"responded_by,omitempty"`
	CreatedAt      time.Time                 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time                 `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FamilyDoctorRequest) TableName() string {
	return "family_doctor_requests"
}

func (r *FamilyDoctorRequest) IsPending() bool {
	return r.Status == FamilyDoctorRequestPending
}

// Resolve marks the request with its final status and responder.
func (r *FamilyDoctorRequest) Resolve(status FamilyDoctorRequestStatus, by uuid.UUID, reason string, at time.Time) {
	id := by
	r.Status = status
	r.RespondedBy = &id
	r.RespondedAt = &at
	r.ResponseReason = reason
}
