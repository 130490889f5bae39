package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateFamilyDoctorRequestRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" validate:"required"`
	Reason   string    `json:"reason" validate:"omitempty,max=1000"`
}

type RespondFamilyDoctorRequestRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

// Response DTOs

type FamilyDoctorRequestResponse struct {
	ID             uuid.UUID  `json:"id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	DoctorID       uuid.UUID  `json:"doctor_id"`
	Status         string     `json:"status"`
	RequestReason  string     `json:"request_reason,omitempty"`
	ResponseReason string     `json:"response_reason,omitempty"`
	RequestedAt    time.Time  `json:"requested_at"`
	RespondedAt    *time.Time `json:"responded_at,omitempty"`
	RespondedBy    *uuid.UUID `json:"responded_by,omitempty"`
}

type FamilyDoctorRequestListResponse struct {
	Requests []FamilyDoctorRequestResponse `json:"requests"`
	Total    int                           `json:"total"`
}
