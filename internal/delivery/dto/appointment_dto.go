package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// CreateAppointmentRequest books a slot. PatientID is ignored for patients, who always
// book for themselves. A zero Duration falls back to the doctor's consultation duration.
type CreateAppointmentRequest struct {
	PatientID *uuid.UUID `json:"patient_id" validate:"omitempty"`
	DoctorID  uuid.UUID  `json:"doctor_id" validate:"required"`
	DateTime  time.Time  `json:"date_time" validate:"required"`
	Duration  int        `json:"duration" validate:"omitempty"`
	Reason    string     `json:"reason" validate:"omitempty,max=2000"`
}

type RejectAppointmentRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

type CompleteAppointmentRequest struct {
	Notes       string `json:"notes" validate:"omitempty,max=5000"`
	Medications string `json:"medications" validate:"omitempty,max=2000"`
}

type AppointmentListQuery struct {
	Status string
	From   *time.Time
	To     *time.Time
}

// Response DTOs

type AppointmentResponse struct {
	ID                    uuid.UUID  `json:"id"`
	PatientID             uuid.UUID  `json:"patient_id"`
	DoctorID              uuid.UUID  `json:"doctor_id"`
	DateTime              time.Time  `json:"date_time"`
	EndTime               time.Time  `json:"end_time"`
	Duration              int        `json:"duration"`
	Status                string     `json:"status"`
	DoctorApproved        bool       `json:"doctor_approved"`
	DoctorApprovedBy      *uuid.UUID `json:"doctor_approved_by,omitempty"`
	DoctorApprovedAt      *time.Time `json:"doctor_approved_at,omitempty"`
	AdminApproved         bool       `json:"admin_approved"`
	AdminApprovedBy       *uuid.UUID `json:"admin_approved_by,omitempty"`
	AdminApprovedAt       *time.Time `json:"admin_approved_at,omitempty"`
	DoctorRejectionReason *string    `json:"doctor_rejection_reason,omitempty"`
	AdminRejectionReason  *string    `json:"admin_rejection_reason,omitempty"`
	Reason                string     `json:"reason,omitempty"`
	Notes                 string     `json:"notes,omitempty"`
	Medications           string     `json:"medications,omitempty"`
	RequestedBy           uuid.UUID  `json:"requested_by"`
	CancelledBy           *uuid.UUID `json:"cancelled_by,omitempty"`
	CancelledAt           *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}

// AvailabilityResponse answers check-availability. Code and Reason are set when
// Available is false.
type AvailabilityResponse struct {
	Available bool   `json:"available"`
	Code      string `json:"code,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// CanBookResponse answers the family doctor precedence pre-check.
type CanBookResponse struct {
	Allowed bool                   `json:"allowed"`
	Code    string                 `json:"code,omitempty"`
	Reason  string                 `json:"reason,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
