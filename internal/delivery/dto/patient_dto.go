package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// CreatePatientRequest attaches a profile to UserID when set, otherwise it creates the
// user from the account fields first.
type CreatePatientRequest struct {
	UserID           *uuid.UUID `json:"user_id" validate:"omitempty"`
	Email            string     `json:"email" validate:"required_without=UserID,omitempty,email"`
	Password         string     `json:"password" validate:"required_without=UserID,omitempty,min=8"`
	FullName         string     `json:"full_name" validate:"required_without=UserID,omitempty,min=2"`
	PhoneNumber      string     `json:"phone_number" validate:"omitempty,min=6,max=20"`
	DateOfBirth      string     `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender           string     `json:"gender" validate:"omitempty,oneof=M F"`
	Address          string     `json:"address" validate:"omitempty"`
	EmergencyContact string     `json:"emergency_contact" validate:"omitempty,max=255"`
}

// UpdatePatientRequest is a partial update of profile fields.
type UpdatePatientRequest struct {
	FullName         *string `json:"full_name" validate:"omitempty,min=2"`
	PhoneNumber      *string `json:"phone_number" validate:"omitempty,min=6,max=20"`
	DateOfBirth      *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender           *string `json:"gender" validate:"omitempty,oneof=M F"`
	Address          *string `json:"address" validate:"omitempty"`
	EmergencyContact *string `json:"emergency_contact" validate:"omitempty,max=255"`
}

type AssignFamilyDoctorRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" validate:"required"`
	Reason   string    `json:"reason" validate:"omitempty,max=1000"`
}

type RemoveFamilyDoctorRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

// Response DTOs

type PatientResponse struct {
	ID                     uuid.UUID  `json:"id"`
	Email                  string     `json:"email"`
	FullName               string     `json:"full_name"`
	PhoneNumber            string     `json:"phone_number,omitempty"`
	DateOfBirth            *string    `json:"date_of_birth,omitempty"`
	Gender                 string     `json:"gender,omitempty"`
	Address                string     `json:"address,omitempty"`
	EmergencyContact       string     `json:"emergency_contact,omitempty"`
	FamilyDoctorID         *uuid.UUID `json:"family_doctor_id"`
	FamilyDoctorAssignedAt *time.Time `json:"family_doctor_assigned_at"`
	IsActive               bool       `json:"is_active"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

type PatientListResponse struct {
	Patients []PatientResponse `json:"patients"`
	Total    int               `json:"total"`
}

type FamilyDoctorHistoryResponse struct {
	ID               uuid.UUID  `json:"id"`
	PatientID        uuid.UUID  `json:"patient_id"`
	PreviousDoctorID *uuid.UUID `json:"previous_doctor_id"`
	NewDoctorID      *uuid.UUID `json:"new_doctor_id"`
	ChangeType       string     `json:"change_type"`
	ChangedBy        uuid.UUID  `json:"changed_by"`
	Reason           string     `json:"reason,omitempty"`
	ChangedAt        time.Time  `json:"changed_at"`
}

type FamilyDoctorHistoryListResponse struct {
	History []FamilyDoctorHistoryResponse `json:"history"`
	Total   int                           `json:"total"`
}
