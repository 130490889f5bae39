package dto

import (
	"time"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type DayScheduleRequest struct {
	Start   string `json:"start" validate:"omitempty,hhmm"`
	End     string `json:"end" validate:"omitempty,hhmm"`
	Enabled bool   `json:"enabled"`
}

type CreateDoctorRequest struct {
	Email                string                        `json:"email" validate:"required,email"`
	Password             string                        `json:"password" validate:"required,min=8"`
	FullName             string                        `json:"full_name" validate:"required,min=2"`
	LicenseNumber        string                        `json:"license_number" validate:"required,max=50"`
	Specialty            string                        `json:"specialty" validate:"required,max=100"`
	Biography            string                        `json:"biography" validate:"omitempty"`
	ConsultationDuration int                           `json:"consultation_duration" validate:"omitempty,gte=15,lte=240"`
	ConsultationFee      *decimal.Decimal              `json:"consultation_fee" validate:"omitempty"`
	MaxFamilyPatients    *int                          `json:"max_family_patients" validate:"omitempty,gte=0"`
	Schedule             map[string]DayScheduleRequest `json:"schedule" validate:"omitempty,dive"`
}

// UpdateDoctorRequest is a partial update; nil fields are left untouched.
type UpdateDoctorRequest struct {
	FullName             *string          `json:"full_name" validate:"omitempty,min=2"`
	LicenseNumber        *string          `json:"license_number" validate:"omitempty,max=50"`
	Specialty            *string          `json:"specialty" validate:"omitempty,max=100"`
	Biography            *string          `json:"biography" validate:"omitempty"`
	ConsultationDuration *int             `json:"consultation_duration" validate:"omitempty,gte=15,lte=240"`
	ConsultationFee      *decimal.Decimal `json:"consultation_fee" validate:"omitempty"`
	MaxFamilyPatients    *int             `json:"max_family_patients" validate:"omitempty,gte=0"`
	ClearMaxFamily       bool             `json:"clear_max_family_patients"`
	IsActive             *bool            `json:"is_active" validate:"omitempty"`
}

type UpdateScheduleRequest struct {
	Schedule map[string]DayScheduleRequest `json:"schedule" validate:"required,dive"`
}

type UpdateAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" validate:"required"`
}

type DoctorListQuery struct {
	Specialty     string
	AvailableOnly bool
}

// Response DTOs

type DoctorResponse struct {
	ID                   uuid.UUID             `json:"id"`
	Email                string                `json:"email"`
	FullName             string                `json:"full_name"`
	LicenseNumber        string                `json:"license_number"`
	Specialty            string                `json:"specialty"`
	Biography            string                `json:"biography,omitempty"`
	IsAvailable          bool                  `json:"is_available"`
	ConsultationDuration int                   `json:"consultation_duration"`
	ConsultationFee      decimal.Decimal       `json:"consultation_fee"`
	MaxFamilyPatients    *int                  `json:"max_family_patients"`
	Schedule             entity.WeeklySchedule `json:"schedule"`
	IsActive             bool                  `json:"is_active"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Total   int              `json:"total"`
}
