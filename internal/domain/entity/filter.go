package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentFilter narrows appointment listing. Zero values are ignored.
type AppointmentFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Statuses  []AppointmentStatus
	From      *time.Time
	To        *time.Time
}

// FamilyDoctorRequestFilter narrows request listing. Zero values are ignored.
type FamilyDoctorRequestFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    FamilyDoctorRequestStatus
}

// DoctorFilter narrows the doctor directory listing.
type DoctorFilter struct {
	Specialty     string
	AvailableOnly bool
}
