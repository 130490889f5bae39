package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentStatusRejected  AppointmentStatus = "REJECTED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
)

// ActiveAppointmentStatuses are the statuses that occupy a doctor's slot.
var ActiveAppointmentStatuses = []AppointmentStatus{AppointmentStatusPending, AppointmentStatusConfirmed}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusRejected,
		AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusRejected || s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

// Approver is one side of the dual approval.
type Approver string

const (
	ApproverDoctor Approver = "DOCTOR"
	ApproverAdmin  Approver = "ADMIN"
)

var (
	ErrNotPending      = errors.New("appointment is not pending")
	ErrNotConfirmed    = errors.New("appointment is not confirmed")
	ErrAlreadyTerminal = errors.New("appointment is already closed")
	ErrAlreadyApproved = errors.New("appointment already approved by this party")
	ErrRejectionReason = errors.New("rejection reason is required")
	ErrUnknownApprover = errors.New("unknown approver")
)

// Appointment is a booked consultation. EndTime is derived from DateTime and
// Duration and backs the no-overlap exclusion constraint.
type Appointment struct {
	ID                    uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID             uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID              uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	DateTime              time.Time         `gorm:"not null;index" json:"date_time"`
	EndTime               time.Time         `gorm:"not null" json:"end_time"`
	Duration              int               `gorm:"not null" json:"duration"`
	Status                AppointmentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	DoctorApproved        bool              `gorm:"not null;default:false" json:"doctor_approved"`
	DoctorApprovedBy      *uuid.UUID        `gorm:"type:uuid" json:"doctor_approved_by,omitempty"`
	DoctorApprovedAt      *time.Time        `json:"doctor_approved_at,omitempty"`
	AdminApproved         bool              `gorm:"not null;default:false" json:"admin_approved"`
	AdminApprovedBy       *uuid.UUID        `gorm:"type:uuid" json:"admin_approved_by,omitempty"`
	AdminApprovedAt       *time.Time        `json:"admin_approved_at,omitempty"`
	DoctorRejectionReason *string           `gorm:"type:text" json:"doctor_rejection_reason,omitempty"`
	AdminRejectionReason  *string           `gorm:"type:text" json:"admin_rejection_reason,omitempty"`
	Reason                string            `gorm:"type:text" json:"reason,omitempty"`
	Notes                 string            `gorm:"type:text" json:"notes,omitempty"`
	Medications           string            `gorm:"type:text" json:"medications,omitempty"`
	RequestedBy           uuid.UUID         `gorm:"type:uuid;not null" json:"requested_by"`
	CancelledBy           *uuid.UUID        `gorm:"type:uuid" json:"cancelled_by,omitempty"`
	CancelledAt           *time.Time        `json:"cancelled_at,omitempty"`
	CompletedAt           *time.Time        `json:"completed_at,omitempty"`
	CreatedAt             time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// NewAppointment builds a PENDING appointment with no approvals.
func NewAppointment(patientID, doctorID uuid.UUID, at time.Time, duration int, reason string, requestedBy uuid.UUID) *Appointment {
	return &Appointment{
		PatientID:   patientID,
		DoctorID:    doctorID,
		DateTime:    at,
		EndTime:     at.Add(time.Duration(duration) * time.Minute),
		Duration:    duration,
		Status:      AppointmentStatusPending,
		Reason:      reason,
		RequestedBy: requestedBy,
	}
}

// End returns the exclusive end of the appointment interval.
func (a *Appointment) End() time.Time {
	return a.DateTime.Add(time.Duration(a.Duration) * time.Minute)
}

// Overlaps implements the half-open interval test against [start, end).
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.DateTime.Before(end) && a.End().After(start)
}

// IsActive reports whether the appointment still holds its slot.
func (a *Appointment) IsActive() bool {
	return a.Status == AppointmentStatusPending || a.Status == AppointmentStatusConfirmed
}

// AppointmentChange is a guarded single-row update: Updates are applied only while
// the stored row still matches the Expect* fields that were read.
type AppointmentChange struct {
	ExpectStatus         AppointmentStatus
	ExpectDoctorApproved *bool
	ExpectAdminApproved  *bool
	Updates              map[string]interface{}
}

func boolPtr(b bool) *bool { return &b }

// Approve records one party's approval. The status moves to CONFIRMED when the other
// party has already approved. The receiver is updated in place.
func (a *Appointment) Approve(by Approver, actorID uuid.UUID, at time.Time) (*AppointmentChange, error) {
	if a.Status != AppointmentStatusPending {
		return nil, ErrNotPending
	}

	change := &AppointmentChange{
		ExpectStatus:         AppointmentStatusPending,
		ExpectDoctorApproved: boolPtr(a.DoctorApproved),
		ExpectAdminApproved:  boolPtr(a.AdminApproved),
		Updates:              map[string]interface{}{},
	}

	id := actorID
	var otherApproved bool
	switch by {
	case ApproverDoctor:
		if a.DoctorApproved {
			return nil, ErrAlreadyApproved
		}
		a.DoctorApproved, a.DoctorApprovedBy, a.DoctorApprovedAt = true, &id, &at
		change.Updates["doctor_approved"] = true
		change.Updates["doctor_approved_by"] = id
		change.Updates["doctor_approved_at"] = at
		otherApproved = a.AdminApproved
	case ApproverAdmin:
		if a.AdminApproved {
			return nil, ErrAlreadyApproved
		}
		a.AdminApproved, a.AdminApprovedBy, a.AdminApprovedAt = true, &id, &at
		change.Updates["admin_approved"] = true
		change.Updates["admin_approved_by"] = id
		change.Updates["admin_approved_at"] = at
		otherApproved = a.DoctorApproved
	default:
		return nil, ErrUnknownApprover
	}

	if otherApproved {
		a.Status = AppointmentStatusConfirmed
		change.Updates["status"] = AppointmentStatusConfirmed
	}
	return change, nil
}

// Reject closes a PENDING appointment and records the rejecting party's reason.
// The other party's approval flag is left as is.
func (a *Appointment) Reject(by Approver, reason string) (*AppointmentChange, error) {
	if a.Status != AppointmentStatusPending {
		return nil, ErrNotPending
	}
	if reason == "" {
		return nil, ErrRejectionReason
	}

	change := &AppointmentChange{
		ExpectStatus: AppointmentStatusPending,
		Updates:      map[string]interface{}{"status": AppointmentStatusRejected},
	}
	r := reason
	switch by {
	case ApproverDoctor:
		a.DoctorRejectionReason = &r
		change.Updates["doctor_rejection_reason"] = r
	case ApproverAdmin:
		a.AdminRejectionReason = &r
		change.Updates["admin_rejection_reason"] = r
	default:
		return nil, ErrUnknownApprover
	}
	a.Status = AppointmentStatusRejected
	return change, nil
}

// Cancel closes a PENDING or CONFIRMED appointment.
func (a *Appointment) Cancel(actorID uuid.UUID, at time.Time) (*AppointmentChange, error) {
	if !a.IsActive() {
		return nil, ErrAlreadyTerminal
	}
	change := &AppointmentChange{
		ExpectStatus: a.Status,
		Updates: map[string]interface{}{
			"status":       AppointmentStatusCancelled,
			"cancelled_by": actorID,
			"cancelled_at": at,
		},
	}
	id := actorID
	a.Status, a.CancelledBy, a.CancelledAt = AppointmentStatusCancelled, &id, &at
	return change, nil
}

// Complete closes a CONFIRMED appointment with the doctor's visit notes.
func (a *Appointment) Complete(notes, medications string, at time.Time) (*AppointmentChange, error) {
	if a.Status != AppointmentStatusConfirmed {
		return nil, ErrNotConfirmed
	}
	change := &AppointmentChange{
		ExpectStatus: AppointmentStatusConfirmed,
		Updates: map[string]interface{}{
			"status":       AppointmentStatusCompleted,
			"notes":        notes,
			"medications":  medications,
			"completed_at": at,
		},
	}
	a.Status, a.Notes, a.Medications, a.CompletedAt = AppointmentStatusCompleted, notes, medications, &at
	return change, nil
}
