package usecase

import (
	"errors"
	"strings"

	"clinic-management-api/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
)

// Not found
var (
	ErrUserNotFound                = apperror.NotFound("USER_NOT_FOUND", "User not found")
	ErrDoctorNotFound              = apperror.NotFound("DOCTOR_NOT_FOUND", "Doctor not found")
	ErrPatientNotFound             = apperror.NotFound("PATIENT_NOT_FOUND", "Patient not found")
	ErrAppointmentNotFound         = apperror.NotFound("APPOINTMENT_NOT_FOUND", "Appointment not found")
	ErrFamilyDoctorRequestNotFound = apperror.NotFound("FAMILY_DOCTOR_REQUEST_NOT_FOUND", "Family doctor request not found")
	ErrAuditLogNotFound            = apperror.NotFound("AUDIT_LOG_NOT_FOUND", "Audit log not found")
)

// Booking pipeline
var (
	ErrBookingTooSoon        = apperror.BadRequest("BOOKING_TOO_SOON", "Appointments must be booked at least 2 hours in advance")
	ErrBookingTooFar         = apperror.BadRequest("BOOKING_TOO_FAR", "Appointments cannot be booked more than 90 days in advance")
	ErrInvalidDuration       = apperror.BadRequest("INVALID_DURATION", "Duration must be between 15 and 240 minutes in steps of 15")
	ErrFamilyDoctorAvailable = apperror.BadRequest("FAMILY_DOCTOR_AVAILABLE", "Your family doctor is available at this time slot. Please book with your family doctor first")
	ErrDoctorUnavailable     = apperror.BadRequest("DOCTOR_UNAVAILABLE", "The doctor is not accepting appointments")
	ErrOutsideSchedule       = apperror.BadRequest("OUTSIDE_SCHEDULE", "The doctor does not work at this time")
	ErrSlotUnavailable       = apperror.BadRequest("SLOT_UNAVAILABLE", "The doctor already has an appointment at this time")
	ErrPatientIDRequired     = apperror.BadRequest("PATIENT_ID_REQUIRED", "patient_id is required when booking on behalf of a patient")
	ErrInvalidStatusFilter   = apperror.BadRequest("INVALID_STATUS", "Unknown status filter")
	ErrBookingInProgress     = apperror.Conflict("BOOKING_IN_PROGRESS", "Another booking for this doctor is in progress, please retry")
)

// Appointment state machine
var (
	ErrInvalidStatusTransition = apperror.BadRequest("INVALID_STATUS_TRANSITION", "The appointment cannot move to this status from its current status")
	ErrAlreadyApproved         = apperror.BadRequest("ALREADY_APPROVED", "The appointment is already approved by this party")
	ErrRejectionReasonRequired = apperror.BadRequest("REJECTION_REASON_REQUIRED", "A rejection reason is required")
	ErrNotAppointmentDoctor    = apperror.Forbidden("NOT_APPOINTMENT_DOCTOR", "Only the appointment's doctor can do this")
)

// Family doctor
var (
	ErrNoFamilyDoctor            = apperror.BadRequest("NO_FAMILY_DOCTOR", "The patient has no family doctor")
	ErrSameFamilyDoctor          = apperror.BadRequest("SAME_FAMILY_DOCTOR", "This doctor is already the patient's family doctor")
	ErrAlreadyFamilyDoctor       = apperror.BadRequest("ALREADY_FAMILY_DOCTOR", "This doctor is already your family doctor")
	ErrDuplicatePendingRequest   = apperror.BadRequest("DUPLICATE_PENDING_REQUEST", "A pending request for this doctor already exists")
	ErrRequestNotPending         = apperror.BadRequest("REQUEST_NOT_PENDING", "The request has already been answered")
	ErrFamilyDoctorCapacity      = apperror.BadRequest("FAMILY_DOCTOR_CAPACITY_REACHED", "The doctor cannot take more family patients")
	ErrNotRequestDoctor          = apperror.Forbidden("NOT_REQUEST_DOCTOR", "This request is addressed to another doctor")
	ErrDoctorHasUpcomingBookings = apperror.BadRequest("DOCTOR_HAS_UPCOMING_APPOINTMENTS", "The doctor still has upcoming appointments")
)

// Directory and records
var (
	ErrInvalidSchedule       = apperror.BadRequest("INVALID_SCHEDULE", "The schedule is invalid")
	ErrInvalidDateFormat     = apperror.BadRequest("INVALID_DATE_FORMAT", "Invalid date format, use YYYY-MM-DD")
	ErrNotPatientUser        = apperror.BadRequest("NOT_A_PATIENT_USER", "The user does not have the patient role")
	ErrSevereAllergyConflict = apperror.BadRequest("SEVERE_ALLERGY_CONFLICT", "The patient has a severe allergy to this medication")
	ErrEmailAlreadyExists    = apperror.Conflict("EMAIL_ALREADY_EXISTS", "Email already exists")
	ErrLicenseAlreadyExists  = apperror.Conflict("LICENSE_ALREADY_EXISTS", "License number already exists")
	ErrPatientProfileExists  = apperror.Conflict("PATIENT_PROFILE_EXISTS", "The user already has a patient profile")
	ErrAccessDenied          = apperror.Forbidden("ACCESS_DENIED", "You are not allowed to access this resource")
	ErrConcurrentUpdate      = apperror.Conflict("CONCURRENT_UPDATE", "The data changed while the request was processed, please retry")
)

// Auth
var (
	ErrInvalidCredentials = apperror.New(apperror.KindUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	ErrInvalidToken       = apperror.New(apperror.KindUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
	ErrTokenRevoked       = apperror.New(apperror.KindUnauthorized, "TOKEN_REVOKED", "Token has been revoked")
	ErrAccountInactive    = apperror.New(apperror.KindUnauthorized, "ACCOUNT_INACTIVE", "The account is disabled")
)

const (
	pgUniqueViolation        = "23505"
	pgExclusionViolation     = "23P01"
	pgSerializationFailure   = "40001"
	pgDeadlockDetected       = "40P01"
	exclusionAppointmentSlot = "excl_appointments_doctor_slot"
)

// isDuplicateKeyError checks if the error is a PostgreSQL unique constraint violation
// containing the specified constraint name
func isDuplicateKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName))
	}
	return false
}

// isSlotConflict reports a booking lost to the appointment exclusion constraint.
func isSlotConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgExclusionViolation &&
		(pgErr.ConstraintName == "" || pgErr.ConstraintName == exclusionAppointmentSlot)
}

// isSerializationFailure reports a transaction aborted by serializable isolation or
// a deadlock. Nothing was written and the request can be retried.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
}
