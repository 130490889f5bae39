package usecase

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"clinic-management-api/internal/converter"
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/policy"
	"clinic-management-api/internal/domain/repository"
	"clinic-management-api/internal/service"
	"clinic-management-api/pkg/apperror"
	"clinic-management-api/pkg/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	minBookingLead    = 2 * time.Hour
	maxBookingHorizon = 90 * 24 * time.Hour

	minAppointmentDuration  = 15
	maxAppointmentDuration  = 240
	appointmentDurationStep = 15
)

type AppointmentUsecase interface {
	CreateAppointment(ctx context.Context, actor entity.Actor, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	GetAppointment(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.AppointmentResponse, error)
	ListAppointments(ctx context.Context, actor entity.Actor, query *dto.AppointmentListQuery) (*dto.AppointmentListResponse, error)
	DeleteAppointment(ctx context.Context, actor entity.Actor, id uuid.UUID) error

	IsDoctorAvailable(ctx context.Context, doctorID uuid.UUID, at time.Time, duration int) (bool, error)
	CheckAvailability(ctx context.Context, doctorID uuid.UUID, at time.Time, duration int) (*dto.AvailabilityResponse, error)
	CanPatientBookWithDoctor(ctx context.Context, patientID, doctorID uuid.UUID, at time.Time, duration int) (*dto.CanBookResponse, error)
	CanBook(ctx context.Context, actor entity.Actor, doctorID uuid.UUID, patientID *uuid.UUID, at time.Time, duration int) (*dto.CanBookResponse, error)

	ApproveAppointment(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.AppointmentResponse, error)
	RejectAppointment(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.RejectAppointmentRequest) (*dto.AppointmentResponse, error)
	CancelAppointment(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.AppointmentResponse, error)
	CompleteAppointment(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.CompleteAppointmentRequest) (*dto.AppointmentResponse, error)
}

type appointmentUsecase struct {
	log                *logrus.Logger
	transactor         repository.Transactor
	appointmentRepo    repository.AppointmentRepository
	doctorProfileRepo  repository.DoctorProfileRepository
	patientProfileRepo repository.PatientProfileRepository
	auditService       service.AuditService
	locker             service.BookingLocker
	metrics            *metrics.Metrics
	location           *time.Location
	now                func() time.Time
}

func NewAppointmentUsecase(
	log *logrus.Logger,
	transactor repository.Transactor,
	appointmentRepo repository.AppointmentRepository,
	doctorProfileRepo repository.DoctorProfileRepository,
	patientProfileRepo repository.PatientProfileRepository,
	auditService service.AuditService,
	locker service.BookingLocker,
	m *metrics.Metrics,
	location *time.Location,
) AppointmentUsecase {
	return &appointmentUsecase{
		log:                log,
		transactor:         transactor,
		appointmentRepo:    appointmentRepo,
		doctorProfileRepo:  doctorProfileRepo,
		patientProfileRepo: patientProfileRepo,
		auditService:       auditService,
		locker:             locker,
		metrics:            m,
		location:           location,
		now:                time.Now,
	}
}

// =============================================================================
// Booking rules
// =============================================================================

func validDuration(minutes int) bool {
	return minutes >= minAppointmentDuration &&
		minutes <= maxAppointmentDuration &&
		minutes%appointmentDurationStep == 0
}

// validateBookingRequest runs the checks that need no stored state, in order.
func validateBookingRequest(now, at time.Time, duration int) error {
	lead := at.Sub(now)
	if lead < minBookingLead {
		return ErrBookingTooSoon.WithParams(map[string]interface{}{"min_lead_minutes": int(minBookingLead.Minutes())})
	}
	if lead > maxBookingHorizon {
		return ErrBookingTooFar.WithParams(map[string]interface{}{"max_days": int(maxBookingHorizon.Hours() / 24)})
	}
	if !validDuration(duration) {
		return ErrInvalidDuration.WithParams(map[string]interface{}{
			"duration": duration,
			"min":      minAppointmentDuration,
			"max":      maxAppointmentDuration,
			"step":     appointmentDurationStep,
		})
	}
	return nil
}

// checkDoctorAvailable returns nil when the doctor can take [at, at+duration).
// The checks short-circuit in order: profile flag, weekly template, overlaps.
func (u *appointmentUsecase) checkDoctorAvailable(ctx context.Context, db *gorm.DB, doctor *entity.DoctorProfile, at time.Time, duration int) error {
	params := map[string]interface{}{"doctor_id": doctor.UserID}
	if !doctor.IsAvailable {
		return ErrDoctorUnavailable.WithParams(params)
	}
	if !doctor.Schedule.Covers(at, u.location) {
		return ErrOutsideSchedule.WithParams(params)
	}

	end := at.Add(time.Duration(duration) * time.Minute)
	overlapping, err := u.appointmentRepo.FindOverlapping(ctx, db, doctor.UserID, at, end)
	if err != nil {
		u.log.Warnf("Failed to find overlapping appointments: %+v", err)
		return err
	}
	if len(overlapping) > 0 {
		return ErrSlotUnavailable.WithParams(params)
	}
	return nil
}

func (u *appointmentUsecase) findDoctor(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) (*entity.DoctorProfile, error) {
	doctor, err := u.doctorProfileRepo.FindByID(ctx, db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile: %+v", err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}
	return doctor, nil
}

func (u *appointmentUsecase) findPatient(ctx context.Context, db *gorm.DB, patientID uuid.UUID) (*entity.PatientProfile, error) {
	patient, err := u.patientProfileRepo.FindByID(ctx, db, patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient profile: %+v", err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}
	return patient, nil
}

// checkCanBook applies family doctor precedence. The requested doctor must be
// available first. A patient whose family doctor is free at the exact slot must
// book with the family doctor instead.
func (u *appointmentUsecase) checkCanBook(ctx context.Context, db *gorm.DB, patientID, doctorID uuid.UUID, at time.Time, duration int) error {
	patient, err := u.findPatient(ctx, db, patientID)
	if err != nil {
		return err
	}
	doctor, err := u.findDoctor(ctx, db, doctorID)
	if err != nil {
		return err
	}
	if err := u.checkDoctorAvailable(ctx, db, doctor, at, duration); err != nil {
		return err
	}

	if !patient.HasFamilyDoctor() || patient.IsFamilyDoctor(doctorID) {
		return nil
	}

	familyDoctor, err := u.doctorProfileRepo.FindByID(ctx, db, *patient.FamilyDoctorID)
	if err != nil {
		u.log.Warnf("Failed to find family doctor profile: %+v", err)
		return err
	}
	if familyDoctor == nil {
		return nil
	}

	err = u.checkDoctorAvailable(ctx, db, familyDoctor, at, duration)
	if err == nil {
		return ErrFamilyDoctorAvailable.WithParams(map[string]interface{}{
			paramFamilyDoctorID: familyDoctor.UserID,
			"date_time":        at,
			"duration":         duration,
		})
	}
	if _, ok := apperror.As(err); ok {
		return nil
	}
	return err
}

// resolveDuration falls back to the doctor's consultation duration when none is given.
func (u *appointmentUsecase) resolveDuration(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, duration int) (int, error) {
	if duration != 0 {
		return duration, nil
	}
	doctor, err := u.findDoctor(ctx, db, doctorID)
	if err != nil {
		return 0, err
	}
	if doctor.ConsultationDuration == 0 {
		return entity.DefaultConsultationDuration, nil
	}
	return doctor.ConsultationDuration, nil
}

// =============================================================================
// Queries
// =============================================================================

func (u *appointmentUsecase) IsDoctorAvailable(ctx context.Context, doctorID uuid.UUID, at time.Time, duration int) (bool, error) {
	resp, err := u.CheckAvailability(ctx, doctorID, at, duration)
	if err != nil {
		return false, err
	}
	return resp.Available, nil
}

func (u *appointmentUsecase) CheckAvailability(ctx context.Context, doctorID uuid.UUID, at time.Time, duration int) (*dto.AvailabilityResponse, error) {
	db := u.transactor.Conn(ctx)

	err := func() error {
		duration, err := u.resolveDuration(ctx, db, doctorID, duration)
		if err != nil {
			return err
		}
		doctor, err := u.findDoctor(ctx, db, doctorID)
		if err != nil {
			return err
		}
		return u.checkDoctorAvailable(ctx, db, doctor, at, duration)
	}()
	if err == nil {
		return &dto.AvailabilityResponse{Available: true}, nil
	}
	if appErr, ok := apperror.As(err); ok {
		return &dto.AvailabilityResponse{Available: false, Code: appErr.Code, Reason: appErr.Message}, nil
	}
	return nil, err
}

func (u *appointmentUsecase) CanPatientBookWithDoctor(ctx context.Context, patientID, doctorID uuid.UUID, at time.Time, duration int) (*dto.CanBookResponse, error) {
	db := u.transactor.Conn(ctx)

	duration, err := u.resolveDuration(ctx, db, doctorID, duration)
	if err == nil {
		err = u.checkCanBook(ctx, db, patientID, doctorID, at, duration)
	}
	if err == nil {
		return &dto.CanBookResponse{Allowed: true}, nil
	}
	if appErr, ok := apperror.As(err); ok {
		return &dto.CanBookResponse{
			Allowed: false,
			Code:    appErr.Code,
			Reason:  appErr.Message,
			Params:  appErr.Params,
		}, nil
	}
	return nil, err
}

func (u *appointmentUsecase) CanBook(ctx context.Context, actor entity.Actor, doctorID uuid.UUID, patientID *uuid.UUID, at time.Time, duration int) (*dto.CanBookResponse, error) {
	resolved, err := bookingPatientFor(actor, patientID)
	if err != nil {
		return nil, err
	}
	res, err := u.CanPatientBookWithDoctor(ctx, resolved, doctorID, at, duration)
	if err != nil {
		return nil, err
	}
	if _, ok := res.Params[paramFamilyDoctorID]; ok {
		visible, err := u.familyDoctorVisible(ctx, u.transactor.Conn(ctx), actor, resolved)
		if err != nil {
			return nil, err
		}
		if !visible {
			res.Params = withoutParam(res.Params, paramFamilyDoctorID)
		}
	}
	return res, nil
}

const paramFamilyDoctorID = "family_doctor_id"

// familyDoctorVisible reports whether the actor may learn who the patient's family
// doctor is. Staff booking for a patient they cannot view only get the reason.
func (u *appointmentUsecase) familyDoctorVisible(ctx context.Context, db *gorm.DB, actor entity.Actor, patientID uuid.UUID) (bool, error) {
	if actor.IsAdmin() || policy.IsOwningPatient(actor, patientID) {
		return true, nil
	}
	patient, err := u.patientProfileRepo.FindByID(ctx, db, patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient profile: %+v", err)
		return false, err
	}
	return policy.CanViewPatient(actor, patient), nil
}

func withoutParam(params map[string]interface{}, key string) map[string]interface{} {
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		if k != key {
			out[k] = v
		}
	}
	return out
}

// bookingPatientFor decides whose appointment is being booked. Patients always
// book for themselves; staff must name the patient.
func bookingPatientFor(actor entity.Actor, requested *uuid.UUID) (uuid.UUID, error) {
	switch {
	case actor.IsPatient():
		return actor.ID, nil
	case actor.IsAdmin(), actor.IsDoctor():
		if requested == nil || *requested == uuid.Nil {
			return uuid.Nil, ErrPatientIDRequired
		}
		return *requested, nil
	default:
		return uuid.Nil, ErrAccessDenied
	}
}

func (u *appointmentUsecase) GetAppointment(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(ctx, u.transactor.Conn(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find appointment: %+v", err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if !policy.CanViewAppointment(actor, appointment) {
		return nil, ErrAccessDenied
	}
	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) ListAppointments(ctx context.Context, actor entity.Actor, query *dto.AppointmentListQuery) (*dto.AppointmentListResponse, error) {
	filter := entity.AppointmentFilter{}
	switch {
	case actor.IsPatient():
		id := actor.ID
		filter.PatientID = &id
	case actor.IsDoctor():
		id := actor.ID
		filter.DoctorID = &id
	case actor.IsAdmin():
	default:
		return nil, ErrAccessDenied
	}

	if query != nil {
		if query.Status != "" {
			status := entity.AppointmentStatus(strings.ToUpper(query.Status))
			if !status.Valid() {
				return nil, ErrInvalidStatusFilter.WithParams(map[string]interface{}{"status": query.Status})
			}
			filter.Statuses = []entity.AppointmentStatus{status}
		}
		filter.From = query.From
		filter.To = query.To
	}

	appointments, err := u.appointmentRepo.FindAll(ctx, u.transactor.Conn(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to list appointments: %+v", err)
		return nil, err
	}

	responses := converter.AppointmentsToResponses(appointments)
	return &dto.AppointmentListResponse{
		Appointments: responses,
		Total:        len(responses),
	}, nil
}

// =============================================================================
// Creation
// =============================================================================

// CreateAppointment is the only way to book. Window and duration checks run first,
// then precedence and availability run inside a serializable transaction while the
// doctor's booking lock is held.
func (u *appointmentUsecase) CreateAppointment(ctx context.Context, actor entity.Actor, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	patientID, err := bookingPatientFor(actor, req.PatientID)
	if err != nil {
		return nil, err
	}

	duration, err := u.resolveDuration(ctx, u.transactor.Conn(ctx), req.DoctorID, req.Duration)
	if err != nil {
		return nil, err
	}
	if err := validateBookingRequest(u.now(), req.DateTime, duration); err != nil {
		return nil, err
	}

	unlock, err := u.locker.Lock(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, service.ErrBookingLockBusy) {
			return nil, ErrBookingInProgress
		}
		return nil, err
	}
	defer unlock()

	appointment := entity.NewAppointment(patientID, req.DoctorID, req.DateTime, duration, req.Reason, actor.ID)

	err = u.transactor.Transaction(ctx, func(tx *gorm.DB) error {
		if err := u.checkCanBook(ctx, tx, patientID, req.DoctorID, req.DateTime, duration); err != nil {
			return err
		}

		if err := u.appointmentRepo.Create(ctx, tx, appointment); err != nil {
			return err
		}

		return u.auditService.Record(ctx, tx, service.AuditEntry{
			Actor:      actor,
			Action:     entity.AuditActionAppointmentCreate,
			EntityType: "appointment",
			EntityID:   appointment.ID.String(),
			NewValue:   converter.AppointmentToResponse(appointment),
		})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		if isSlotConflict(err) {
			return nil, ErrSlotUnavailable.WithParams(map[string]interface{}{"doctor_id": req.DoctorID})
		}
		if isSerializationFailure(err) {
			return nil, ErrConcurrentUpdate.WithParams(map[string]interface{}{"doctor_id": req.DoctorID})
		}
		if appErr, ok := apperror.As(err); ok && errors.Is(err, ErrFamilyDoctorAvailable) {
			visible, verr := u.familyDoctorVisible(ctx, u.transactor.Conn(ctx), actor, patientID)
			if verr != nil {
				return nil, verr
			}
			if !visible {
				hidden := *appErr
				hidden.Params = withoutParam(appErr.Params, paramFamilyDoctorID)
				return nil, &hidden
			}
		}
		if _, ok := apperror.As(err); !ok {
			u.log.Warnf("Failed to create appointment: %+v", err)
		}
		return nil, err
	}

	u.log.WithFields(logrus.Fields{
		"appointment_id": appointment.ID,
		"patient_id":     patientID,
		"doctor_id":      req.DoctorID,
		"date_time":      req.DateTime,
	}).Info("Appointment booked")

	return converter.AppointmentToResponse(appointment), nil
}

// =============================================================================
// State machine
// =============================================================================

// approverFor maps the caller onto one side of the dual approval.
func approverFor(actor entity.Actor, a *entity.Appointment) (entity.Approver, error) {
	switch {
	case actor.IsAdmin():
		return entity.ApproverAdmin, nil
	case actor.IsDoctor():
		if a.DoctorID != actor.ID {
			return "", ErrNotAppointmentDoctor
		}
		return entity.ApproverDoctor, nil
	default:
		return "", ErrAccessDenied
	}
}

func transitionError(err error, current entity.AppointmentStatus) error {
	switch {
	case errors.Is(err, entity.ErrAlreadyApproved):
		return ErrAlreadyApproved
	case errors.Is(err, entity.ErrRejectionReason):
		return ErrRejectionReasonRequired
	case errors.Is(err, entity.ErrNotPending), errors.Is(err, entity.ErrNotConfirmed), errors.Is(err, entity.ErrAlreadyTerminal):
		return ErrInvalidStatusTransition.WithParams(map[string]interface{}{"status": current})
	default:
		return err
	}
}

type transitionStep func(a *entity.Appointment, at time.Time) (*entity.AppointmentChange, error)

// transition loads the appointment, lets step authorize and mutate it, and stores
// the result with a guarded update. A concurrent writer makes the update touch no
// rows, which is reported as an invalid transition.
func (u *appointmentUsecase) transition(ctx context.Context, actor entity.Actor, id uuid.UUID, name, action string, step transitionStep) (*dto.AppointmentResponse, error) {
	var updated *entity.Appointment

	err := u.transactor.Transaction(ctx, func(tx *gorm.DB) error {
		appointment, err := u.appointmentRepo.FindByID(ctx, tx, id)
		if err != nil {
			u.log.Warnf("Failed to find appointment: %+v", err)
			return err
		}
		if appointment == nil {
			return ErrAppointmentNotFound
		}

		previous := appointment.Status
		change, err := step(appointment, u.now())
		if err != nil {
			return transitionError(err, previous)
		}

		rows, err := u.appointmentRepo.ApplyChange(ctx, tx, id, change)
		if err != nil {
			u.log.Warnf("Failed to update appointment: %+v", err)
			return err
		}
		if rows == 0 {
			return ErrInvalidStatusTransition.WithParams(map[string]interface{}{"status": previous})
		}

		if err := u.auditService.Record(ctx, tx, service.AuditEntry{
			Actor:      actor,
			Action:     action,
			EntityType: "appointment",
			EntityID:   id.String(),
			OldValue:   map[string]interface{}{"status": previous},
			NewValue:   change.Updates,
		}); err != nil {
			return err
		}

		updated = appointment
		return nil
	})
	u.metrics.ObserveTransition(name, err)
	if err != nil {
		return nil, err
	}

	u.log.WithFields(logrus.Fields{
		"appointment_id": id,
		"transition":     name,
		"status":         updated.Status,
		"actor":          actor.Kind.String(),
	}).Info("Appointment transition applied")

	return converter.AppointmentToResponse(updated), nil
}

func (u *appointmentUsecase) ApproveAppointment(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.AppointmentResponse, error) {
	return u.transition(ctx, actor, id, "approve", entity.AuditActionAppointmentApprove,
		func(a *entity.Appointment, at time.Time) (*entity.AppointmentChange, error) {
			by, err := approverFor(actor, a)
			if err != nil {
				return nil, err
			}
			return a.Approve(by, actor.ID, at)
		})
}

func (u *appointmentUsecase) RejectAppointment(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.RejectAppointmentRequest) (*dto.AppointmentResponse, error) {
	reason := strings.TrimSpace(req.Reason)
	return u.transition(ctx, actor, id, "reject", entity.AuditActionAppointmentReject,
		func(a *entity.Appointment, _ time.Time) (*entity.AppointmentChange, error) {
			by, err := approverFor(actor, a)
			if err != nil {
				return nil, err
			}
			return a.Reject(by, reason)
		})
}

func (u *appointmentUsecase) CancelAppointment(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.AppointmentResponse, error) {
	return u.transition(ctx, actor, id, "cancel", entity.AuditActionAppointmentCancel,
		func(a *entity.Appointment, at time.Time) (*entity.AppointmentChange, error) {
			if !policy.CanCancelAppointment(actor, a) {
				return nil, ErrAccessDenied
			}
			return a.Cancel(actor.ID, at)
		})
}

func (u *appointmentUsecase) CompleteAppointment(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.CompleteAppointmentRequest) (*dto.AppointmentResponse, error) {
	return u.transition(ctx, actor, id, "complete", entity.AuditActionAppointmentDone,
		func(a *entity.Appointment, at time.Time) (*entity.AppointmentChange, error) {
			if !policy.CanCompleteAppointment(actor, a) {
				if actor.IsDoctor() {
					return nil, ErrNotAppointmentDoctor
				}
				return nil, ErrAccessDenied
			}
			return a.Complete(req.Notes, req.Medications, at)
		})
}

func (u *appointmentUsecase) DeleteAppointment(ctx context.Context, actor entity.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrAccessDenied
	}

	return u.transactor.Transaction(ctx, func(tx *gorm.DB) error {
		rows, err := u.appointmentRepo.Delete(ctx, tx, id)
		if err != nil {
			u.log.Warnf("Failed to delete appointment: %+v", err)
			return err
		}
		if rows == 0 {
			return ErrAppointmentNotFound
		}
		return u.auditService.Record(ctx, tx, service.AuditEntry{
			Actor:      actor,
			Action:     entity.AuditActionAppointmentDelete,
			EntityType: "appointment",
			EntityID:   id.String(),
		})
	})
}
