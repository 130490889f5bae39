package usecase

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"clinic-management-api/internal/converter"
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/policy"
	"clinic-management-api/internal/domain/repository"
	"clinic-management-api/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type FamilyDoctorRequestUsecase interface {
	CreateRequest(ctx context.Context, actor entity.Actor, req *dto.CreateFamilyDoctorRequestRequest) (*dto.FamilyDoctorRequestResponse, error)
	GetRequest(ctx context.Context, actor entity.Actor, requestID uuid.UUID) (*dto.FamilyDoctorRequestResponse, error)
	ListRequests(ctx context.Context, actor entity.Actor, status string) (*dto.FamilyDoctorRequestListResponse, error)
	ApproveRequest(ctx context.Context, actor entity.Actor, requestID uuid.UUID, req *dto.RespondFamilyDoctorRequestRequest) (*dto.FamilyDoctorRequestResponse, error)
	RejectRequest(ctx context.Context, actor entity.Actor, requestID uuid.UUID, req *dto.RespondFamilyDoctorRequestRequest) (*dto.FamilyDoctorRequestResponse, error)
}

type familyDoctorRequestUsecase struct {
	log                *logrus.Logger
	transactor         repository.Transactor
	requestRepo        repository.FamilyDoctorRequestRepository
	patientProfileRepo repository.PatientProfileRepository
	doctorProfileRepo  repository.DoctorProfileRepository
	auditService       service.AuditService
	assigner           *familyDoctorAssigner
	now                func() time.Time
}

func NewFamilyDoctorRequestUsecase(
	log *logrus.Logger,
	transactor repository.Transactor,
	requestRepo repository.FamilyDoctorRequestRepository,
	patientProfileRepo repository.PatientProfileRepository,
	doctorProfileRepo repository.DoctorProfileRepository,
	auditService service.AuditService,
	ledger service.FamilyDoctorLedgerService,
) FamilyDoctorRequestUsecase {
	return &familyDoctorRequestUsecase{
		log:                log,
		transactor:         transactor,
		requestRepo:        requestRepo,
		patientProfileRepo: patientProfileRepo,
		doctorProfileRepo:  doctorProfileRepo,
		auditService:       auditService,
		assigner: &familyDoctorAssigner{
			log:                log,
			patientProfileRepo: patientProfileRepo,
			ledger:             ledger,
		},
		now: time.Now,
	}
}

// CreateRequest files a request from the calling patient to a doctor.
func (u *familyDoctorRequestUsecase) CreateRequest(ctx context.Context, actor entity.Actor, req *dto.CreateFamilyDoctorRequestRequest) (*dto.FamilyDoctorRequestResponse, error) {
	if !actor.IsPatient() {
		return nil, ErrAccessDenied
	}

	var request *entity.FamilyDoctorRequest
	err := u.transactor.Transaction(ctx, func(tx *gorm.DB) error {
		patient, err := u.patientProfileRepo.FindByID(ctx, tx, actor.ID)
		if err != nil {
			u.log.Warnf("Failed to find patient profile: %+v", err)
			return err
		}
		if patient == nil {
			return ErrPatientNotFound
		}

		doctor, err := u.doctorProfileRepo.FindByID(ctx, tx, req.DoctorID)
		if err != nil {
			u.log.Warnf("Failed to find doctor profile: %+v", err)
			return err
		}
		if doctor == nil {
			return ErrDoctorNotFound
		}

		pending, err := u.requestRepo.ExistsPending(ctx, tx, patient.UserID, doctor.UserID)
		if err != nil {
			u.log.Warnf("Failed to check pending requests: %+v", err)
			return err
		}
		if pending {
			return ErrDuplicatePendingRequest
		}
		if patient.IsFamilyDoctor(doctor.UserID) {
			return ErrAlreadyFamilyDoctor
		}

		request = &entity.FamilyDoctorRequest{
			PatientID:     patient.UserID,
			DoctorID:      doctor.UserID,
			Status:        entity.FamilyDoctorRequestPending,
			RequestReason: req.Reason,
			RequestedAt:   u.now(),
		}
		if err := u.requestRepo.Create(ctx, tx, request); err != nil {
			if isDuplicateKeyError(err, "uq_family_doctor_requests_pending") {
				return ErrDuplicatePendingRequest
			}
			u.log.Warnf("Failed to create family doctor request: %+v", err)
			return err
		}

		return u.auditService.Record(ctx, tx, service.AuditEntry{
			Actor:      actor,
			Action:     entity.AuditActionFDRequestCreate,
			EntityType: "family_doctor_request",
			EntityID:   request.ID.String(),
			NewValue:   converter.FamilyDoctorRequestToResponse(request),
		})
	})
	if err != nil {
		return nil, err
	}

	return converter.FamilyDoctorRequestToResponse(request), nil
}

func (u *familyDoctorRequestUsecase) GetRequest(ctx context.Context, actor entity.Actor, requestID uuid.UUID) (*dto.FamilyDoctorRequestResponse, error) {
	request, err := u.findRequest(ctx, u.transactor.Conn(ctx), requestID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewFamilyDoctorRequest(actor, request) {
		return nil, ErrAccessDenied
	}
	return converter.FamilyDoctorRequestToResponse(request), nil
}

// ListRequests scopes the listing to the caller: patients see their own requests,
// doctors the ones addressed to them and admins everything.
func (u *familyDoctorRequestUsecase) ListRequests(ctx context.Context, actor entity.Actor, status string) (*dto.FamilyDoctorRequestListResponse, error) {
	filter := entity.FamilyDoctorRequestFilter{}
	if status != "" {
		filter.Status = entity.FamilyDoctorRequestStatus(strings.ToUpper(status))
		if !filter.Status.Valid() {
			return nil, ErrInvalidStatusFilter.WithParams(map[string]interface{}{"status": status})
		}
	}

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

	requests, err := u.requestRepo.FindAll(ctx, u.transactor.Conn(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to list family doctor requests: %+v", err)
		return nil, err
	}

	responses := converter.FamilyDoctorRequestsToResponses(requests)
	return &dto.FamilyDoctorRequestListResponse{
		Requests: responses,
		Total:    len(responses),
	}, nil
}

func (u *familyDoctorRequestUsecase) findRequest(ctx context.Context, db *gorm.DB, requestID uuid.UUID) (*entity.FamilyDoctorRequest, error) {
	request, err := u.requestRepo.FindByID(ctx, db, requestID)
	if err != nil {
		u.log.Warnf("Failed to find family doctor request: %+v", err)
		return nil, err
	}
	if request == nil {
		return nil, ErrFamilyDoctorRequestNotFound
	}
	return request, nil
}

// authorizeResponder admits admins and the addressed doctor.
func authorizeResponder(actor entity.Actor, request *entity.FamilyDoctorRequest) error {
	if policy.CanResolveFamilyDoctorRequest(actor, request) {
		return nil
	}
	if actor.IsDoctor() {
		return ErrNotRequestDoctor
	}
	return ErrAccessDenied
}

// ApproveRequest is shared by the admin and doctor paths. It enforces the doctor's
// family patient cap, assigns the doctor through the ledger and closes the request.
func (u *familyDoctorRequestUsecase) ApproveRequest(ctx context.Context, actor entity.Actor, requestID uuid.UUID, req *dto.RespondFamilyDoctorRequestRequest) (*dto.FamilyDoctorRequestResponse, error) {
	var request *entity.FamilyDoctorRequest

	err := u.transactor.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		request, err = u.findRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if err := authorizeResponder(actor, request); err != nil {
			return err
		}
		if !request.IsPending() {
			return ErrRequestNotPending.WithParams(map[string]interface{}{"status": request.Status})
		}

		doctor, err := u.doctorProfileRepo.FindByID(ctx, tx, request.DoctorID)
		if err != nil {
			u.log.Warnf("Failed to find doctor profile: %+v", err)
			return err
		}
		if doctor == nil {
			return ErrDoctorNotFound
		}

		if doctor.MaxFamilyPatients != nil {
			current, err := u.patientProfileRepo.CountByFamilyDoctor(ctx, tx, doctor.UserID)
			if err != nil {
				u.log.Warnf("Failed to count family patients: %+v", err)
				return err
			}
			if !doctor.HasCapacityFor(current) {
				return ErrFamilyDoctorCapacity.WithParams(map[string]interface{}{
					"max_family_patients": *doctor.MaxFamilyPatients,
					"current":             current,
				})
			}
		}

		patient, err := u.patientProfileRepo.FindByID(ctx, tx, request.PatientID)
		if err != nil {
			u.log.Warnf("Failed to find patient profile: %+v", err)
			return err
		}
		if patient == nil {
			return ErrPatientNotFound
		}
		if patient.IsFamilyDoctor(doctor.UserID) {
			return ErrAlreadyFamilyDoctor
		}

		at := u.now()
		reason := strings.TrimSpace(req.Reason)
		if _, err := u.assigner.assign(ctx, tx, patient, doctor.UserID, actor.ID, ledgerReason(reason, "Family doctor request approved"), at); err != nil {
			return err
		}

		return u.resolve(ctx, tx, actor, request, entity.FamilyDoctorRequestApproved, reason, at, entity.AuditActionFDRequestApprove)
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		if isSerializationFailure(err) {
			return nil, ErrConcurrentUpdate.WithParams(map[string]interface{}{"request_id": requestID})
		}
		return nil, err
	}

	u.log.WithFields(logrus.Fields{
		"request_id": request.ID,
		"patient_id": request.PatientID,
		"doctor_id":  request.DoctorID,
		"actor":      actor.Kind.String(),
	}).Info("Family doctor request approved")

	return converter.FamilyDoctorRequestToResponse(request), nil
}

// RejectRequest requires a reason.
func (u *familyDoctorRequestUsecase) RejectRequest(ctx context.Context, actor entity.Actor, requestID uuid.UUID, req *dto.RespondFamilyDoctorRequestRequest) (*dto.FamilyDoctorRequestResponse, error) {
	var request *entity.FamilyDoctorRequest

	err := u.transactor.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		request, err = u.findRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if err := authorizeResponder(actor, request); err != nil {
			return err
		}
		if !request.IsPending() {
			return ErrRequestNotPending.WithParams(map[string]interface{}{"status": request.Status})
		}

		reason := strings.TrimSpace(req.Reason)
		if reason == "" {
			return ErrRejectionReasonRequired
		}

		return u.resolve(ctx, tx, actor, request, entity.FamilyDoctorRequestRejected, reason, u.now(), entity.AuditActionFDRequestReject)
	})
	if err != nil {
		return nil, err
	}

	return converter.FamilyDoctorRequestToResponse(request), nil
}

func (u *familyDoctorRequestUsecase) resolve(ctx context.Context, tx *gorm.DB, actor entity.Actor, request *entity.FamilyDoctorRequest, status entity.FamilyDoctorRequestStatus, reason string, at time.Time, action string) error {
	request.Resolve(status, actor.ID, reason, at)

	rows, err := u.requestRepo.Resolve(ctx, tx, request)
	if err != nil {
		u.log.Warnf("Failed to resolve family doctor request: %+v", err)
		return err
	}
	if rows == 0 {
		return ErrRequestNotPending
	}

	return u.auditService.Record(ctx, tx, service.AuditEntry{
		Actor:      actor,
		Action:     action,
		EntityType: "family_doctor_request",
		EntityID:   request.ID.String(),
		OldValue:   map[string]interface{}{"status": entity.FamilyDoctorRequestPending},
		NewValue:   converter.FamilyDoctorRequestToResponse(request),
	})
}

func ledgerReason(reason, fallback string) string {
	if reason == "" {
		return fallback
	}
	return reason
}
