package usecase

import (
	"context"
	"strings"
	"time"

	"clinic-management-api/internal/converter"
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/policy"
	"clinic-management-api/internal/domain/repository"
	"clinic-management-api/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type DoctorProfileUsecase interface {
	CreateDoctor(ctx context.Context, actor entity.Actor, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error)
	GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error)
	ListDoctors(ctx context.Context, query dto.DoctorListQuery) (*dto.DoctorListResponse, error)
	UpdateDoctor(ctx context.Context, actor entity.Actor, doctorID uuid.UUID, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error)
	UpdateSchedule(ctx context.Context, actor entity.Actor, doctorID uuid.UUID, req *dto.UpdateScheduleRequest) (*dto.DoctorResponse, error)
	UpdateAvailability(ctx context.Context, actor entity.Actor, doctorID uuid.UUID, req *dto.UpdateAvailabilityRequest) (*dto.DoctorResponse, error)
	DeleteDoctor(ctx context.Context, actor entity.Actor, doctorID uuid.UUID) error
}

type doctorProfileUsecase struct {
	log                *logrus.Logger
	transactor         repository.Transactor
	userRepo           repository.UserRepository
	doctorProfileRepo  repository.DoctorProfileRepository
	patientProfileRepo repository.PatientProfileRepository
	appointmentRepo    repository.AppointmentRepository
	auditService       service.AuditService
	assigner           *familyDoctorAssigner
	now                func() time.Time
}

func NewDoctorProfileUsecase(
	log *logrus.Logger,
	transactor repository.Transactor,
	userRepo repository.UserRepository,
	doctorProfileRepo repository.DoctorProfileRepository,
	patientProfileRepo repository.PatientProfileRepository,
	appointmentRepo repository.AppointmentRepository,
	auditService service.AuditService,
	ledger service.FamilyDoctorLedgerService,
) DoctorProfileUsecase {
	return &doctorProfileUsecase{
		log:                log,
		transactor:         transactor,
		userRepo:           userRepo,
		doctorProfileRepo:  doctorProfileRepo,
		patientProfileRepo: patientProfileRepo,
		appointmentRepo:    appointmentRepo,
		auditService:       auditService,
		assigner: &familyDoctorAssigner{
			log:                log,
			patientProfileRepo: patientProfileRepo,
			ledger:             ledger,
		},
		now: time.Now,
	}
}

func scheduleFromRequest(req map[string]dto.DayScheduleRequest) (entity.WeeklySchedule, error) {
	schedule, badKey, ok := converter.ScheduleFromRequest(req)
	if !ok {
		return nil, ErrInvalidSchedule.WithParams(map[string]interface{}{"day": badKey})
	}
	if err := schedule.Validate(); err != nil {
		return nil, ErrInvalidSchedule.WithMessage(err.Error())
	}
	return schedule, nil
}

// CreateDoctor creates the login and the profile in one transaction.
func (u *doctorProfileUsecase) CreateDoctor(ctx context.Context, actor entity.Actor, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrAccessDenied
	}

	schedule := entity.DefaultWeeklySchedule()
	if len(req.Schedule) > 0 {
		var err error
		if schedule, err = scheduleFromRequest(req.Schedule); err != nil {
			return nil, err
		}
	}

	duration := req.ConsultationDuration
	if duration == 0 {
		duration = entity.DefaultConsultationDuration
	}
	if !validDuration(duration) {
		return nil, ErrInvalidDuration.WithParams(map[string]interface{}{"duration": duration})
	}

	fee := decimal.Zero
	if req.ConsultationFee != nil {
		fee = *req.ConsultationFee
	}

	license := strings.TrimSpace(req.LicenseNumber)
	profile := &entity.DoctorProfile{
		LicenseNumber:        license,
		Specialty:            req.Specialty,
		Biography:            req.Biography,
		IsAvailable:          true,
		ConsultationDuration: duration,
		ConsultationFee:      fee,
		MaxFamilyPatients:    req.MaxFamilyPatients,
		Schedule:             schedule,
	}

	err := u.transactor.Transaction(ctx, func(tx *gorm.DB) error {
		exists, err := u.doctorProfileRepo.ExistsByLicense(ctx, tx, license, nil)
		if err != nil {
			u.log.Warnf("Failed to check license number: %+v", err)
			return err
		}
		if exists {
			return ErrLicenseAlreadyExists.WithParams(map[string]interface{}{"license_number": license})
		}

		user, err := createUser(ctx, tx, u.log, u.userRepo, req.Email, req.Password, req.FullName, entity.RoleIDDoctor)
		if err != nil {
			return err
		}

		profile.UserID = user.ID
		if err := u.doctorProfileRepo.Create(ctx, tx, profile); err != nil {
			if isDuplicateKeyError(err, "license_number") {
				return ErrLicenseAlreadyExists.WithParams(map[string]interface{}{"license_number": license})
			}
			u.log.Warnf("Failed to create doctor profile: %+v", err)
			return err
		}
		profile.User = *user

		return u.auditService.Record(ctx, tx, service.AuditEntry{
			Actor:      actor,
			Action:     entity.AuditActionDoctorCreate,
			EntityType: "doctor",
			EntityID:   profile.UserID.String(),
			NewValue:   converter.DoctorProfileToResponse(profile),
		})
	})
	if err != nil {
		return nil, err
	}

	u.log.WithField("doctor_id", profile.UserID).Info("Doctor created")
	return converter.DoctorProfileToResponse(profile), nil
}

func (u *doctorProfileUsecase) findDoctor(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) (*entity.DoctorProfile, error) {
	profile, err := u.doctorProfileRepo.FindByID(ctx, db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile: %+v", err)
		return nil, err
	}
	if profile == nil {
		return nil, ErrDoctorNotFound
	}
	return profile, nil
}

func (u *doctorProfileUsecase) GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error) {
	profile, err := u.findDoctor(ctx, u.transactor.Conn(ctx), doctorID)
	if err != nil {
		return nil, err
	}
	return converter.DoctorProfileToResponse(profile), nil
}

func (u *doctorProfileUsecase) ListDoctors(ctx context.Context, query dto.DoctorListQuery) (*dto.DoctorListResponse, error) {
	profiles, err := u.doctorProfileRepo.FindAll(ctx, u.transactor.Conn(ctx), entity.DoctorFilter{
		Specialty:     query.Specialty,
		AvailableOnly: query.AvailableOnly,
	})
	if err != nil {
		u.log.Warnf("Failed to find all doctor profiles: %+v", err)
		return nil, err
	}

	doctors := converter.DoctorProfilesToResponses(profiles)
	return &dto.DoctorListResponse{
		Doctors: doctors,
		Total:   len(doctors),
	}, nil
}

// mutate loads the doctor inside a transaction, applies the change, saves it and
// writes one audit row with the before and after views.
func (u *doctorProfileUsecase) mutate(ctx context.Context, actor entity.Actor, doctorID uuid.UUID, action string, apply func(tx *gorm.DB, profile *entity.DoctorProfile) error) (*dto.DoctorResponse, error) {
	var profile *entity.DoctorProfile
	err := u.transactor.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		profile, err = u.findDoctor(ctx, tx, doctorID)
		if err != nil {
			return err
		}
		before := converter.DoctorProfileToResponse(profile)

		if err := apply(tx, profile); err != nil {
			return err
		}
		if err := u.doctorProfileRepo.Update(ctx, tx, profile); err != nil {
			if isDuplicateKeyError(err, "license_number") {
				return ErrLicenseAlreadyExists.WithParams(map[string]interface{}{"license_number": profile.LicenseNumber})
			}
			u.log.Warnf("Failed to update doctor profile: %+v", err)
			return err
		}

		return u.auditService.Record(ctx, tx, service.AuditEntry{
			Actor:      actor,
			Action:     action,
			EntityType: "doctor",
			EntityID:   doctorID.String(),
			OldValue:   before,
			NewValue:   converter.DoctorProfileToResponse(profile),
		})
	})
	if err != nil {
		return nil, err
	}
	return converter.DoctorProfileToResponse(profile), nil
}

func (u *doctorProfileUsecase) UpdateDoctor(ctx context.Context, actor entity.Actor, doctorID uuid.UUID, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrAccessDenied
	}

	return u.mutate(ctx, actor, doctorID, entity.AuditActionDoctorUpdate, func(tx *gorm.DB, profile *entity.DoctorProfile) error {
		if req.LicenseNumber != nil {
			license := strings.TrimSpace(*req.LicenseNumber)
			if license != profile.LicenseNumber {
				exists, err := u.doctorProfileRepo.ExistsByLicense(ctx, tx, license, &profile.UserID)
				if err != nil {
					u.log.Warnf("Failed to check license number: %+v", err)
					return err
				}
				if exists {
					return ErrLicenseAlreadyExists.WithParams(map[string]interface{}{"license_number": license})
				}
				profile.LicenseNumber = license
			}
		}
		if req.Specialty != nil {
			profile.Specialty = *req.Specialty
		}
		if req.Biography != nil {
			profile.Biography = *req.Biography
		}
		if req.ConsultationDuration != nil {
			if !validDuration(*req.ConsultationDuration) {
				return ErrInvalidDuration.WithParams(map[string]interface{}{"duration": *req.ConsultationDuration})
			}
			profile.ConsultationDuration = *req.ConsultationDuration
		}
		if req.ConsultationFee != nil {
			profile.ConsultationFee = *req.ConsultationFee
		}
		switch {
		case req.ClearMaxFamily:
			profile.MaxFamilyPatients = nil
		case req.MaxFamilyPatients != nil:
			limit := *req.MaxFamilyPatients
			profile.MaxFamilyPatients = &limit
		}

		if req.FullName == nil && req.IsActive == nil {
			return nil
		}
		if req.FullName != nil {
			profile.User.FullName = *req.FullName
		}
		if req.IsActive != nil {
			active := *req.IsActive
			profile.User.IsActive = &active
		}
		if err := u.userRepo.Update(ctx, tx, &profile.User); err != nil {
			u.log.Warnf("Failed to update user: %+v", err)
			return err
		}
		return nil
	})
}

// UpdateSchedule replaces the whole weekly template.
func (u *doctorProfileUsecase) UpdateSchedule(ctx context.Context, actor entity.Actor, doctorID uuid.UUID, req *dto.UpdateScheduleRequest) (*dto.DoctorResponse, error) {
	if !policy.CanManageDoctor(actor, doctorID) {
		return nil, ErrAccessDenied
	}

	schedule, err := scheduleFromRequest(req.Schedule)
	if err != nil {
		return nil, err
	}

	return u.mutate(ctx, actor, doctorID, entity.AuditActionScheduleUpdate, func(tx *gorm.DB, profile *entity.DoctorProfile) error {
		profile.Schedule = schedule
		return nil
	})
}

func (u *doctorProfileUsecase) UpdateAvailability(ctx context.Context, actor entity.Actor, doctorID uuid.UUID, req *dto.UpdateAvailabilityRequest) (*dto.DoctorResponse, error) {
	if !policy.CanManageDoctor(actor, doctorID) {
		return nil, ErrAccessDenied
	}

	return u.mutate(ctx, actor, doctorID, entity.AuditActionAvailabilityUpdate, func(tx *gorm.DB, profile *entity.DoctorProfile) error {
		profile.IsAvailable = *req.IsAvailable
		return nil
	})
}

// DeleteDoctor refuses while the doctor has future PENDING or CONFIRMED bookings.
// Family patients are detached with a ledger entry each before the profile goes.
func (u *doctorProfileUsecase) DeleteDoctor(ctx context.Context, actor entity.Actor, doctorID uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrAccessDenied
	}

	return u.transactor.Transaction(ctx, func(tx *gorm.DB) error {
		profile, err := u.findDoctor(ctx, tx, doctorID)
		if err != nil {
			return err
		}

		now := u.now()
		upcoming, err := u.appointmentRepo.CountUpcomingByDoctor(ctx, tx, doctorID, now)
		if err != nil {
			u.log.Warnf("Failed to count upcoming appointments: %+v", err)
			return err
		}
		if upcoming > 0 {
			return ErrDoctorHasUpcomingBookings.WithParams(map[string]interface{}{"upcoming": upcoming})
		}

		patients, err := u.patientProfileRepo.FindByFamilyDoctor(ctx, tx, doctorID)
		if err != nil {
			u.log.Warnf("Failed to find family patients: %+v", err)
			return err
		}
		for i := range patients {
			if _, err := u.assigner.remove(ctx, tx, &patients[i], actor.ID, "Doctor removed from the clinic", now); err != nil {
				return err
			}
		}

		if err := u.doctorProfileRepo.Delete(ctx, tx, doctorID); err != nil {
			u.log.Warnf("Failed to delete doctor profile: %+v", err)
			return err
		}
		if err := u.userRepo.Delete(ctx, tx, doctorID); err != nil {
			u.log.Warnf("Failed to delete user: %+v", err)
			return err
		}

		return u.auditService.Record(ctx, tx, service.AuditEntry{
			Actor:      actor,
			Action:     entity.AuditActionDoctorDelete,
			EntityType: "doctor",
			EntityID:   doctorID.String(),
			OldValue:   converter.DoctorProfileToResponse(profile),
			NewValue:   map[string]interface{}{"detached_patients": len(patients)},
		})
	})
}
