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
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type PatientProfileUsecase interface {
	CreatePatient(ctx context.Context, actor entity.Actor, req *dto.CreatePatientRequest) (*dto.PatientResponse, error)
	RegisterPatient(ctx context.Context, req *dto.RegisterPatientRequest) (*dto.PatientResponse, error)
	GetPatient(ctx context.Context, actor entity.Actor, patientID uuid.UUID) (*dto.PatientResponse, error)
	ListPatients(ctx context.Context, actor entity.Actor) (*dto.PatientListResponse, error)
	UpdatePatient(ctx context.Context, actor entity.Actor, patientID uuid.UUID, req *dto.UpdatePatientRequest) (*dto.PatientResponse, error)
	DeletePatient(ctx context.Context, actor entity.Actor, patientID uuid.UUID) error

	IsFamilyDoctor(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error)
	GetFamilyDoctor(ctx context.Context, actor entity.Actor, patientID uuid.UUID) (*dto.DoctorResponse, error)
	AssignFamilyDoctor(ctx context.Context, actor entity.Actor, patientID uuid.UUID, req *dto.AssignFamilyDoctorRequest) (*dto.PatientResponse, error)
	ChangeFamilyDoctor(ctx context.Context, actor entity.Actor, patientID uuid.UUID, req *dto.AssignFamilyDoctorRequest) (*dto.PatientResponse, error)
	RemoveFamilyDoctor(ctx context.Context, actor entity.Actor, patientID uuid.UUID, req *dto.RemoveFamilyDoctorRequest) (*dto.PatientResponse, error)
	GetFamilyDoctorHistory(ctx context.Context, actor entity.Actor, patientID uuid.UUID) (*dto.FamilyDoctorHistoryListResponse, error)
}

type patientProfileUsecase struct {
	log                *logrus.Logger
	transactor         repository.Transactor
	userRepo           repository.UserRepository
	patientProfileRepo repository.PatientProfileRepository
	doctorProfileRepo  repository.DoctorProfileRepository
	historyRepo        repository.FamilyDoctorHistoryRepository
	auditService       service.AuditService
	assigner           *familyDoctorAssigner
	now                func() time.Time
}

func NewPatientProfileUsecase(
	log *logrus.Logger,
	transactor repository.Transactor,
	userRepo repository.UserRepository,
	patientProfileRepo repository.PatientProfileRepository,
	doctorProfileRepo repository.DoctorProfileRepository,
	historyRepo repository.FamilyDoctorHistoryRepository,
	auditService service.AuditService,
	ledger service.FamilyDoctorLedgerService,
) PatientProfileUsecase {
	return &patientProfileUsecase{
		log:                log,
		transactor:         transactor,
		userRepo:           userRepo,
		patientProfileRepo: patientProfileRepo,
		doctorProfileRepo:  doctorProfileRepo,
		historyRepo:        historyRepo,
		auditService:       auditService,
		assigner: &familyDoctorAssigner{
			log:                log,
			patientProfileRepo: patientProfileRepo,
			ledger:             ledger,
		},
		now: time.Now,
	}
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	return &t, nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// createUser inserts a login with the given role, mapping the unique email index
// to a Conflict.
func createUser(ctx context.Context, tx *gorm.DB, log *logrus.Logger, userRepo repository.UserRepository, email, password, fullName string, roleID int) (*entity.User, error) {
	hashed, err := hashPassword(password)
	if err != nil {
		log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	user := &entity.User{
		Email:    strings.TrimSpace(email),
		Password: hashed,
		FullName: fullName,
		RoleID:   roleID,
	}
	if err := userRepo.Create(ctx, tx, user); err != nil {
		if isDuplicateKeyError(err, "email") {
			return nil, ErrEmailAlreadyExists.WithParams(map[string]interface{}{"email": user.Email})
		}
		log.Warnf("Failed to create user: %+v", err)
		return nil, err
	}
	return user, nil
}

// =============================================================================
// Directory
// =============================================================================

// CreatePatient attaches a profile to an existing patient user when UserID is set,
// otherwise it creates the user and the profile in one transaction.
func (u *patientProfileUsecase) CreatePatient(ctx context.Context, actor entity.Actor, req *dto.CreatePatientRequest) (*dto.PatientResponse, error) {
	if !policy.CanManagePatients(actor) {
		return nil, ErrAccessDenied
	}

	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return nil, err
	}

	profile := &entity.PatientProfile{
		PhoneNumber:      req.PhoneNumber,
		DateOfBirth:      dob,
		Gender:           req.Gender,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
	}

	err = u.transactor.Transaction(ctx, func(tx *gorm.DB) error {
		var user *entity.User
		if req.UserID != nil {
			user, err = u.attachableUser(ctx, tx, *req.UserID)
		} else {
			user, err = createUser(ctx, tx, u.log, u.userRepo, req.Email, req.Password, req.FullName, entity.RoleIDPatient)
		}
		if err != nil {
			return err
		}

		profile.UserID = user.ID
		if err := u.patientProfileRepo.Create(ctx, tx, profile); err != nil {
			if isDuplicateKeyError(err, "patient_profiles_pkey") {
				return ErrPatientProfileExists
			}
			u.log.Warnf("Failed to create patient profile: %+v", err)
			return err
		}
		profile.User = *user

		return u.auditService.Record(ctx, tx, service.AuditEntry{
			Actor:      actor,
			Action:     entity.AuditActionPatientCreate,
			EntityType: "patient",
			EntityID:   profile.UserID.String(),
			NewValue:   converter.PatientProfileToResponse(profile),
		})
	})
	if err != nil {
		return nil, err
	}

	return converter.PatientProfileToResponse(profile), nil
}

func (u *patientProfileUsecase) attachableUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*entity.User, error) {
	user, err := u.userRepo.FindByID(ctx, tx, userID)
	if err != nil {
		u.log.Warnf("Failed to find user: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.RoleID != entity.RoleIDPatient {
		return nil, ErrNotPatientUser
	}

	existing, err := u.patientProfileRepo.FindByID(ctx, tx, userID)
	if err != nil {
		u.log.Warnf("Failed to find patient profile: %+v", err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrPatientProfileExists
	}
	return user, nil
}

// RegisterPatient is the public sign-up. It always creates a new user.
func (u *patientProfileUsecase) RegisterPatient(ctx context.Context, req *dto.RegisterPatientRequest) (*dto.PatientResponse, error) {
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return nil, err
	}

	var profile *entity.PatientProfile
	err = u.transactor.Transaction(ctx, func(tx *gorm.DB) error {
		user, err := createUser(ctx, tx, u.log, u.userRepo, req.Email, req.Password, req.FullName, entity.RoleIDPatient)
		if err != nil {
			return err
		}

		profile = &entity.PatientProfile{
			UserID:           user.ID,
			PhoneNumber:      req.PhoneNumber,
			DateOfBirth:      dob,
			Gender:           req.Gender,
			Address:          req.Address,
			EmergencyContact: req.EmergencyContact,
		}
		if err := u.patientProfileRepo.Create(ctx, tx, profile); err != nil {
			u.log.Warnf("Failed to create patient profile: %+v", err)
			return err
		}
		profile.User = *user

		return u.auditService.Record(ctx, tx, service.AuditEntry{
			Actor:      entity.PatientActor(user.ID),
			Action:     entity.AuditActionUserRegister,
			EntityType: "patient",
			EntityID:   user.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	u.log.WithField("patient_id", profile.UserID).Info("Patient registered")
	return converter.PatientProfileToResponse(profile), nil
}

func (u *patientProfileUsecase) findPatient(ctx context.Context, db *gorm.DB, patientID uuid.UUID) (*entity.PatientProfile, error) {
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

// viewablePatient loads the patient and applies the can-view guard.
func (u *patientProfileUsecase) viewablePatient(ctx context.Context, actor entity.Actor, patientID uuid.UUID) (*entity.PatientProfile, error) {
	patient, err := u.findPatient(ctx, u.transactor.Conn(ctx), patientID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewPatient(actor, patient) {
		return nil, ErrAccessDenied
	}
	return patient, nil
}

func (u *patientProfileUsecase) GetPatient(ctx context.Context, actor entity.Actor, patientID uuid.UUID) (*dto.PatientResponse, error) {
	patient, err := u.viewablePatient(ctx, actor, patientID)
	if err != nil {
		return nil, err
	}
	return converter.PatientProfileToResponse(patient), nil
}

// ListPatients returns every patient to admins and a doctor's own family patients
// to doctors. Patients only see themselves.
func (u *patientProfileUsecase) ListPatients(ctx context.Context, actor entity.Actor) (*dto.PatientListResponse, error) {
	db := u.transactor.Conn(ctx)

	var (
		profiles []entity.PatientProfile
		err      error
	)
	switch {
	case actor.IsAdmin():
		profiles, err = u.patientProfileRepo.FindAll(ctx, db)
	case actor.IsDoctor():
		profiles, err = u.patientProfileRepo.FindByFamilyDoctor(ctx, db, actor.ID)
	case actor.IsPatient():
		var self *entity.PatientProfile
		self, err = u.findPatient(ctx, db, actor.ID)
		if self != nil {
			profiles = []entity.PatientProfile{*self}
		}
	default:
		return nil, ErrAccessDenied
	}
	if err != nil {
		return nil, err
	}

	patients := converter.PatientProfilesToResponses(profiles)
	return &dto.PatientListResponse{
		Patients: patients,
		Total:    len(patients),
	}, nil
}

// UpdatePatient edits profile fields only. Family doctor fields have their own operations.
func (u *patientProfileUsecase) UpdatePatient(ctx context.Context, actor entity.Actor, patientID uuid.UUID, req *dto.UpdatePatientRequest) (*dto.PatientResponse, error) {
	if !policy.CanUpdatePatient(actor, patientID) {
		return nil, ErrAccessDenied
	}

	var patient *entity.PatientProfile
	err := u.transactor.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		patient, err = u.findPatient(ctx, tx, patientID)
		if err != nil {
			return err
		}
		before := converter.PatientProfileToResponse(patient)

		if req.PhoneNumber != nil {
			patient.PhoneNumber = *req.PhoneNumber
		}
		if req.DateOfBirth != nil {
			dob, err := parseDate(*req.DateOfBirth)
			if err != nil {
				return err
			}
			patient.DateOfBirth = dob
		}
		if req.Gender != nil {
			patient.Gender = *req.Gender
		}
		if req.Address != nil {
			patient.Address = *req.Address
		}
		if req.EmergencyContact != nil {
			patient.EmergencyContact = *req.EmergencyContact
		}

		if err := u.patientProfileRepo.Update(ctx, tx, patient); err != nil {
			u.log.Warnf("Failed to update patient profile: %+v", err)
			return err
		}

		if req.FullName != nil && *req.FullName != patient.User.FullName {
			patient.User.FullName = *req.FullName
			if err := u.userRepo.Update(ctx, tx, &patient.User); err != nil {
				u.log.Warnf("Failed to update user: %+v", err)
				return err
			}
		}

		return u.auditService.Record(ctx, tx, service.AuditEntry{
			Actor:      actor,
			Action:     entity.AuditActionPatientUpdate,
			EntityType: "patient",
			EntityID:   patientID.String(),
			OldValue:   before,
			NewValue:   converter.PatientProfileToResponse(patient),
		})
	})
	if err != nil {
		return nil, err
	}

	return converter.PatientProfileToResponse(patient), nil
}

// DeletePatient removes the profile together with its login.
func (u *patientProfileUsecase) DeletePatient(ctx context.Context, actor entity.Actor, patientID uuid.UUID) error {
	if !policy.CanManagePatients(actor) {
		return ErrAccessDenied
	}

	return u.transactor.Transaction(ctx, func(tx *gorm.DB) error {
		patient, err := u.findPatient(ctx, tx, patientID)
		if err != nil {
			return err
		}

		if err := u.patientProfileRepo.Delete(ctx, tx, patientID); err != nil {
			u.log.Warnf("Failed to delete patient profile: %+v", err)
			return err
		}
		if err := u.userRepo.Delete(ctx, tx, patientID); err != nil {
			u.log.Warnf("Failed to delete user: %+v", err)
			return err
		}

		return u.auditService.Record(ctx, tx, service.AuditEntry{
			Actor:      actor,
			Action:     entity.AuditActionPatientDelete,
			EntityType: "patient",
			EntityID:   patientID.String(),
			OldValue:   converter.PatientProfileToResponse(patient),
		})
	})
}

// =============================================================================
// Family doctor
// =============================================================================

func (u *patientProfileUsecase) IsFamilyDoctor(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error) {
	patient, err := u.findPatient(ctx, u.transactor.Conn(ctx), patientID)
	if err != nil {
		return false, err
	}
	return patient.IsFamilyDoctor(doctorID), nil
}

// GetFamilyDoctor returns nil when the patient has no family doctor.
func (u *patientProfileUsecase) GetFamilyDoctor(ctx context.Context, actor entity.Actor, patientID uuid.UUID) (*dto.DoctorResponse, error) {
	patient, err := u.viewablePatient(ctx, actor, patientID)
	if err != nil {
		return nil, err
	}
	if !patient.HasFamilyDoctor() {
		return nil, nil
	}

	doctor, err := u.doctorProfileRepo.FindByID(ctx, u.transactor.Conn(ctx), *patient.FamilyDoctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile: %+v", err)
		return nil, err
	}
	return converter.DoctorProfileToResponse(doctor), nil
}

func (u *patientProfileUsecase) AssignFamilyDoctor(ctx context.Context, actor entity.Actor, patientID uuid.UUID, req *dto.AssignFamilyDoctorRequest) (*dto.PatientResponse, error) {
	return u.mutateFamilyDoctor(ctx, actor, patientID, func(tx *gorm.DB, patient *entity.PatientProfile) error {
		return u.assign(ctx, tx, actor, patient, req.DoctorID, req.Reason)
	})
}

// ChangeFamilyDoctor requires a current family doctor different from the new one.
func (u *patientProfileUsecase) ChangeFamilyDoctor(ctx context.Context, actor entity.Actor, patientID uuid.UUID, req *dto.AssignFamilyDoctorRequest) (*dto.PatientResponse, error) {
	return u.mutateFamilyDoctor(ctx, actor, patientID, func(tx *gorm.DB, patient *entity.PatientProfile) error {
		if !patient.HasFamilyDoctor() {
			return ErrNoFamilyDoctor
		}
		return u.assign(ctx, tx, actor, patient, req.DoctorID, req.Reason)
	})
}

func (u *patientProfileUsecase) RemoveFamilyDoctor(ctx context.Context, actor entity.Actor, patientID uuid.UUID, req *dto.RemoveFamilyDoctorRequest) (*dto.PatientResponse, error) {
	return u.mutateFamilyDoctor(ctx, actor, patientID, func(tx *gorm.DB, patient *entity.PatientProfile) error {
		if !patient.HasFamilyDoctor() {
			return ErrNoFamilyDoctor
		}
		_, err := u.assigner.remove(ctx, tx, patient, actor.ID, req.Reason, u.now())
		return err
	})
}

func (u *patientProfileUsecase) assign(ctx context.Context, tx *gorm.DB, actor entity.Actor, patient *entity.PatientProfile, doctorID uuid.UUID, reason string) error {
	if patient.IsFamilyDoctor(doctorID) {
		return ErrSameFamilyDoctor
	}

	doctor, err := u.doctorProfileRepo.FindByID(ctx, tx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile: %+v", err)
		return err
	}
	if doctor == nil {
		return ErrDoctorNotFound
	}

	_, err = u.assigner.assign(ctx, tx, patient, doctorID, actor.ID, reason, u.now())
	return err
}

// mutateFamilyDoctor wraps the admin-only family doctor operations: it loads the
// patient in a transaction, runs apply and audits the before and after pointers.
func (u *patientProfileUsecase) mutateFamilyDoctor(ctx context.Context, actor entity.Actor, patientID uuid.UUID, apply func(tx *gorm.DB, patient *entity.PatientProfile) error) (*dto.PatientResponse, error) {
	if !policy.CanManagePatients(actor) {
		return nil, ErrAccessDenied
	}

	var patient *entity.PatientProfile
	err := u.transactor.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		patient, err = u.findPatient(ctx, tx, patientID)
		if err != nil {
			return err
		}
		previous := patient.FamilyDoctorID

		if err := apply(tx, patient); err != nil {
			return err
		}

		return u.auditService.Record(ctx, tx, service.AuditEntry{
			Actor:      actor,
			Action:     entity.AuditActionFamilyDoctorChange,
			EntityType: "patient",
			EntityID:   patientID.String(),
			OldValue:   map[string]interface{}{"family_doctor_id": previous},
			NewValue:   map[string]interface{}{"family_doctor_id": patient.FamilyDoctorID},
		})
	})
	if err != nil {
		return nil, err
	}

	return converter.PatientProfileToResponse(patient), nil
}

func (u *patientProfileUsecase) GetFamilyDoctorHistory(ctx context.Context, actor entity.Actor, patientID uuid.UUID) (*dto.FamilyDoctorHistoryListResponse, error) {
	if _, err := u.viewablePatient(ctx, actor, patientID); err != nil {
		return nil, err
	}

	rows, err := u.historyRepo.FindByPatient(ctx, u.transactor.Conn(ctx), patientID)
	if err != nil {
		u.log.Warnf("Failed to find family doctor history: %+v", err)
		return nil, err
	}

	history := converter.FamilyDoctorHistoryToResponses(rows)
	return &dto.FamilyDoctorHistoryListResponse{
		History: history,
		Total:   len(history),
	}, nil
}
