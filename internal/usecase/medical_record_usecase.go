package usecase

import (
	"context"
	"strings"

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

type MedicalRecordUsecase interface {
	AddAllergy(ctx context.Context, actor entity.Actor, patientID uuid.UUID, req *dto.CreateAllergyRequest) (*dto.AllergyResponse, error)
	ListAllergies(ctx context.Context, actor entity.Actor, patientID uuid.UUID) (*dto.AllergyListResponse, error)
	AddMedication(ctx context.Context, actor entity.Actor, patientID uuid.UUID, req *dto.CreateMedicationRequest) (*dto.MedicationResponse, error)
	ListMedications(ctx context.Context, actor entity.Actor, patientID uuid.UUID) (*dto.MedicationListResponse, error)
	CanPrescribe(ctx context.Context, actor entity.Actor, patientID uuid.UUID, medication string) (*dto.CanPrescribeResponse, error)
}

type medicalRecordUsecase struct {
	log                *logrus.Logger
	transactor         repository.Transactor
	patientProfileRepo repository.PatientProfileRepository
	allergyRepo        repository.AllergyRepository
	medicationRepo     repository.MedicationRepository
	auditService       service.AuditService
}

func NewMedicalRecordUsecase(
	log *logrus.Logger,
	transactor repository.Transactor,
	patientProfileRepo repository.PatientProfileRepository,
	allergyRepo repository.AllergyRepository,
	medicationRepo repository.MedicationRepository,
	auditService service.AuditService,
) MedicalRecordUsecase {
	return &medicalRecordUsecase{
		log:                log,
		transactor:         transactor,
		patientProfileRepo: patientProfileRepo,
		allergyRepo:        allergyRepo,
		medicationRepo:     medicationRepo,
		auditService:       auditService,
	}
}

// readablePatient applies the same can-view rule as the patient directory.
func (u *medicalRecordUsecase) readablePatient(ctx context.Context, db *gorm.DB, actor entity.Actor, patientID uuid.UUID) (*entity.PatientProfile, error) {
	patient, err := u.patientProfileRepo.FindByID(ctx, db, patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient profile: %+v", err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}
	if !policy.CanViewPatient(actor, patient) {
		return nil, ErrAccessDenied
	}
	return patient, nil
}

func (u *medicalRecordUsecase) writablePatient(ctx context.Context, tx *gorm.DB, actor entity.Actor, patientID uuid.UUID) error {
	patient, err := u.patientProfileRepo.FindByID(ctx, tx, patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient profile: %+v", err)
		return err
	}
	if patient == nil {
		return ErrPatientNotFound
	}
	if !policy.CanWriteMedicalRecord(actor, patient) {
		return ErrAccessDenied
	}
	return nil
}

func (u *medicalRecordUsecase) AddAllergy(ctx context.Context, actor entity.Actor, patientID uuid.UUID, req *dto.CreateAllergyRequest) (*dto.AllergyResponse, error) {
	allergy := &entity.Allergy{
		PatientID:  patientID,
		Allergen:   strings.TrimSpace(req.Allergen),
		Type:       entity.AllergyType(strings.ToUpper(req.Type)),
		Severity:   entity.AllergySeverity(strings.ToUpper(req.Severity)),
		Reaction:   req.Reaction,
		RecordedBy: actor.ID,
	}

	err := u.transactor.Transaction(ctx, func(tx *gorm.DB) error {
		if err := u.writablePatient(ctx, tx, actor, patientID); err != nil {
			return err
		}
		if err := u.allergyRepo.Create(ctx, tx, allergy); err != nil {
			u.log.Warnf("Failed to create allergy: %+v", err)
			return err
		}
		return u.auditService.Record(ctx, tx, service.AuditEntry{
			Actor:      actor,
			Action:     entity.AuditActionAllergyCreate,
			EntityType: "allergy",
			EntityID:   allergy.ID.String(),
			NewValue:   converter.AllergyToResponse(allergy),
		})
	})
	if err != nil {
		return nil, err
	}

	res := converter.AllergyToResponse(allergy)
	return &res, nil
}

func (u *medicalRecordUsecase) ListAllergies(ctx context.Context, actor entity.Actor, patientID uuid.UUID) (*dto.AllergyListResponse, error) {
	db := u.transactor.Conn(ctx)
	if _, err := u.readablePatient(ctx, db, actor, patientID); err != nil {
		return nil, err
	}

	allergies, err := u.allergyRepo.FindByPatient(ctx, db, patientID)
	if err != nil {
		u.log.Warnf("Failed to find allergies: %+v", err)
		return nil, err
	}

	responses := converter.AllergiesToResponses(allergies)
	return &dto.AllergyListResponse{Allergies: responses, Total: len(responses)}, nil
}

func (u *medicalRecordUsecase) checkPrescription(ctx context.Context, db *gorm.DB, patientID uuid.UUID, medication string) (policy.PrescriptionCheck, error) {
	allergies, err := u.allergyRepo.FindByPatientAndType(ctx, db, patientID, entity.AllergyTypeMedication)
	if err != nil {
		u.log.Warnf("Failed to find medication allergies: %+v", err)
		return policy.PrescriptionCheck{}, err
	}
	return policy.CheckPrescription(medication, allergies), nil
}

// AddMedication consults the allergy guard. A blocking match is refused unless the
// prescriber sets Override, in which case the medication is stored flagged.
func (u *medicalRecordUsecase) AddMedication(ctx context.Context, actor entity.Actor, patientID uuid.UUID, req *dto.CreateMedicationRequest) (*dto.MedicationResponse, error) {
	medication := &entity.Medication{
		PatientID:    patientID,
		Name:         strings.TrimSpace(req.Name),
		Dosage:       req.Dosage,
		Frequency:    req.Frequency,
		PrescribedBy: actor.ID,
		Notes:        req.Notes,
	}

	var check policy.PrescriptionCheck
	err := u.transactor.Transaction(ctx, func(tx *gorm.DB) error {
		if err := u.writablePatient(ctx, tx, actor, patientID); err != nil {
			return err
		}

		var err error
		check, err = u.checkPrescription(ctx, tx, patientID, medication.Name)
		if err != nil {
			return err
		}
		if check.Blocked() {
			if !req.Override {
				allergens := make([]string, len(check.Matches))
				for i, m := range check.Matches {
					allergens[i] = m.Allergen
				}
				return ErrSevereAllergyConflict.WithMessage(check.Warning).WithParams(map[string]interface{}{
					"medication": medication.Name,
					"allergens":  allergens,
				})
			}
			medication.AllergyOverride = true
		}

		if err := u.medicationRepo.Create(ctx, tx, medication); err != nil {
			u.log.Warnf("Failed to create medication: %+v", err)
			return err
		}

		return u.auditService.Record(ctx, tx, service.AuditEntry{
			Actor:      actor,
			Action:     entity.AuditActionMedicationCreate,
			EntityType: "medication",
			EntityID:   medication.ID.String(),
			NewValue:   converter.MedicationToResponse(medication, check.Warning),
		})
	})
	if err != nil {
		return nil, err
	}

	if medication.AllergyOverride {
		u.log.WithFields(logrus.Fields{
			"patient_id":    patientID,
			"medication":    medication.Name,
			"prescribed_by": actor.ID,
		}).Warn("Medication prescribed over a severe allergy")
	}

	res := converter.MedicationToResponse(medication, check.Warning)
	return &res, nil
}

func (u *medicalRecordUsecase) ListMedications(ctx context.Context, actor entity.Actor, patientID uuid.UUID) (*dto.MedicationListResponse, error) {
	db := u.transactor.Conn(ctx)
	if _, err := u.readablePatient(ctx, db, actor, patientID); err != nil {
		return nil, err
	}

	medications, err := u.medicationRepo.FindByPatient(ctx, db, patientID)
	if err != nil {
		u.log.Warnf("Failed to find medications: %+v", err)
		return nil, err
	}

	responses := converter.MedicationsToResponses(medications)
	return &dto.MedicationListResponse{Medications: responses, Total: len(responses)}, nil
}

func (u *medicalRecordUsecase) CanPrescribe(ctx context.Context, actor entity.Actor, patientID uuid.UUID, medication string) (*dto.CanPrescribeResponse, error) {
	db := u.transactor.Conn(ctx)
	if _, err := u.readablePatient(ctx, db, actor, patientID); err != nil {
		return nil, err
	}

	check, err := u.checkPrescription(ctx, db, patientID, medication)
	if err != nil {
		return nil, err
	}

	res := &dto.CanPrescribeResponse{
		CanPrescribe: check.CanPrescribe,
		Warning:      check.Warning,
	}
	if len(check.Matches) > 0 {
		res.Matches = converter.AllergiesToResponses(check.Matches)
	}
	return res, nil
}
