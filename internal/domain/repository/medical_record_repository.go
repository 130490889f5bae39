package repository

import (
	"context"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AllergyRepository interface {
	Create(ctx context.Context, db *gorm.DB, allergy *entity.Allergy) error
	FindByPatient(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]entity.Allergy, error)
	FindByPatientAndType(ctx context.Context, db *gorm.DB, patientID uuid.UUID, allergyType entity.AllergyType) ([]entity.Allergy, error)
}

type MedicationRepository interface {
	Create(ctx context.Context, db *gorm.DB, medication *entity.Medication) error
	FindByPatient(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]entity.Medication, error)
}
