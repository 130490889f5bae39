package repository

import (
	"context"

	"clinic-management-api/internal/domain/entity"
	domainRepo "clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type allergyRepository struct{}

func NewAllergyRepository() domainRepo.AllergyRepository {
	return &allergyRepository{}
}

func (r *allergyRepository) Create(ctx context.Context, db *gorm.DB, allergy *entity.Allergy) error {
	return db.WithContext(ctx).Create(allergy).Error
}

func (r *allergyRepository) FindByPatient(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]entity.Allergy, error) {
	var allergies []entity.Allergy
	err := db.WithContext(ctx).Where("patient_id = ?", patientID).Order("created_at DESC").Find(&allergies).Error
	if err != nil {
		return nil, err
	}
	return allergies, nil
}

func (r *allergyRepository) FindByPatientAndType(ctx context.Context, db *gorm.DB, patientID uuid.UUID, allergyType entity.AllergyType) ([]entity.Allergy, error) {
	var allergies []entity.Allergy
	err := db.WithContext(ctx).
		Where("patient_id = ? AND type = ?", patientID, allergyType).
		Find(&allergies).Error
	if err != nil {
		return nil, err
	}
	return allergies, nil
}

type medicationRepository struct{}

func NewMedicationRepository() domainRepo.MedicationRepository {
	return &medicationRepository{}
}

func (r *medicationRepository) Create(ctx context.Context, db *gorm.DB, medication *entity.Medication) error {
	return db.WithContext(ctx).Create(medication).Error
}

func (r *medicationRepository) FindByPatient(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]entity.Medication, error) {
	var medications []entity.Medication
	err := db.WithContext(ctx).Where("patient_id = ?", patientID).Order("created_at DESC").Find(&medications).Error
	if err != nil {
		return nil, err
	}
	return medications, nil
}
