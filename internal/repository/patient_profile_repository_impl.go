package repository

import (
	"context"
	"errors"

	"clinic-management-api/internal/domain/entity"
	domainRepo "clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type patientProfileRepository struct{}

func NewPatientProfileRepository() domainRepo.PatientProfileRepository {
	return &patientProfileRepository{}
}

func (r *patientProfileRepository) Create(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error {
	return db.WithContext(ctx).Omit("User").Create(profile).Error
}

func (r *patientProfileRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.PatientProfile, error) {
	var profile entity.PatientProfile
	err := db.WithContext(ctx).Preload("User").Where("user_id = ?", id).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *patientProfileRepository) FindAll(ctx context.Context, db *gorm.DB) ([]entity.PatientProfile, error) {
	var profiles []entity.PatientProfile
	err := db.WithContext(ctx).Preload("User").Order("created_at DESC").Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *patientProfileRepository) FindByFamilyDoctor(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) ([]entity.PatientProfile, error) {
	var profiles []entity.PatientProfile
	err := db.WithContext(ctx).Preload("User").
		Where("family_doctor_id = ?", doctorID).
		Order("family_doctor_assigned_at DESC").
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *patientProfileRepository) CountByFamilyDoctor(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&entity.PatientProfile{}).
		Where("family_doctor_id = ?", doctorID).
		Count(&count).Error
	return count, err
}

func (r *patientProfileRepository) Update(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error {
	return db.WithContext(ctx).Omit("User").Save(profile).Error
}

func (r *patientProfileRepository) UpdateFamilyDoctor(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error {
	return db.WithContext(ctx).Model(&entity.PatientProfile{}).
		Where("user_id = ?", profile.UserID).
		Updates(map[string]interface{}{
			"family_doctor_id":          profile.FamilyDoctorID,
			"family_doctor_assigned_at": profile.FamilyDoctorAssignedAt,
		}).Error
}

func (r *patientProfileRepository) Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	return db.WithContext(ctx).Where("user_id = ?", id).Delete(&entity.PatientProfile{}).Error
}
