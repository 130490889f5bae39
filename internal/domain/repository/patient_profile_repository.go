package repository

import (
	"context"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PatientProfileRepository interface {
	Create(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.PatientProfile, error)
	FindAll(ctx context.Context, db *gorm.DB) ([]entity.PatientProfile, error)
	FindByFamilyDoctor(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) ([]entity.PatientProfile, error)
	CountByFamilyDoctor(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) (int64, error)
	Update(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error
	// UpdateFamilyDoctor writes only the family doctor columns.
	UpdateFamilyDoctor(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error
	Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) error
}
