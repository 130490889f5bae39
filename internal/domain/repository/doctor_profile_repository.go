package repository

import (
	"context"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorProfileRepository interface {
	Create(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.DoctorProfile, error)
	FindAll(ctx context.Context, db *gorm.DB, filter entity.DoctorFilter) ([]entity.DoctorProfile, error)
	ExistsByLicense(ctx context.Context, db *gorm.DB, license string, excludeID *uuid.UUID) (bool, error)
	Update(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error
	Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) error
}
