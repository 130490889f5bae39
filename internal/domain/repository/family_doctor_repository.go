package repository

import (
	"context"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FamilyDoctorRequestRepository interface {
	Create(ctx context.Context, db *gorm.DB, request *entity.FamilyDoctorRequest) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.FamilyDoctorRequest, error)
	FindAll(ctx context.Context, db *gorm.DB, filter entity.FamilyDoctorRequestFilter) ([]entity.FamilyDoctorRequest, error)
	ExistsPending(ctx context.Context, db *gorm.DB, patientID, doctorID uuid.UUID) (bool, error)
	// Resolve stores the final status only while the row is still PENDING.
	Resolve(ctx context.Context, db *gorm.DB, request *entity.FamilyDoctorRequest) (int64, error)
}

// FamilyDoctorHistoryRepository is append-only.
type FamilyDoctorHistoryRepository interface {
	Append(ctx context.Context, db *gorm.DB, entry *entity.FamilyDoctorHistory) error
	FindByPatient(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]entity.FamilyDoctorHistory, error)
}
