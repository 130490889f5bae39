package repository

import (
	"context"
	"time"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	FindAll(ctx context.Context, db *gorm.DB, filter entity.AppointmentFilter) ([]entity.Appointment, error)
	// FindOverlapping returns the doctor's PENDING or CONFIRMED appointments
	// intersecting [start, end).
	FindOverlapping(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, start, end time.Time) ([]entity.Appointment, error)
	CountUpcomingByDoctor(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, after time.Time) (int64, error)
	// ApplyChange runs the guarded update and returns the number of rows touched.
	ApplyChange(ctx context.Context, db *gorm.DB, id uuid.UUID, change *entity.AppointmentChange) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) (int64, error)
}
