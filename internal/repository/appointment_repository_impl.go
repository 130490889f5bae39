package repository

import (
	"context"
	"errors"
	"time"

	"clinic-management-api/internal/domain/entity"
	domainRepo "clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error {
	return db.WithContext(ctx).Create(appointment).Error
}

func (r *appointmentRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.WithContext(ctx).Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindAll(ctx context.Context, db *gorm.DB, filter entity.AppointmentFilter) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	query := db.WithContext(ctx)
	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.DoctorID != nil {
		query = query.Where("doctor_id = ?", *filter.DoctorID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.From != nil {
		query = query.Where("date_time >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date_time < ?", *filter.To)
	}
	err := query.Order("date_time ASC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindOverlapping(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, start, end time.Time) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.WithContext(ctx).
		Where("doctor_id = ? AND status IN ?", doctorID, entity.ActiveAppointmentStatuses).
		Where("date_time < ? AND end_time > ?", end, start).
		Order("date_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) CountUpcomingByDoctor(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, after time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("doctor_id = ? AND status IN ? AND end_time > ?", doctorID, entity.ActiveAppointmentStatuses, after).
		Count(&count).Error
	return count, err
}

// ApplyChange updates the row only if it still matches what the caller read.
// 0 affected rows means another request moved the appointment first.
func (r *appointmentRepository) ApplyChange(ctx context.Context, db *gorm.DB, id uuid.UUID, change *entity.AppointmentChange) (int64, error) {
	query := db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("id = ? AND status = ?", id, change.ExpectStatus)
	if change.ExpectDoctorApproved != nil {
		query = query.Where("doctor_approved = ?", *change.ExpectDoctorApproved)
	}
	if change.ExpectAdminApproved != nil {
		query = query.Where("admin_approved = ?", *change.ExpectAdminApproved)
	}
	result := query.Updates(change.Updates)
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) (int64, error) {
	result := db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Appointment{})
	return result.RowsAffected, result.Error
}
