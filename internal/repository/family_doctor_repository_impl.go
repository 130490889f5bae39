package repository

import (
	"context"
	"errors"

	"clinic-management-api/internal/domain/entity"
	domainRepo "clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type familyDoctorRequestRepository struct{}

func NewFamilyDoctorRequestRepository() domainRepo.FamilyDoctorRequestRepository {
	return &familyDoctorRequestRepository{}
}

func (r *familyDoctorRequestRepository) Create(ctx context.Context, db *gorm.DB, request *entity.FamilyDoctorRequest) error {
	return db.WithContext(ctx).Create(request).Error
}

func (r *familyDoctorRequestRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.FamilyDoctorRequest, error) {
	var request entity.FamilyDoctorRequest
	err := db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *familyDoctorRequestRepository) FindAll(ctx context.Context, db *gorm.DB, filter entity.FamilyDoctorRequestFilter) ([]entity.FamilyDoctorRequest, error) {
	var requests []entity.FamilyDoctorRequest
	query := db.WithContext(ctx)
	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.DoctorID != nil {
		query = query.Where("doctor_id = ?", *filter.DoctorID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	err := query.Order("requested_at DESC").Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *familyDoctorRequestRepository) ExistsPending(ctx context.Context, db *gorm.DB, patientID, doctorID uuid.UUID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&entity.FamilyDoctorRequest{}).
		Where("patient_id = ? AND doctor_id = ? AND status = ?", patientID, doctorID, entity.FamilyDoctorRequestPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *familyDoctorRequestRepository) Resolve(ctx context.Context, db *gorm.DB, request *entity.FamilyDoctorRequest) (int64, error) {
	result := db.WithContext(ctx).Model(&entity.FamilyDoctorRequest{}).
		Where("id = ? AND status = ?", request.ID, entity.FamilyDoctorRequestPending).
		Updates(map[string]interface{}{
			"status":          request.Status,
			"response_reason": request.ResponseReason,
			"responded_at":    request.RespondedAt,
			"responded_by":    request.RespondedBy,
		})
	return result.RowsAffected, result.Error
}

type familyDoctorHistoryRepository struct{}

func NewFamilyDoctorHistoryRepository() domainRepo.FamilyDoctorHistoryRepository {
	return &familyDoctorHistoryRepository{}
}

func (r *familyDoctorHistoryRepository) Append(ctx context.Context, db *gorm.DB, entry *entity.FamilyDoctorHistory) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *familyDoctorHistoryRepository) FindByPatient(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]entity.FamilyDoctorHistory, error) {
	var entries []entity.FamilyDoctorHistory
	err := db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("changed_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
