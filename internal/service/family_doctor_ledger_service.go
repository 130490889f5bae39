package service

import (
	"context"
	"time"

	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"
	"clinic-management-api/pkg/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LedgerEntry is one family doctor change to append.
type LedgerEntry struct {
	PatientID        uuid.UUID
	PreviousDoctorID *uuid.UUID
	NewDoctorID      *uuid.UUID
	ChangedBy        uuid.UUID
	Reason           string
	ChangedAt        time.Time
}

// FamilyDoctorLedgerService appends family doctor history rows. It never updates
// or deletes them.
type FamilyDoctorLedgerService interface {
	Append(ctx context.Context, tx *gorm.DB, entry LedgerEntry) (*entity.FamilyDoctorHistory, error)
}

type familyDoctorLedgerService struct {
	log         *logrus.Logger
	historyRepo repository.FamilyDoctorHistoryRepository
	metrics     *metrics.Metrics
}

func NewFamilyDoctorLedgerService(log *logrus.Logger, historyRepo repository.FamilyDoctorHistoryRepository, m *metrics.Metrics) FamilyDoctorLedgerService {
	return &familyDoctorLedgerService{
		log:         log,
		historyRepo: historyRepo,
		metrics:     m,
	}
}

// ChangeTypeFor derives the ledger change type from the before and after doctors.
func ChangeTypeFor(previous, next *uuid.UUID) entity.FamilyDoctorChangeType {
	switch {
	case next == nil:
		return entity.FamilyDoctorRemoved
	case previous == nil:
		return entity.FamilyDoctorAssigned
	default:
		return entity.FamilyDoctorChanged
	}
}

func (s *familyDoctorLedgerService) Append(ctx context.Context, tx *gorm.DB, entry LedgerEntry) (*entity.FamilyDoctorHistory, error) {
	row := &entity.FamilyDoctorHistory{
		PatientID:        entry.PatientID,
		PreviousDoctorID: entry.PreviousDoctorID,
		NewDoctorID:      entry.NewDoctorID,
		ChangeType:       ChangeTypeFor(entry.PreviousDoctorID, entry.NewDoctorID),
		ChangedBy:        entry.ChangedBy,
		Reason:           entry.Reason,
		ChangedAt:        entry.ChangedAt,
	}

	if err := s.historyRepo.Append(ctx, tx, row); err != nil {
		s.log.Warnf("Failed to append family doctor history: %+v", err)
		return nil, err
	}

	s.metrics.ObserveFamilyDoctorChange(string(row.ChangeType))
	s.log.WithFields(logrus.Fields{
		"patient_id":  row.PatientID,
		"change_type": row.ChangeType,
		"changed_by":  row.ChangedBy,
	}).Info("Family doctor ledger entry appended")

	return row, nil
}
