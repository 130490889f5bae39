package usecase

import (
	"context"
	"time"

	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"
	"clinic-management-api/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// familyDoctorAssigner moves a patient's family doctor pointer and appends the
// matching ledger row on the same transaction. Patient management and request
// approval both go through it.
type familyDoctorAssigner struct {
	log                *logrus.Logger
	patientProfileRepo repository.PatientProfileRepository
	ledger             service.FamilyDoctorLedgerService
}

func (a *familyDoctorAssigner) assign(ctx context.Context, tx *gorm.DB, patient *entity.PatientProfile, doctorID, actorID uuid.UUID, reason string, at time.Time) (*entity.FamilyDoctorHistory, error) {
	previous := patient.FamilyDoctorID
	patient.SetFamilyDoctor(doctorID, at)

	if err := a.patientProfileRepo.UpdateFamilyDoctor(ctx, tx, patient); err != nil {
		a.log.Warnf("Failed to update family doctor: %+v", err)
		return nil, err
	}

	next := doctorID
	return a.ledger.Append(ctx, tx, service.LedgerEntry{
		PatientID:        patient.UserID,
		PreviousDoctorID: previous,
		NewDoctorID:      &next,
		ChangedBy:        actorID,
		Reason:           reason,
		ChangedAt:        at,
	})
}

func (a *familyDoctorAssigner) remove(ctx context.Context, tx *gorm.DB, patient *entity.PatientProfile, actorID uuid.UUID, reason string, at time.Time) (*entity.FamilyDoctorHistory, error) {
	previous := patient.FamilyDoctorID
	patient.ClearFamilyDoctor()

	if err := a.patientProfileRepo.UpdateFamilyDoctor(ctx, tx, patient); err != nil {
		a.log.Warnf("Failed to clear family doctor: %+v", err)
		return nil, err
	}

	return a.ledger.Append(ctx, tx, service.LedgerEntry{
		PatientID:        patient.UserID,
		PreviousDoctorID: previous,
		ChangedBy:        actorID,
		Reason:           reason,
		ChangedAt:        at,
	})
}
