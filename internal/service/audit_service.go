package service

import (
	"context"

	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditEntry describes one mutation to record.
type AuditEntry struct {
	Actor      entity.Actor
	Action     string
	EntityType string
	EntityID   string
	OldValue   interface{}
	NewValue   interface{}
}

type AuditService interface {
	// Record writes the entry on tx so it commits or rolls back with the mutation.
	Record(ctx context.Context, tx *gorm.DB, entry AuditEntry) error
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

func (s *auditService) Record(ctx context.Context, tx *gorm.DB, entry AuditEntry) error {
	metadata := entity.JSON{
		"old_value": entry.OldValue,
		"new_value": entry.NewValue,
	}

	auditLog := &entity.AuditLog{
		ActorRole:  entry.Actor.Kind.String(),
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadata,
	}
	if entry.Actor.Kind != 0 {
		id := entry.Actor.ID
		auditLog.UserID = &id
	}

	if err := s.auditRepo.Create(ctx, tx, auditLog); err != nil {
		s.log.Warnf("Failed to create audit log: %+v", err)
		return err
	}

	return nil
}
