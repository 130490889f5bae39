package dto

import (
	"time"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
)

type AuditLogQuery struct {
	UserID     *uuid.UUID
	Action     string
	EntityType string
	EntityID   string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// Response DTOs

type AuditLogResponse struct {
	ID         int64         `json:"id"`
	User       *UserResponse `json:"user,omitempty"`
	ActorRole  string        `json:"actor_role,omitempty"`
	Action     string        `json:"action"`
	EntityType string        `json:"entity_type"`
	EntityID   string        `json:"entity_id"`
	Metadata   entity.JSON   `json:"metadata"`
	CreatedAt  time.Time     `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs   []AuditLogResponse `json:"logs"`
	Total  int64              `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}
