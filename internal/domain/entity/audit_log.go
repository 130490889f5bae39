package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditLog represents a system audit trail entry
type AuditLog struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	ActorRole  string     `gorm:"type:varchar(20)" json:"actor_role,omitempty"`
	Action     string     `gorm:"type:varchar(100);not null;index" json:"action"`
	EntityType string     `gorm:"type:varchar(50);index:idx_audit_entity" json:"entity_type"`
	EntityID   string     `gorm:"type:varchar(64);index:idx_audit_entity" json:"entity_id"`
	Metadata   JSON       `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;index" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// JSON type for GORM JSONB support
type JSON map[string]interface{}

// Value returns json value, implement driver.Valuer interface
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan scan value into Jsonb, implements sql.Scanner interface
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal jsonb value: %v", value)
	}

	result := map[string]interface{}{}
	err := json.Unmarshal(bytes, &result)
	*j = JSON(result)
	return err
}

// Common audit actions
const (
	AuditActionUserLogin          = "user.login"
	AuditActionUserLogout         = "user.logout"
	AuditActionUserRegister       = "user.register"
	AuditActionDoctorCreate       = "doctor.create"
	AuditActionDoctorUpdate       = "doctor.update"
	AuditActionDoctorDelete       = "doctor.delete"
	AuditActionScheduleUpdate     = "doctor.schedule_update"
	AuditActionAvailabilityUpdate = "doctor.availability_update"
	AuditActionPatientCreate      = "patient.create"
	AuditActionPatientUpdate      = "patient.update"
	AuditActionPatientDelete      = "patient.delete"
	AuditActionFamilyDoctorChange = "patient.family_doctor_change"
	AuditActionFDRequestCreate    = "family_doctor_request.create"
	AuditActionFDRequestApprove   = "family_doctor_request.approve"
	AuditActionFDRequestReject    = "family_doctor_request.reject"
	AuditActionAppointmentCreate  = "appointment.create"
	AuditActionAppointmentApprove = "appointment.approve"
	AuditActionAppointmentReject  = "appointment.reject"
	AuditActionAppointmentCancel  = "appointment.cancel"
	AuditActionAppointmentDone    = "appointment.complete"
	AuditActionAppointmentDelete  = "appointment.delete"
	AuditActionAllergyCreate      = "medical_record.allergy_create"
	AuditActionMedicationCreate   = "medical_record.medication_create"
)

// AuditLogFilter narrows audit log listing. Zero values are ignored.
type AuditLogFilter struct {
	UserID     *uuid.UUID
	Action     string
	EntityType string
	EntityID   string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
