package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultConsultationDuration = 30

// DoctorProfile represents doctor-specific profile data. UserID doubles as the doctor id.
type DoctorProfile struct {
	UserID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"user_id"`
	LicenseNumber        string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"license_number"`
	Specialty            string          `gorm:"type:varchar(100);not null;index" json:"specialty"`
	Biography            string          `gorm:"type:text" json:"biography,omitempty"`
	IsAvailable          bool            `gorm:"not null;default:true" json:"is_available"`
	ConsultationDuration int             `gorm:"not null;default:30" json:"consultation_duration"`
	ConsultationFee      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"consultation_fee"`
	MaxFamilyPatients    *int            `json:"max_family_patients,omitempty"`
	Schedule             WeeklySchedule  `gorm:"type:jsonb;not null" json:"schedule"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (DoctorProfile) TableName() string {
	return "doctor_profiles"
}

// HasCapacityFor reports whether one more family patient fits under the cap.
func (d *DoctorProfile) HasCapacityFor(currentPatients int64) bool {
	if d.MaxFamilyPatients == nil {
		return true
	}
	return currentPatients < int64(*d.MaxFamilyPatients)
}
