package converter

import (
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
)

// DoctorProfileToResponse converts a DoctorProfile entity to DoctorResponse DTO
func DoctorProfileToResponse(profile *entity.DoctorProfile) *dto.DoctorResponse {
	if profile == nil {
		return nil
	}

	return &dto.DoctorResponse{
		ID:                   profile.UserID,
		Email:                profile.User.Email,
		FullName:             profile.User.FullName,
		LicenseNumber:        profile.LicenseNumber,
		Specialty:            profile.Specialty,
		Biography:            profile.Biography,
		IsAvailable:          profile.IsAvailable,
		ConsultationDuration: profile.ConsultationDuration,
		ConsultationFee:      profile.ConsultationFee,
		MaxFamilyPatients:    profile.MaxFamilyPatients,
		Schedule:             profile.Schedule,
		IsActive:             profile.User.Active(),
		CreatedAt:            profile.CreatedAt,
		UpdatedAt:            profile.UpdatedAt,
	}
}

// DoctorProfilesToResponses converts a slice of DoctorProfile entities to DoctorResponse DTOs
func DoctorProfilesToResponses(profiles []entity.DoctorProfile) []dto.DoctorResponse {
	responses := make([]dto.DoctorResponse, len(profiles))
	for i := range profiles {
		responses[i] = *DoctorProfileToResponse(&profiles[i])
	}
	return responses
}

// ScheduleFromRequest maps the wire schedule onto weekday keys. ok is false when a
// key is not a weekday name.
func ScheduleFromRequest(req map[string]dto.DayScheduleRequest) (entity.WeeklySchedule, string, bool) {
	schedule := make(entity.WeeklySchedule, len(req))
	for key, day := range req {
		weekday, ok := entity.ParseWeekday(key)
		if !ok {
			return nil, key, false
		}
		schedule[weekday] = entity.DaySchedule{Start: day.Start, End: day.End, Enabled: day.Enabled}
	}
	return schedule, "", true
}
