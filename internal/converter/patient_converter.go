package converter

import (
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// PatientProfileToResponse converts a PatientProfile entity and its preloaded User
func PatientProfileToResponse(profile *entity.PatientProfile) *dto.PatientResponse {
	if profile == nil {
		return nil
	}

	var dob *string
	if profile.DateOfBirth != nil {
		s := profile.DateOfBirth.Format(dateLayout)
		dob = &s
	}

	return &dto.PatientResponse{
		ID:                     profile.UserID,
		Email:                  profile.User.Email,
		FullName:               profile.User.FullName,
		PhoneNumber:            profile.PhoneNumber,
		DateOfBirth:            dob,
		Gender:                 profile.Gender,
		Address:                profile.Address,
		EmergencyContact:       profile.EmergencyContact,
		FamilyDoctorID:         profile.FamilyDoctorID,
		FamilyDoctorAssignedAt: profile.FamilyDoctorAssignedAt,
		IsActive:               profile.User.Active(),
		CreatedAt:              profile.CreatedAt,
		UpdatedAt:              profile.UpdatedAt,
	}
}

func PatientProfilesToResponses(profiles []entity.PatientProfile) []dto.PatientResponse {
	responses := make([]dto.PatientResponse, len(profiles))
	for i := range profiles {
		responses[i] = *PatientProfileToResponse(&profiles[i])
	}
	return responses
}

func FamilyDoctorHistoryToResponses(rows []entity.FamilyDoctorHistory) []dto.FamilyDoctorHistoryResponse {
	responses := make([]dto.FamilyDoctorHistoryResponse, len(rows))
	for i, row := range rows {
		responses[i] = dto.FamilyDoctorHistoryResponse{
			ID:               row.ID,
			PatientID:        row.PatientID,
			PreviousDoctorID: row.PreviousDoctorID,
			NewDoctorID:      row.NewDoctorID,
			ChangeType:       string(row.ChangeType),
			ChangedBy:        row.ChangedBy,
			Reason:           row.Reason,
			ChangedAt:        row.ChangedAt,
		}
	}
	return responses
}
