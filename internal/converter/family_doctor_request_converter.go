package converter

import (
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
)

func FamilyDoctorRequestToResponse(r *entity.FamilyDoctorRequest) *dto.FamilyDoctorRequestResponse {
	if r == nil {
		return nil
	}

	return &dto.FamilyDoctorRequestResponse{
		ID:             r.ID,
		PatientID:      r.PatientID,
		DoctorID:       r.DoctorID,
		Status:         string(r.Status),
		RequestReason:  r.RequestReason,
		ResponseReason: r.ResponseReason,
		RequestedAt:    r.RequestedAt,
		RespondedAt:    r.RespondedAt,
		RespondedBy:    r.RespondedBy,
	}
}

func FamilyDoctorRequestsToResponses(requests []entity.FamilyDoctorRequest) []dto.FamilyDoctorRequestResponse {
	responses := make([]dto.FamilyDoctorRequestResponse, len(requests))
	for i := range requests {
		responses[i] = *FamilyDoctorRequestToResponse(&requests[i])
	}
	return responses
}
