package converter

import (
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO
func AppointmentToResponse(a *entity.Appointment) *dto.AppointmentResponse {
	if a == nil {
		return nil
	}

	return &dto.AppointmentResponse{
		ID:                    a.ID,
		PatientID:             a.PatientID,
		DoctorID:              a.DoctorID,
		DateTime:              a.DateTime,
		EndTime:               a.End(),
		Duration:              a.Duration,
		Status:                string(a.Status),
		DoctorApproved:        a.DoctorApproved,
		DoctorApprovedBy:      a.DoctorApprovedBy,
		DoctorApprovedAt:      a.DoctorApprovedAt,
		AdminApproved:         a.AdminApproved,
		AdminApprovedBy:       a.AdminApprovedBy,
		AdminApprovedAt:       a.AdminApprovedAt,
		DoctorRejectionReason: a.DoctorRejectionReason,
		AdminRejectionReason:  a.AdminRejectionReason,
		Reason:                a.Reason,
		Notes:                 a.Notes,
		Medications:           a.Medications,
		RequestedBy:           a.RequestedBy,
		CancelledBy:           a.CancelledBy,
		CancelledAt:           a.CancelledAt,
		CompletedAt:           a.CompletedAt,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}
}

func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}
