package converter

import (
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
)

func AllergyToResponse(a *entity.Allergy) dto.AllergyResponse {
	return dto.AllergyResponse{
		ID:         a.ID,
		PatientID:  a.PatientID,
		Allergen:   a.Allergen,
		Type:       string(a.Type),
		Severity:   string(a.Severity),
		Reaction:   a.Reaction,
		RecordedBy: a.RecordedBy,
		CreatedAt:  a.CreatedAt,
	}
}

func AllergiesToResponses(allergies []entity.Allergy) []dto.AllergyResponse {
	responses := make([]dto.AllergyResponse, len(allergies))
	for i := range allergies {
		responses[i] = AllergyToResponse(&allergies[i])
	}
	return responses
}

func MedicationToResponse(m *entity.Medication, warning string) dto.MedicationResponse {
	return dto.MedicationResponse{
		ID:              m.ID,
		PatientID:       m.PatientID,
		Name:            m.Name,
		Dosage:          m.Dosage,
		Frequency:       m.Frequency,
		PrescribedBy:    m.PrescribedBy,
		AllergyOverride: m.AllergyOverride,
		Notes:           m.Notes,
		Warning:         warning,
		CreatedAt:       m.CreatedAt,
	}
}

func MedicationsToResponses(medications []entity.Medication) []dto.MedicationResponse {
	responses := make([]dto.MedicationResponse, len(medications))
	for i := range medications {
		responses[i] = MedicationToResponse(&medications[i], "")
	}
	return responses
}
