package handler

import (
	"net/http"
	"strings"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/usecase"
	"clinic-management-api/pkg/response"
	"clinic-management-api/pkg/validator"
)

type PatientHandler struct {
	patientUsecase usecase.PatientProfileUsecase
	validator      *validator.CustomValidator
}

func NewPatientHandler(patientUsecase usecase.PatientProfileUsecase, validator *validator.CustomValidator) *PatientHandler {
	return &PatientHandler{
		patientUsecase: patientUsecase,
		validator:      validator,
	}
}

func (h *PatientHandler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req dto.CreatePatientRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	patient, err := h.patientUsecase.CreatePatient(r.Context(), actor, &req)
	if err != nil {
		writeError(w, err, "Failed to create patient")
		return
	}

	response.Success(w, http.StatusCreated, "Patient created successfully", patient)
}

func (h *PatientHandler) GetAllPatients(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	patients, err := h.patientUsecase.ListPatients(r.Context(), actor)
	if err != nil {
		writeError(w, err, "Failed to get patients")
		return
	}

	response.Success(w, http.StatusOK, "Patients retrieved successfully", patients)
}

func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	patientID, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	patient, err := h.patientUsecase.GetPatient(r.Context(), actor, patientID)
	if err != nil {
		writeError(w, err, "Failed to get patient")
		return
	}

	response.Success(w, http.StatusOK, "Patient retrieved successfully", patient)
}

func (h *PatientHandler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	patientID, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	var req dto.UpdatePatientRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	patient, err := h.patientUsecase.UpdatePatient(r.Context(), actor, patientID, &req)
	if err != nil {
		writeError(w, err, "Failed to update patient")
		return
	}

	response.Success(w, http.StatusOK, "Patient updated successfully", patient)
}

func (h *PatientHandler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	patientID, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	if err := h.patientUsecase.DeletePatient(r.Context(), actor, patientID); err != nil {
		writeError(w, err, "Failed to delete patient")
		return
	}

	response.Success(w, http.StatusOK, "Patient deleted successfully", nil)
}

func (h *PatientHandler) GetFamilyDoctor(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	patientID, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	doctor, err := h.patientUsecase.GetFamilyDoctor(r.Context(), actor, patientID)
	if err != nil {
		writeError(w, err, "Failed to get family doctor")
		return
	}

	response.Success(w, http.StatusOK, "Family doctor retrieved successfully", doctor)
}

func (h *PatientHandler) AssignFamilyDoctor(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	patientID, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	var req dto.AssignFamilyDoctorRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	patient, err := h.patientUsecase.AssignFamilyDoctor(r.Context(), actor, patientID, &req)
	if err != nil {
		writeError(w, err, "Failed to assign family doctor")
		return
	}

	response.Success(w, http.StatusOK, "Family doctor assigned successfully", patient)
}

func (h *PatientHandler) ChangeFamilyDoctor(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	patientID, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	var req dto.AssignFamilyDoctorRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	patient, err := h.patientUsecase.ChangeFamilyDoctor(r.Context(), actor, patientID, &req)
	if err != nil {
		writeError(w, err, "Failed to change family doctor")
		return
	}

	response.Success(w, http.StatusOK, "Family doctor changed successfully", patient)
}

func (h *PatientHandler) RemoveFamilyDoctor(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	patientID, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	var req dto.RemoveFamilyDoctorRequest
	if !decodeOptional(w, r, h.validator, &req) {
		return
	}

	patient, err := h.patientUsecase.RemoveFamilyDoctor(r.Context(), actor, patientID, &req)
	if err != nil {
		writeError(w, err, "Failed to remove family doctor")
		return
	}

	response.Success(w, http.StatusOK, "Family doctor removed successfully", patient)
}

func (h *PatientHandler) GetFamilyDoctorHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	patientID, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	history, err := h.patientUsecase.GetFamilyDoctorHistory(r.Context(), actor, patientID)
	if err != nil {
		writeError(w, err, "Failed to get family doctor history")
		return
	}

	response.Success(w, http.StatusOK, "Family doctor history retrieved successfully", history)
}

// MedicalRecordHandler serves allergies, medications and the prescription check
// nested under a patient.
type MedicalRecordHandler struct {
	medicalRecordUsecase usecase.MedicalRecordUsecase
	validator            *validator.CustomValidator
}

func NewMedicalRecordHandler(medicalRecordUsecase usecase.MedicalRecordUsecase, validator *validator.CustomValidator) *MedicalRecordHandler {
	return &MedicalRecordHandler{
		medicalRecordUsecase: medicalRecordUsecase,
		validator:            validator,
	}
}

func (h *MedicalRecordHandler) AddAllergy(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	patientID, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	var req dto.CreateAllergyRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	allergy, err := h.medicalRecordUsecase.AddAllergy(r.Context(), actor, patientID, &req)
	if err != nil {
		writeError(w, err, "Failed to add allergy")
		return
	}

	response.Success(w, http.StatusCreated, "Allergy recorded successfully", allergy)
}

func (h *MedicalRecordHandler) GetAllergies(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	patientID, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	allergies, err := h.medicalRecordUsecase.ListAllergies(r.Context(), actor, patientID)
	if err != nil {
		writeError(w, err, "Failed to get allergies")
		return
	}

	response.Success(w, http.StatusOK, "Allergies retrieved successfully", allergies)
}

func (h *MedicalRecordHandler) AddMedication(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	patientID, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	var req dto.CreateMedicationRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	medication, err := h.medicalRecordUsecase.AddMedication(r.Context(), actor, patientID, &req)
	if err != nil {
		writeError(w, err, "Failed to add medication")
		return
	}

	response.Success(w, http.StatusCreated, "Medication prescribed successfully", medication)
}

func (h *MedicalRecordHandler) GetMedications(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	patientID, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	medications, err := h.medicalRecordUsecase.ListMedications(r.Context(), actor, patientID)
	if err != nil {
		writeError(w, err, "Failed to get medications")
		return
	}

	response.Success(w, http.StatusOK, "Medications retrieved successfully", medications)
}

func (h *MedicalRecordHandler) CanPrescribe(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	patientID, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	medication := strings.TrimSpace(r.URL.Query().Get("medication"))
	if medication == "" {
		response.BadRequest(w, "medication query parameter is required")
		return
	}

	check, err := h.medicalRecordUsecase.CanPrescribe(r.Context(), actor, patientID, medication)
	if err != nil {
		writeError(w, err, "Failed to check prescription")
		return
	}

	response.Success(w, http.StatusOK, "Prescription checked", check)
}
