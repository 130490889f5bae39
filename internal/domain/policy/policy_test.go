package policy

import (
	"testing"
	"time"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCheckPrescription(t *testing.T) {
	penicillin := entity.Allergy{Allergen: "Penicillin", Type: entity.AllergyTypeMedication, Severity: entity.AllergySeveritySevere}
	aspirin := entity.Allergy{Allergen: "aspirin", Type: entity.AllergyTypeMedication, Severity: entity.AllergySeverityMild}
	peanut := entity.Allergy{Allergen: "Peanut", Type: entity.AllergyTypeFood, Severity: entity.AllergySeverityAnaphylactic}
	allergies := []entity.Allergy{penicillin, aspirin, peanut}

	t.Run("severe match blocks", func(t *testing.T) {
		check := CheckPrescription("Amoxicillin-Penicillin", allergies)
		assert.False(t, check.CanPrescribe)
		assert.True(t, check.Blocked())
		assert.Contains(t, check.Warning, "Penicillin")
		assert.Len(t, check.Matches, 1)
	})

	t.Run("no match is free", func(t *testing.T) {
		check := CheckPrescription("Ibuprofen", allergies)
		assert.True(t, check.CanPrescribe)
		assert.Empty(t, check.Warning)
		assert.Empty(t, check.Matches)
	})

	t.Run("mild match warns", func(t *testing.T) {
		check := CheckPrescription("ASPIRIN 500mg", allergies)
		assert.True(t, check.CanPrescribe)
		assert.Contains(t, check.Warning, "aspirin")
	})

	t.Run("medication name inside allergen", func(t *testing.T) {
		check := CheckPrescription("penicil", allergies)
		assert.False(t, check.CanPrescribe)
	})

	t.Run("non medication allergies ignored", func(t *testing.T) {
		check := CheckPrescription("peanut oil", allergies)
		assert.True(t, check.CanPrescribe)
		assert.Empty(t, check.Warning)
	})

	t.Run("blank name", func(t *testing.T) {
		assert.True(t, CheckPrescription("  ", allergies).CanPrescribe)
	})
}

func TestCanViewPatient(t *testing.T) {
	patientID, familyDoctor, otherDoctor := uuid.New(), uuid.New(), uuid.New()
	patient := &entity.PatientProfile{UserID: patientID}
	patient.SetFamilyDoctor(familyDoctor, time.Now())

	assert.True(t, CanViewPatient(entity.AdminActor(uuid.New()), patient))
	assert.True(t, CanViewPatient(entity.PatientActor(patientID), patient))
	assert.True(t, CanViewPatient(entity.DoctorActor(familyDoctor), patient))
	assert.False(t, CanViewPatient(entity.DoctorActor(otherDoctor), patient))
	assert.False(t, CanViewPatient(entity.PatientActor(uuid.New()), patient))
	assert.False(t, CanViewPatient(entity.AdminActor(uuid.New()), nil))
}

func TestCanWriteMedicalRecord(t *testing.T) {
	patientID, familyDoctor := uuid.New(), uuid.New()
	patient := &entity.PatientProfile{UserID: patientID}
	patient.SetFamilyDoctor(familyDoctor, time.Now())

	assert.True(t, CanWriteMedicalRecord(entity.AdminActor(uuid.New()), patient))
	assert.True(t, CanWriteMedicalRecord(entity.DoctorActor(familyDoctor), patient))
	assert.False(t, CanWriteMedicalRecord(entity.DoctorActor(uuid.New()), patient))
	assert.False(t, CanWriteMedicalRecord(entity.PatientActor(patientID), patient))

	// Whoever may write may also read.
	for _, actor := range []entity.Actor{entity.AdminActor(uuid.New()), entity.DoctorActor(familyDoctor), entity.DoctorActor(uuid.New())} {
		if CanWriteMedicalRecord(actor, patient) {
			assert.True(t, CanViewPatient(actor, patient))
		}
	}
}

func TestAppointmentPredicates(t *testing.T) {
	patientID, doctorID := uuid.New(), uuid.New()
	a := &entity.Appointment{PatientID: patientID, DoctorID: doctorID}

	assert.True(t, CanCancelAppointment(entity.PatientActor(patientID), a))
	assert.True(t, CanCancelAppointment(entity.DoctorActor(doctorID), a))
	assert.False(t, CanCancelAppointment(entity.DoctorActor(uuid.New()), a))

	assert.False(t, CanCompleteAppointment(entity.PatientActor(patientID), a))
	assert.True(t, CanCompleteAppointment(entity.DoctorActor(doctorID), a))
	assert.True(t, CanCompleteAppointment(entity.AdminActor(uuid.New()), a))
}

func TestFamilyDoctorRequestPredicates(t *testing.T) {
	patientID, doctorID := uuid.New(), uuid.New()
	r := &entity.FamilyDoctorRequest{PatientID: patientID, DoctorID: doctorID}

	assert.True(t, CanResolveFamilyDoctorRequest(entity.DoctorActor(doctorID), r))
	assert.False(t, CanResolveFamilyDoctorRequest(entity.DoctorActor(uuid.New()), r))
	assert.False(t, CanResolveFamilyDoctorRequest(entity.PatientActor(patientID), r))
	assert.True(t, CanViewFamilyDoctorRequest(entity.PatientActor(patientID), r))
}
