// Package policy holds the authorization predicates and the prescription guard.
// Everything here is pure: callers load the records and pass them in.
package policy

import (
	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
)

// CanManagePatients gates patient creation, deletion and family doctor mutations.
func CanManagePatients(actor entity.Actor) bool {
	return actor.IsAdmin()
}

// IsOwningPatient reports whether the actor is the patient the record belongs to.
func IsOwningPatient(actor entity.Actor, patientID uuid.UUID) bool {
	return actor.IsPatientID(patientID)
}

// IsFamilyDoctorOf reports whether the actor is the patient's family doctor.
func IsFamilyDoctorOf(actor entity.Actor, patient *entity.PatientProfile) bool {
	return actor.IsDoctor() && patient != nil && patient.IsFamilyDoctor(actor.ID)
}

// CanViewPatient allows the patient themself, their family doctor, and admins.
func CanViewPatient(actor entity.Actor, patient *entity.PatientProfile) bool {
	if patient == nil {
		return false
	}
	return actor.IsAdmin() || IsOwningPatient(actor, patient.UserID) || IsFamilyDoctorOf(actor, patient)
}

// CanUpdatePatient allows the owner and admins to edit profile fields.
func CanUpdatePatient(actor entity.Actor, patientID uuid.UUID) bool {
	return actor.IsAdmin() || IsOwningPatient(actor, patientID)
}

// CanManageDoctor allows the doctor themself and admins to edit schedule and availability.
func CanManageDoctor(actor entity.Actor, doctorID uuid.UUID) bool {
	return actor.IsAdmin() || actor.IsDoctorID(doctorID)
}

// CanViewAppointment allows both participants and admins.
func CanViewAppointment(actor entity.Actor, a *entity.Appointment) bool {
	return actor.IsAdmin() || actor.IsPatientID(a.PatientID) || actor.IsDoctorID(a.DoctorID)
}

// CanCancelAppointment allows the owning patient, the appointment's doctor and admins.
func CanCancelAppointment(actor entity.Actor, a *entity.Appointment) bool {
	return CanViewAppointment(actor, a)
}

// CanCompleteAppointment allows the appointment's doctor and admins.
func CanCompleteAppointment(actor entity.Actor, a *entity.Appointment) bool {
	return actor.IsAdmin() || actor.IsDoctorID(a.DoctorID)
}

// CanWriteMedicalRecord allows admins and the patient's family doctor. Every writer
// can also view the patient.
func CanWriteMedicalRecord(actor entity.Actor, patient *entity.PatientProfile) bool {
	return actor.IsAdmin() || IsFamilyDoctorOf(actor, patient)
}

// CanResolveFamilyDoctorRequest allows admins and the doctor the request is addressed to.
func CanResolveFamilyDoctorRequest(actor entity.Actor, r *entity.FamilyDoctorRequest) bool {
	return actor.IsAdmin() || actor.IsDoctorID(r.DoctorID)
}

// CanViewFamilyDoctorRequest adds the requesting patient to the resolvers.
func CanViewFamilyDoctorRequest(actor entity.Actor, r *entity.FamilyDoctorRequest) bool {
	return CanResolveFamilyDoctorRequest(actor, r) || actor.IsPatientID(r.PatientID)
}
