package entity

import "github.com/google/uuid"

// ActorKind is the closed set of callers the business layer knows about.
type ActorKind int

const (
	ActorAdmin ActorKind = iota + 1
	ActorDoctor
	ActorPatient
)

func (k ActorKind) String() string {
	switch k {
	case ActorAdmin:
		return RoleAdmin
	case ActorDoctor:
		return RoleDoctor
	case ActorPatient:
		return RolePatient
	default:
		return "UNKNOWN"
	}
}

// Actor is the authenticated caller. It is built once by the auth middleware and
// passed down explicitly. For doctors and patients ID is also the profile id.
type Actor struct {
	Kind ActorKind
	ID   uuid.UUID
}

func AdminActor(userID uuid.UUID) Actor    { return Actor{Kind: ActorAdmin, ID: userID} }
func DoctorActor(doctorID uuid.UUID) Actor { return Actor{Kind: ActorDoctor, ID: doctorID} }
func PatientActor(patientID uuid.UUID) Actor {
	return Actor{Kind: ActorPatient, ID: patientID}
}

// ActorFromRole maps a token role id to an actor. ok is false for unknown roles.
func ActorFromRole(roleID int, userID uuid.UUID) (Actor, bool) {
	switch roleID {
	case RoleIDAdmin:
		return AdminActor(userID), true
	case RoleIDDoctor:
		return DoctorActor(userID), true
	case RoleIDPatient:
		return PatientActor(userID), true
	default:
		return Actor{}, false
	}
}

func (a Actor) IsAdmin() bool   { return a.Kind == ActorAdmin }
func (a Actor) IsDoctor() bool  { return a.Kind == ActorDoctor }
func (a Actor) IsPatient() bool { return a.Kind == ActorPatient }

// IsDoctorID reports whether the actor is the doctor with the given id.
func (a Actor) IsDoctorID(id uuid.UUID) bool {
	return a.Kind == ActorDoctor && a.ID == id
}

// IsPatientID reports whether the actor is the patient with the given id.
func (a Actor) IsPatientID(id uuid.UUID) bool {
	return a.Kind == ActorPatient && a.ID == id
}
