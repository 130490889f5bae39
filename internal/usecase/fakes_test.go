package usecase

import (
	"context"
	"database/sql"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/service"
	"clinic-management-api/pkg/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// memStore backs every fake repository. Reads hand out copies so a usecase only
// sees its own writes after it stores them, like with a real database.
type memStore struct {
	mu           sync.Mutex
	users        map[uuid.UUID]entity.User
	doctors      map[uuid.UUID]entity.DoctorProfile
	patients     map[uuid.UUID]entity.PatientProfile
	appointments map[uuid.UUID]entity.Appointment
	requests     map[uuid.UUID]entity.FamilyDoctorRequest
	history      []entity.FamilyDoctorHistory
	allergies    []entity.Allergy
	medications  []entity.Medication
	audits       []entity.AuditLog
	nextAuditID  int64
}

func newMemStore() *memStore {
	return &memStore{
		users:        map[uuid.UUID]entity.User{},
		doctors:      map[uuid.UUID]entity.DoctorProfile{},
		patients:     map[uuid.UUID]entity.PatientProfile{},
		appointments: map[uuid.UUID]entity.Appointment{},
		requests:     map[uuid.UUID]entity.FamilyDoctorRequest{},
	}
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: constraint}
}

// =============================================================================
// Transactor and locker
// =============================================================================

func serializationFailure() error {
	return &pgconn.PgError{Code: pgSerializationFailure}
}

// fakeTransactor runs the closure directly. With abort set the transaction fails
// before any statement takes effect, like postgres rolling back an aborted tx.
type fakeTransactor struct {
	isolation []sql.IsolationLevel
	abort     error
}

func (t *fakeTransactor) Conn(ctx context.Context) *gorm.DB { return nil }

func (t *fakeTransactor) Transaction(ctx context.Context, fn func(tx *gorm.DB) error, opts ...*sql.TxOptions) error {
	for _, opt := range opts {
		if opt != nil {
			t.isolation = append(t.isolation, opt.Isolation)
		}
	}
	if t.abort != nil {
		return t.abort
	}
	return fn(nil)
}

type fakeLocker struct {
	locked   []uuid.UUID
	released int
	err      error
}

func (l *fakeLocker) Lock(ctx context.Context, doctorID uuid.UUID) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.locked = append(l.locked, doctorID)
	return func() { l.released++ }, nil
}

// =============================================================================
// Users and roles
// =============================================================================

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(ctx context.Context, db *gorm.DB, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return uniqueViolation("idx_users_email")
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.IsActive == nil {
		active := true
		user.IsActive = &active
	}
	user.Role = entity.Role{ID: user.RoleID, RoleName: entity.RoleNameByID(user.RoleID)}
	r.s.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *memUserRepo) Update(ctx context.Context, db *gorm.DB, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.users, id)
	delete(r.s.doctors, id)
	delete(r.s.patients, id)
	return nil
}

// =============================================================================
// Doctors and patients
// =============================================================================

type memDoctorRepo struct{ s *memStore }

func (r *memDoctorRepo) Create(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.doctors {
		if d.LicenseNumber == profile.LicenseNumber {
			return uniqueViolation("doctor_profiles_license_number_key")
		}
	}
	stored := *profile
	stored.User = entity.User{}
	r.s.doctors[profile.UserID] = stored
	return nil
}

func (r *memDoctorRepo) withUser(d entity.DoctorProfile) entity.DoctorProfile {
	d.User = r.s.users[d.UserID]
	return d
}

func (r *memDoctorRepo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.DoctorProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.doctors[id]
	if !ok {
		return nil, nil
	}
	d = r.withUser(d)
	return &d, nil
}

func (r *memDoctorRepo) FindAll(ctx context.Context, db *gorm.DB, filter entity.DoctorFilter) ([]entity.DoctorProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.DoctorProfile
	for _, d := range r.s.doctors {
		if filter.Specialty != "" && !strings.Contains(strings.ToLower(d.Specialty), strings.ToLower(filter.Specialty)) {
			continue
		}
		if filter.AvailableOnly && !d.IsAvailable {
			continue
		}
		out = append(out, r.withUser(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LicenseNumber < out[j].LicenseNumber })
	return out, nil
}

func (r *memDoctorRepo) ExistsByLicense(ctx context.Context, db *gorm.DB, license string, excludeID *uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, d := range r.s.doctors {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if d.LicenseNumber == license {
			return true, nil
		}
	}
	return false, nil
}

func (r *memDoctorRepo) Update(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *profile
	stored.User = entity.User{}
	r.s.doctors[profile.UserID] = stored
	return nil
}

func (r *memDoctorRepo) Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.doctors, id)
	return nil
}

type memPatientRepo struct{ s *memStore }

func (r *memPatientRepo) Create(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.patients[profile.UserID]; ok {
		return uniqueViolation("patient_profiles_pkey")
	}
	stored := *profile
	stored.User = entity.User{}
	r.s.patients[profile.UserID] = stored
	return nil
}

func (r *memPatientRepo) withUser(p entity.PatientProfile) entity.PatientProfile {
	p.User = r.s.users[p.UserID]
	return p
}

func (r *memPatientRepo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.PatientProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.patients[id]
	if !ok {
		return nil, nil
	}
	p = r.withUser(p)
	return &p, nil
}

func (r *memPatientRepo) FindAll(ctx context.Context, db *gorm.DB) ([]entity.PatientProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.PatientProfile
	for _, p := range r.s.patients {
		out = append(out, r.withUser(p))
	}
	return out, nil
}

func (r *memPatientRepo) FindByFamilyDoctor(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) ([]entity.PatientProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.PatientProfile
	for _, p := range r.s.patients {
		if p.IsFamilyDoctor(doctorID) {
			out = append(out, r.withUser(p))
		}
	}
	return out, nil
}

func (r *memPatientRepo) CountByFamilyDoctor(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, p := range r.s.patients {
		if p.IsFamilyDoctor(doctorID) {
			n++
		}
	}
	return n, nil
}

func (r *memPatientRepo) Update(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *profile
	stored.User = entity.User{}
	r.s.patients[profile.UserID] = stored
	return nil
}

func (r *memPatientRepo) UpdateFamilyDoctor(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.patients[profile.UserID]
	p.FamilyDoctorID = profile.FamilyDoctorID
	p.FamilyDoctorAssignedAt = profile.FamilyDoctorAssignedAt
	r.s.patients[profile.UserID] = p
	return nil
}

func (r *memPatientRepo) Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.patients, id)
	return nil
}

// =============================================================================
// Appointments
// =============================================================================

type memAppointmentRepo struct{ s *memStore }

func (r *memAppointmentRepo) Create(ctx context.Context, db *gorm.DB, a *entity.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.appointments {
		if existing.DoctorID == a.DoctorID && existing.IsActive() && existing.Overlaps(a.DateTime, a.End()) {
			return &pgconn.PgError{Code: pgExclusionViolation, ConstraintName: exclusionAppointmentSlot}
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.s.appointments[a.ID] = *a
	return nil
}

func (r *memAppointmentRepo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *memAppointmentRepo) FindAll(ctx context.Context, db *gorm.DB, filter entity.AppointmentFilter) ([]entity.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.s.appointments {
		if filter.PatientID != nil && a.PatientID != *filter.PatientID {
			continue
		}
		if filter.DoctorID != nil && a.DoctorID != *filter.DoctorID {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, s := range filter.Statuses {
				match = match || a.Status == s
			}
			if !match {
				continue
			}
		}
		if filter.From != nil && a.DateTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !a.DateTime.Before(*filter.To) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	return out, nil
}

func (r *memAppointmentRepo) FindOverlapping(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, start, end time.Time) ([]entity.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.s.appointments {
		if a.DoctorID == doctorID && a.IsActive() && a.Overlaps(start, end) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAppointmentRepo) CountUpcomingByDoctor(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, after time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, a := range r.s.appointments {
		if a.DoctorID == doctorID && a.IsActive() && a.End().After(after) {
			n++
		}
	}
	return n, nil
}

func (r *memAppointmentRepo) ApplyChange(ctx context.Context, db *gorm.DB, id uuid.UUID, change *entity.AppointmentChange) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.appointments[id]
	if !ok || a.Status != change.ExpectStatus {
		return 0, nil
	}
	if change.ExpectDoctorApproved != nil && a.DoctorApproved != *change.ExpectDoctorApproved {
		return 0, nil
	}
	if change.ExpectAdminApproved != nil && a.AdminApproved != *change.ExpectAdminApproved {
		return 0, nil
	}
	for column, value := range change.Updates {
		applyColumn(&a, column, value)
	}
	r.s.appointments[id] = a
	return 1, nil
}

func applyColumn(a *entity.Appointment, column string, value interface{}) {
	switch column {
	case "status":
		a.Status = value.(entity.AppointmentStatus)
	case "doctor_approved":
		a.DoctorApproved = value.(bool)
	case "doctor_approved_by":
		id := value.(uuid.UUID)
		a.DoctorApprovedBy = &id
	case "doctor_approved_at":
		at := value.(time.Time)
		a.DoctorApprovedAt = &at
	case "admin_approved":
		a.AdminApproved = value.(bool)
	case "admin_approved_by":
		id := value.(uuid.UUID)
		a.AdminApprovedBy = &id
	case "admin_approved_at":
		at := value.(time.Time)
		a.AdminApprovedAt = &at
	case "doctor_rejection_reason":
		reason := value.(string)
		a.DoctorRejectionReason = &reason
	case "admin_rejection_reason":
		reason := value.(string)
		a.AdminRejectionReason = &reason
	case "cancelled_by":
		id := value.(uuid.UUID)
		a.CancelledBy = &id
	case "cancelled_at":
		at := value.(time.Time)
		a.CancelledAt = &at
	case "completed_at":
		at := value.(time.Time)
		a.CompletedAt = &at
	case "notes":
		a.Notes = value.(string)
	case "medications":
		a.Medications = value.(string)
	default:
		panic("fake appointment repo: unknown column " + column)
	}
}

func (r *memAppointmentRepo) Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.appointments[id]; !ok {
		return 0, nil
	}
	delete(r.s.appointments, id)
	return 1, nil
}

// =============================================================================
// Family doctor requests and ledger
// =============================================================================

type memRequestRepo struct{ s *memStore }

func (r *memRequestRepo) Create(ctx context.Context, db *gorm.DB, req *entity.FamilyDoctorRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	r.s.requests[req.ID] = *req
	return nil
}

func (r *memRequestRepo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.FamilyDoctorRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, nil
	}
	return &req, nil
}

func (r *memRequestRepo) FindAll(ctx context.Context, db *gorm.DB, filter entity.FamilyDoctorRequestFilter) ([]entity.FamilyDoctorRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.FamilyDoctorRequest
	for _, req := range r.s.requests {
		if filter.PatientID != nil && req.PatientID != *filter.PatientID {
			continue
		}
		if filter.DoctorID != nil && req.DoctorID != *filter.DoctorID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (r *memRequestRepo) ExistsPending(ctx context.Context, db *gorm.DB, patientID, doctorID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, req := range r.s.requests {
		if req.PatientID == patientID && req.DoctorID == doctorID && req.IsPending() {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRequestRepo) Resolve(ctx context.Context, db *gorm.DB, req *entity.FamilyDoctorRequest) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.requests[req.ID]
	if !ok || !stored.IsPending() {
		return 0, nil
	}
	r.s.requests[req.ID] = *req
	return 1, nil
}

type memHistoryRepo struct{ s *memStore }

func (r *memHistoryRepo) Append(ctx context.Context, db *gorm.DB, entry *entity.FamilyDoctorHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = uuid.New()
	r.s.history = append(r.s.history, *entry)
	return nil
}

func (r *memHistoryRepo) FindByPatient(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]entity.FamilyDoctorHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.FamilyDoctorHistory
	for i := len(r.s.history) - 1; i >= 0; i-- {
		if r.s.history[i].PatientID == patientID {
			out = append(out, r.s.history[i])
		}
	}
	return out, nil
}

// =============================================================================
// Medical records and audit
// =============================================================================

type memAllergyRepo struct{ s *memStore }

func (r *memAllergyRepo) Create(ctx context.Context, db *gorm.DB, a *entity.Allergy) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.ID = uuid.New()
	r.s.allergies = append(r.s.allergies, *a)
	return nil
}

func (r *memAllergyRepo) FindByPatient(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]entity.Allergy, error) {
	return r.find(patientID, "")
}

func (r *memAllergyRepo) FindByPatientAndType(ctx context.Context, db *gorm.DB, patientID uuid.UUID, t entity.AllergyType) ([]entity.Allergy, error) {
	return r.find(patientID, t)
}

func (r *memAllergyRepo) find(patientID uuid.UUID, t entity.AllergyType) ([]entity.Allergy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.Allergy
	for _, a := range r.s.allergies {
		if a.PatientID == patientID && (t == "" || a.Type == t) {
			out = append(out, a)
		}
	}
	return out, nil
}

type memMedicationRepo struct{ s *memStore }

func (r *memMedicationRepo) Create(ctx context.Context, db *gorm.DB, m *entity.Medication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = uuid.New()
	r.s.medications = append(r.s.medications, *m)
	return nil
}

func (r *memMedicationRepo) FindByPatient(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]entity.Medication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.Medication
	for _, m := range r.s.medications {
		if m.PatientID == patientID {
			out = append(out, m)
		}
	}
	return out, nil
}

type memAuditRepo struct{ s *memStore }

func (r *memAuditRepo) Create(ctx context.Context, db *gorm.DB, log *entity.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextAuditID++
	log.ID = r.s.nextAuditID
	r.s.audits = append(r.s.audits, *log)
	return nil
}

func (r *memAuditRepo) FindAll(ctx context.Context, db *gorm.DB, filter entity.AuditLogFilter) ([]entity.AuditLog, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.AuditLog
	for _, l := range r.s.audits {
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.EntityType != "" && l.EntityType != filter.EntityType {
			continue
		}
		out = append(out, l)
	}
	total := int64(len(out))
	if filter.Offset < len(out) {
		out = out[filter.Offset:]
	} else {
		out = nil
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (r *memAuditRepo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*entity.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.audits {
		if l.ID == id {
			cp := l
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.audits))
	for i, l := range s.audits {
		out[i] = l.Action
	}
	return out
}

// =============================================================================
// Fixture
// =============================================================================

// fixedNow is a Friday. The following Monday 10:00 UTC is inside the default
// weekday schedule and well inside the booking window.
var fixedNow = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

var nextMonday10 = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

type fixture struct {
	t           *testing.T
	store       *memStore
	transactor  *fakeTransactor
	locker      *fakeLocker
	metrics     *metrics.Metrics
	users       *memUserRepo
	doctors     *memDoctorRepo
	patients    *memPatientRepo
	appts       *memAppointmentRepo
	requests    *memRequestRepo
	history     *memHistoryRepo
	allergies   *memAllergyRepo
	medications *memMedicationRepo
	audit       service.AuditService
	ledger      service.FamilyDoctorLedgerService
	log         *logrus.Logger
}

func newFixture(t *testing.T) *fixture {
	s := newMemStore()
	log := quietLogger()
	m := metrics.NewNop()
	f := &fixture{
		t:           t,
		store:       s,
		transactor:  &fakeTransactor{},
		locker:      &fakeLocker{},
		metrics:     m,
		users:       &memUserRepo{s},
		doctors:     &memDoctorRepo{s},
		patients:    &memPatientRepo{s},
		appts:       &memAppointmentRepo{s},
		requests:    &memRequestRepo{s},
		history:     &memHistoryRepo{s},
		allergies:   &memAllergyRepo{s},
		medications: &memMedicationRepo{s},
		log:         log,
	}
	f.audit = service.NewAuditService(log, &memAuditRepo{s})
	f.ledger = service.NewFamilyDoctorLedgerService(log, f.history, m)
	return f
}

func (f *fixture) assigner() *familyDoctorAssigner {
	return &familyDoctorAssigner{log: f.log, patientProfileRepo: f.patients, ledger: f.ledger}
}

func (f *fixture) appointmentUsecase() *appointmentUsecase {
	u := NewAppointmentUsecase(f.log, f.transactor, f.appts, f.doctors, f.patients, f.audit, f.locker, f.metrics, time.UTC).(*appointmentUsecase)
	u.now = func() time.Time { return fixedNow }
	return u
}

func (f *fixture) patientUsecase() *patientProfileUsecase {
	u := NewPatientProfileUsecase(f.log, f.transactor, f.users, f.patients, f.doctors, f.history, f.audit, f.ledger).(*patientProfileUsecase)
	u.now = func() time.Time { return fixedNow }
	return u
}

func (f *fixture) requestUsecase() *familyDoctorRequestUsecase {
	u := NewFamilyDoctorRequestUsecase(f.log, f.transactor, f.requests, f.patients, f.doctors, f.audit, f.ledger).(*familyDoctorRequestUsecase)
	u.now = func() time.Time { return fixedNow }
	return u
}

func (f *fixture) doctorUsecase() *doctorProfileUsecase {
	u := NewDoctorProfileUsecase(f.log, f.transactor, f.users, f.doctors, f.patients, f.appts, f.audit, f.ledger).(*doctorProfileUsecase)
	u.now = func() time.Time { return fixedNow }
	return u
}

func (f *fixture) medicalRecordUsecase() *medicalRecordUsecase {
	return NewMedicalRecordUsecase(f.log, f.transactor, f.patients, f.allergies, f.medications, f.audit).(*medicalRecordUsecase)
}

type doctorOption func(*entity.DoctorProfile)

func withCapacity(n int) doctorOption {
	return func(d *entity.DoctorProfile) { d.MaxFamilyPatients = &n }
}

func unavailable() doctorOption {
	return func(d *entity.DoctorProfile) { d.IsAvailable = false }
}

func (f *fixture) addUser(roleID int, email string) entity.User {
	user := entity.User{Email: email, FullName: "User " + email, Password: "x", RoleID: roleID}
	if err := f.users.Create(context.Background(), nil, &user); err != nil {
		f.t.Fatalf("create user: %v", err)
	}
	return user
}

func (f *fixture) addDoctor(opts ...doctorOption) entity.DoctorProfile {
	user := f.addUser(entity.RoleIDDoctor, uuid.NewString()+"@doctor.test")
	d := entity.DoctorProfile{
		UserID:               user.ID,
		LicenseNumber:        "LIC-" + user.ID.String()[:8],
		Specialty:            "general practice",
		IsAvailable:          true,
		ConsultationDuration: entity.DefaultConsultationDuration,
		ConsultationFee:      decimal.NewFromInt(150),
		Schedule:             entity.DefaultWeeklySchedule(),
	}
	for _, opt := range opts {
		opt(&d)
	}
	if err := f.doctors.Create(context.Background(), nil, &d); err != nil {
		f.t.Fatalf("create doctor: %v", err)
	}
	d.User = user
	return d
}

func (f *fixture) addPatient(familyDoctor *uuid.UUID) entity.PatientProfile {
	user := f.addUser(entity.RoleIDPatient, uuid.NewString()+"@patient.test")
	p := entity.PatientProfile{UserID: user.ID, PhoneNumber: "0812345678"}
	if familyDoctor != nil {
		p.SetFamilyDoctor(*familyDoctor, fixedNow.Add(-24*time.Hour))
	}
	if err := f.patients.Create(context.Background(), nil, &p); err != nil {
		f.t.Fatalf("create patient: %v", err)
	}
	p.User = user
	return p
}

func (f *fixture) addAppointment(patientID, doctorID uuid.UUID, at time.Time, duration int, status entity.AppointmentStatus) entity.Appointment {
	a := entity.NewAppointment(patientID, doctorID, at, duration, "", patientID)
	a.Status = status
	if err := f.appts.Create(context.Background(), nil, a); err != nil {
		f.t.Fatalf("create appointment: %v", err)
	}
	return *a
}

func (f *fixture) appointment(id uuid.UUID) entity.Appointment {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.appointments[id]
}

func (f *fixture) patient(id uuid.UUID) entity.PatientProfile {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.patients[id]
}

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }
