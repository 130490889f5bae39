package usecase

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/service"
	"clinic-management-api/pkg/apperror"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestValidateBookingRequestWindow(t *testing.T) {
	cases := []struct {
		name    string
		offset  time.Duration
		wantErr error
	}{
		{"119 minutes ahead", 119 * time.Minute, ErrBookingTooSoon},
		{"exactly 2 hours ahead", 2 * time.Hour, nil},
		{"121 minutes ahead", 121 * time.Minute, nil},
		{"89 days ahead", 89 * 24 * time.Hour, nil},
		{"exactly 90 days ahead", 90 * 24 * time.Hour, nil},
		{"91 days ahead", 91 * 24 * time.Hour, ErrBookingTooFar},
		{"in the past", -time.Hour, ErrBookingTooSoon},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateBookingRequest(fixedNow, fixedNow.Add(tc.offset), 30)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidateBookingRequestDuration(t *testing.T) {
	at := fixedNow.Add(24 * time.Hour)
	for duration, ok := range map[int]bool{14: false, 15: true, 20: false, 45: true, 240: true, 241: false, 0: false} {
		err := validateBookingRequest(fixedNow, at, duration)
		if ok {
			assert.NoError(t, err, "duration %d", duration)
		} else {
			assert.ErrorIs(t, err, ErrInvalidDuration, "duration %d", duration)
		}
	}
}

func TestWindowIsCheckedBeforeDuration(t *testing.T) {
	err := validateBookingRequest(fixedNow, fixedNow.Add(time.Hour), 20)
	assert.ErrorIs(t, err, ErrBookingTooSoon)
}

func TestFamilyDoctorPrecedence(t *testing.T) {
	f := newFixture(t)
	uc := f.appointmentUsecase()
	ctx := context.Background()

	family := f.addDoctor()
	other := f.addDoctor()
	patient := f.addPatient(uuidPtr(family.UserID))

	res, err := uc.CanPatientBookWithDoctor(ctx, patient.UserID, other.UserID, nextMonday10, 30)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, ErrFamilyDoctorAvailable.Code, res.Code)
	assert.Equal(t, family.UserID, res.Params["family_doctor_id"])

	// Once the family doctor is booked at that slot the alternate doctor is fine.
	someone := f.addPatient(nil)
	f.addAppointment(someone.UserID, family.UserID, nextMonday10, 30, entity.AppointmentStatusConfirmed)

	res, err = uc.CanPatientBookWithDoctor(ctx, patient.UserID, other.UserID, nextMonday10, 30)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestCanPatientBookWithDoctor(t *testing.T) {
	f := newFixture(t)
	uc := f.appointmentUsecase()
	ctx := context.Background()

	family := f.addDoctor()
	off := f.addDoctor(unavailable())
	withFamily := f.addPatient(uuidPtr(family.UserID))
	noFamily := f.addPatient(nil)

	t.Run("family doctor itself", func(t *testing.T) {
		res, err := uc.CanPatientBookWithDoctor(ctx, withFamily.UserID, family.UserID, nextMonday10, 30)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("no family doctor", func(t *testing.T) {
		other := f.addDoctor()
		res, err := uc.CanPatientBookWithDoctor(ctx, noFamily.UserID, other.UserID, nextMonday10, 30)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("requested doctor unavailable", func(t *testing.T) {
		res, err := uc.CanPatientBookWithDoctor(ctx, noFamily.UserID, off.UserID, nextMonday10, 30)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, ErrDoctorUnavailable.Code, res.Code)
	})

	t.Run("unknown patient", func(t *testing.T) {
		res, err := uc.CanPatientBookWithDoctor(ctx, uuid.New(), family.UserID, nextMonday10, 30)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, ErrPatientNotFound.Code, res.Code)
	})

	t.Run("staff must name the patient", func(t *testing.T) {
		_, err := uc.CanBook(ctx, entity.AdminActor(uuid.New()), family.UserID, nil, nextMonday10, 30)
		assert.ErrorIs(t, err, ErrPatientIDRequired)
	})
}

func TestFamilyDoctorHiddenFromNonViewers(t *testing.T) {
	f := newFixture(t)
	uc := f.appointmentUsecase()
	ctx := context.Background()

	family := f.addDoctor()
	other := f.addDoctor()
	patient := f.addPatient(uuidPtr(family.UserID))

	t.Run("other doctor gets the reason only", func(t *testing.T) {
		res, err := uc.CanBook(ctx, entity.DoctorActor(other.UserID), other.UserID, uuidPtr(patient.UserID), nextMonday10, 30)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, ErrFamilyDoctorAvailable.Code, res.Code)
		assert.NotContains(t, res.Params, "family_doctor_id")
		assert.Contains(t, res.Params, "date_time")
	})

	t.Run("admin and family doctor see it", func(t *testing.T) {
		for _, actor := range []entity.Actor{entity.AdminActor(uuid.New()), entity.DoctorActor(family.UserID)} {
			res, err := uc.CanBook(ctx, actor, other.UserID, uuidPtr(patient.UserID), nextMonday10, 30)
			require.NoError(t, err)
			assert.Equal(t, family.UserID, res.Params["family_doctor_id"])
		}
	})

	t.Run("booking attempt by the other doctor", func(t *testing.T) {
		_, err := uc.CreateAppointment(ctx, entity.DoctorActor(other.UserID), &dto.CreateAppointmentRequest{
			PatientID: uuidPtr(patient.UserID),
			DoctorID:  other.UserID,
			DateTime:  nextMonday10,
			Duration:  30,
		})
		require.ErrorIs(t, err, ErrFamilyDoctorAvailable)
		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.NotContains(t, appErr.Params, "family_doctor_id")
		assert.NotContains(t, ErrFamilyDoctorAvailable.Params, "family_doctor_id")
	})

	t.Run("patient sees their own family doctor", func(t *testing.T) {
		res, err := uc.CanBook(ctx, entity.PatientActor(patient.UserID), other.UserID, nil, nextMonday10, 30)
		require.NoError(t, err)
		assert.Equal(t, family.UserID, res.Params["family_doctor_id"])
	})
}

func TestCheckAvailabilityAgainstSchedule(t *testing.T) {
	f := newFixture(t)
	uc := f.appointmentUsecase()
	ctx := context.Background()
	doctor := f.addDoctor()

	cases := []struct {
		name     string
		at       time.Time
		duration int
		code     string
	}{
		{"monday morning", nextMonday10, 30, ""},
		{"saturday", nextMonday10.AddDate(0, 0, 5), 30, ErrOutsideSchedule.Code},
		{"closing time is exclusive", time.Date(2026, 10, 19, 17, 0, 0, 0, time.UTC), 30, ErrOutsideSchedule.Code},
		{"before opening", time.Date(2026, 10, 19, 8, 45, 0, 0, time.UTC), 30, ErrOutsideSchedule.Code},
		{"overrun past closing is allowed", time.Date(2026, 10, 19, 16, 45, 0, 0, time.UTC), 60, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := uc.CheckAvailability(ctx, doctor.UserID, tc.at, tc.duration)
			require.NoError(t, err)
			assert.Equal(t, tc.code == "", res.Available)
			assert.Equal(t, tc.code, res.Code)
		})
	}

	res, err := uc.CheckAvailability(ctx, uuid.New(), nextMonday10, 30)
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Equal(t, ErrDoctorNotFound.Code, res.Code)
}

func TestCheckAvailabilityUsesClinicTimezone(t *testing.T) {
	f := newFixture(t)
	uc := f.appointmentUsecase()
	jakarta := time.FixedZone("WIB", 7*60*60)
	uc.location = jakarta
	doctor := f.addDoctor()

	// 03:00 UTC is 10:00 in the clinic.
	ok, err := uc.IsDoctorAvailable(context.Background(), doctor.UserID, time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC), 30)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = uc.IsDoctorAvailable(context.Background(), doctor.UserID, nextMonday10, 30)
	require.NoError(t, err)
	assert.False(t, ok, "10:00 UTC is 17:00 in the clinic")
}

func TestAvailabilityMonotonicity(t *testing.T) {
	f := newFixture(t)
	uc := f.appointmentUsecase()
	ctx := context.Background()
	admin := entity.AdminActor(uuid.New())

	doctor := f.addDoctor()
	first := f.addPatient(nil)
	second := f.addPatient(nil)
	blocking := f.addAppointment(first.UserID, doctor.UserID, nextMonday10, 30, entity.AppointmentStatusConfirmed)

	ok, err := uc.IsDoctorAvailable(ctx, doctor.UserID, nextMonday10.Add(15*time.Minute), 30)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = uc.CreateAppointment(ctx, entity.PatientActor(second.UserID), &dto.CreateAppointmentRequest{
		DoctorID: doctor.UserID,
		DateTime: nextMonday10,
		Duration: 30,
	})
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	// Back to back is not an overlap.
	ok, err = uc.IsDoctorAvailable(ctx, doctor.UserID, nextMonday10.Add(30*time.Minute), 30)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = uc.CancelAppointment(ctx, admin, blocking.ID)
	require.NoError(t, err)

	ok, err = uc.IsDoctorAvailable(ctx, doctor.UserID, nextMonday10, 30)
	require.NoError(t, err)
	assert.True(t, ok)

	created, err := uc.CreateAppointment(ctx, entity.PatientActor(second.UserID), &dto.CreateAppointmentRequest{
		DoctorID: doctor.UserID,
		DateTime: nextMonday10,
		Duration: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.AppointmentStatusPending), created.Status)
}

func TestCreateAppointment(t *testing.T) {
	f := newFixture(t)
	uc := f.appointmentUsecase()
	ctx := context.Background()

	doctor := f.addDoctor(func(d *entity.DoctorProfile) { d.ConsultationDuration = 45 })
	patient := f.addPatient(nil)
	intruder := f.addPatient(nil)

	res, err := uc.CreateAppointment(ctx, entity.PatientActor(patient.UserID), &dto.CreateAppointmentRequest{
		PatientID: uuidPtr(intruder.UserID),
		DoctorID:  doctor.UserID,
		DateTime:  nextMonday10,
		Reason:    "check-up",
	})
	require.NoError(t, err)

	assert.Equal(t, patient.UserID, res.PatientID, "patients always book for themselves")
	assert.Equal(t, patient.UserID, res.RequestedBy)
	assert.Equal(t, 45, res.Duration, "duration falls back to the consultation duration")
	assert.Equal(t, nextMonday10.Add(45*time.Minute), res.EndTime)
	assert.Equal(t, string(entity.AppointmentStatusPending), res.Status)
	assert.False(t, res.DoctorApproved)
	assert.False(t, res.AdminApproved)

	assert.Equal(t, []uuid.UUID{doctor.UserID}, f.locker.locked)
	assert.Equal(t, 1, f.locker.released)
	assert.Equal(t, []sql.IsolationLevel{sql.LevelSerializable}, f.transactor.isolation)
	assert.Equal(t, []string{entity.AuditActionAppointmentCreate}, f.store.actions())
}

func TestCreateAppointmentByStaff(t *testing.T) {
	f := newFixture(t)
	uc := f.appointmentUsecase()
	ctx := context.Background()
	doctor := f.addDoctor()
	patient := f.addPatient(nil)
	admin := entity.AdminActor(uuid.New())

	_, err := uc.CreateAppointment(ctx, admin, &dto.CreateAppointmentRequest{DoctorID: doctor.UserID, DateTime: nextMonday10, Duration: 30})
	assert.ErrorIs(t, err, ErrPatientIDRequired)

	res, err := uc.CreateAppointment(ctx, entity.DoctorActor(doctor.UserID), &dto.CreateAppointmentRequest{
		PatientID: uuidPtr(patient.UserID),
		DoctorID:  doctor.UserID,
		DateTime:  nextMonday10,
		Duration:  30,
	})
	require.NoError(t, err)
	assert.Equal(t, patient.UserID, res.PatientID)
	assert.Equal(t, doctor.UserID, res.RequestedBy)

	_, err = uc.CreateAppointment(ctx, admin, &dto.CreateAppointmentRequest{
		PatientID: uuidPtr(uuid.New()),
		DoctorID:  doctor.UserID,
		DateTime:  nextMonday10.Add(time.Hour),
		Duration:  30,
	})
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestCreateAppointmentPipelineOrder(t *testing.T) {
	f := newFixture(t)
	uc := f.appointmentUsecase()
	ctx := context.Background()

	family := f.addDoctor()
	other := f.addDoctor()
	patient := f.addPatient(uuidPtr(family.UserID))
	actor := entity.PatientActor(patient.UserID)

	_, err := uc.CreateAppointment(ctx, actor, &dto.CreateAppointmentRequest{DoctorID: other.UserID, DateTime: fixedNow.Add(time.Hour), Duration: 20})
	assert.ErrorIs(t, err, ErrBookingTooSoon)

	_, err = uc.CreateAppointment(ctx, actor, &dto.CreateAppointmentRequest{DoctorID: other.UserID, DateTime: nextMonday10, Duration: 20})
	assert.ErrorIs(t, err, ErrInvalidDuration)
	assert.Empty(t, f.locker.locked, "request validation runs before the lock is taken")

	_, err = uc.CreateAppointment(ctx, actor, &dto.CreateAppointmentRequest{DoctorID: other.UserID, DateTime: nextMonday10, Duration: 30})
	assert.ErrorIs(t, err, ErrFamilyDoctorAvailable)

	_, err = uc.CreateAppointment(ctx, actor, &dto.CreateAppointmentRequest{DoctorID: uuid.New(), DateTime: nextMonday10, Duration: 30})
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	assert.Empty(t, f.store.appointments)
	assert.Equal(t, f.locker.released, len(f.locker.locked))
}

// racyAppointmentRepo hides existing bookings from the availability check, the way
// a concurrent request would see the table just before another insert commits.
type racyAppointmentRepo struct {
	*memAppointmentRepo
}

func (r *racyAppointmentRepo) FindOverlapping(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, start, end time.Time) ([]entity.Appointment, error) {
	return nil, nil
}

func TestCreateAppointmentMapsExclusionViolation(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor()
	first := f.addPatient(nil)
	second := f.addPatient(nil)
	f.addAppointment(first.UserID, doctor.UserID, nextMonday10, 60, entity.AppointmentStatusPending)

	uc := f.appointmentUsecase()
	uc.appointmentRepo = &racyAppointmentRepo{f.appts}

	_, err := uc.CreateAppointment(context.Background(), entity.PatientActor(second.UserID), &dto.CreateAppointmentRequest{
		DoctorID: doctor.UserID,
		DateTime: nextMonday10.Add(30 * time.Minute),
		Duration: 30,
	})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Len(t, f.store.appointments, 1)
}

func TestCreateAppointmentAbortedBySerialization(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor()
	patient := f.addPatient(nil)
	f.transactor.abort = serializationFailure()

	_, err := f.appointmentUsecase().CreateAppointment(context.Background(), entity.PatientActor(patient.UserID), &dto.CreateAppointmentRequest{
		DoctorID: doctor.UserID,
		DateTime: nextMonday10,
		Duration: 30,
	})
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
	assert.NotErrorIs(t, err, ErrSlotUnavailable)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Empty(t, f.store.appointments)
	assert.Equal(t, 1, f.locker.released)
}

func TestCreateAppointmentLockBusy(t *testing.T) {
	f := newFixture(t)
	f.locker.err = service.ErrBookingLockBusy
	doctor := f.addDoctor()
	patient := f.addPatient(nil)

	_, err := f.appointmentUsecase().CreateAppointment(context.Background(), entity.PatientActor(patient.UserID), &dto.CreateAppointmentRequest{
		DoctorID: doctor.UserID,
		DateTime: nextMonday10,
		Duration: 30,
	})
	assert.ErrorIs(t, err, ErrBookingInProgress)
}

func TestDualApproval(t *testing.T) {
	f := newFixture(t)
	uc := f.appointmentUsecase()
	ctx := context.Background()

	doctor := f.addDoctor()
	patient := f.addPatient(nil)
	appt := f.addAppointment(patient.UserID, doctor.UserID, nextMonday10, 30, entity.AppointmentStatusPending)
	doctorActor := entity.DoctorActor(doctor.UserID)
	admin := entity.AdminActor(uuid.New())

	res, err := uc.ApproveAppointment(ctx, doctorActor, appt.ID)
	require.NoError(t, err)
	assert.True(t, res.DoctorApproved)
	assert.Equal(t, string(entity.AppointmentStatusPending), res.Status)

	_, err = uc.ApproveAppointment(ctx, doctorActor, appt.ID)
	assert.ErrorIs(t, err, ErrAlreadyApproved)

	res, err = uc.ApproveAppointment(ctx, admin, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.AppointmentStatusConfirmed), res.Status)

	stored := f.appointment(appt.ID)
	assert.Equal(t, entity.AppointmentStatusConfirmed, stored.Status)
	assert.Equal(t, admin.ID, *stored.AdminApprovedBy)
	assert.Equal(t, doctor.UserID, *stored.DoctorApprovedBy)

	// Approving again is not silently accepted.
	_, err = uc.ApproveAppointment(ctx, doctorActor, appt.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.AppointmentTransition.WithLabelValues("approve", "ok")))
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.AppointmentTransition.WithLabelValues("approve", "error")))
}

func TestApprovalAuthorization(t *testing.T) {
	f := newFixture(t)
	uc := f.appointmentUsecase()
	ctx := context.Background()

	doctor := f.addDoctor()
	stranger := f.addDoctor()
	patient := f.addPatient(nil)
	appt := f.addAppointment(patient.UserID, doctor.UserID, nextMonday10, 30, entity.AppointmentStatusPending)

	_, err := uc.ApproveAppointment(ctx, entity.DoctorActor(stranger.UserID), appt.ID)
	assert.ErrorIs(t, err, ErrNotAppointmentDoctor)

	_, err = uc.ApproveAppointment(ctx, entity.PatientActor(patient.UserID), appt.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = uc.ApproveAppointment(ctx, entity.AdminActor(uuid.New()), uuid.New())
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	assert.False(t, f.appointment(appt.ID).DoctorApproved)
}

func TestRejectionIsFinal(t *testing.T) {
	f := newFixture(t)
	uc := f.appointmentUsecase()
	ctx := context.Background()

	doctor := f.addDoctor()
	patient := f.addPatient(nil)
	appt := f.addAppointment(patient.UserID, doctor.UserID, nextMonday10, 30, entity.AppointmentStatusPending)
	doctorActor := entity.DoctorActor(doctor.UserID)
	admin := entity.AdminActor(uuid.New())

	_, err := uc.ApproveAppointment(ctx, doctorActor, appt.ID)
	require.NoError(t, err)

	_, err = uc.RejectAppointment(ctx, admin, appt.ID, &dto.RejectAppointmentRequest{Reason: "   "})
	assert.ErrorIs(t, err, ErrRejectionReasonRequired)

	res, err := uc.RejectAppointment(ctx, admin, appt.ID, &dto.RejectAppointmentRequest{Reason: "doctor on leave"})
	require.NoError(t, err)
	assert.Equal(t, string(entity.AppointmentStatusRejected), res.Status)
	assert.Equal(t, "doctor on leave", *res.AdminRejectionReason)
	assert.True(t, res.DoctorApproved, "the other party's flag is left as is")

	_, err = uc.ApproveAppointment(ctx, admin, appt.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	_, err = uc.CancelAppointment(ctx, admin, appt.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	assert.Equal(t, entity.AppointmentStatusRejected, f.appointment(appt.ID).Status)
}

func TestCancelAndComplete(t *testing.T) {
	f := newFixture(t)
	uc := f.appointmentUsecase()
	ctx := context.Background()

	doctor := f.addDoctor()
	stranger := f.addDoctor()
	patient := f.addPatient(nil)
	other := f.addPatient(nil)

	pending := f.addAppointment(patient.UserID, doctor.UserID, nextMonday10, 30, entity.AppointmentStatusPending)
	confirmed := f.addAppointment(patient.UserID, doctor.UserID, nextMonday10.Add(time.Hour), 30, entity.AppointmentStatusConfirmed)

	_, err := uc.CompleteAppointment(ctx, entity.DoctorActor(doctor.UserID), pending.ID, &dto.CompleteAppointmentRequest{})
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = uc.CompleteAppointment(ctx, entity.DoctorActor(stranger.UserID), confirmed.ID, &dto.CompleteAppointmentRequest{})
	assert.ErrorIs(t, err, ErrNotAppointmentDoctor)

	_, err = uc.CompleteAppointment(ctx, entity.PatientActor(patient.UserID), confirmed.ID, &dto.CompleteAppointmentRequest{})
	assert.ErrorIs(t, err, ErrAccessDenied)

	res, err := uc.CompleteAppointment(ctx, entity.DoctorActor(doctor.UserID), confirmed.ID, &dto.CompleteAppointmentRequest{
		Notes:       "mild flu",
		Medications: "paracetamol",
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.AppointmentStatusCompleted), res.Status)
	assert.Equal(t, "paracetamol", f.appointment(confirmed.ID).Medications)
	assert.NotNil(t, f.appointment(confirmed.ID).CompletedAt)

	_, err = uc.CancelAppointment(ctx, entity.PatientActor(other.UserID), pending.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	res, err = uc.CancelAppointment(ctx, entity.PatientActor(patient.UserID), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.AppointmentStatusCancelled), res.Status)
	assert.Equal(t, patient.UserID, *f.appointment(pending.ID).CancelledBy)

	_, err = uc.CancelAppointment(ctx, entity.PatientActor(patient.UserID), pending.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

// staleAppointmentRepo loses every guarded update to a concurrent writer.
type staleAppointmentRepo struct {
	*memAppointmentRepo
}

func (r *staleAppointmentRepo) ApplyChange(ctx context.Context, db *gorm.DB, id uuid.UUID, change *entity.AppointmentChange) (int64, error) {
	return 0, nil
}

func TestTransitionLostToConcurrentWriter(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor()
	patient := f.addPatient(nil)
	appt := f.addAppointment(patient.UserID, doctor.UserID, nextMonday10, 30, entity.AppointmentStatusPending)

	uc := f.appointmentUsecase()
	uc.appointmentRepo = &staleAppointmentRepo{f.appts}

	_, err := uc.ApproveAppointment(context.Background(), entity.DoctorActor(doctor.UserID), appt.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	assert.Empty(t, f.store.actions())
}

func TestListAndGetAppointments(t *testing.T) {
	f := newFixture(t)
	uc := f.appointmentUsecase()
	ctx := context.Background()

	doctor := f.addDoctor()
	otherDoctor := f.addDoctor()
	patient := f.addPatient(nil)
	other := f.addPatient(nil)

	mine := f.addAppointment(patient.UserID, doctor.UserID, nextMonday10, 30, entity.AppointmentStatusPending)
	f.addAppointment(other.UserID, otherDoctor.UserID, nextMonday10, 30, entity.AppointmentStatusConfirmed)

	list, err := uc.ListAppointments(ctx, entity.PatientActor(patient.UserID), &dto.AppointmentListQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, mine.ID, list.Appointments[0].ID)

	list, err = uc.ListAppointments(ctx, entity.AdminActor(uuid.New()), &dto.AppointmentListQuery{Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	_, err = uc.ListAppointments(ctx, entity.AdminActor(uuid.New()), &dto.AppointmentListQuery{Status: "LOST"})
	assert.ErrorIs(t, err, ErrInvalidStatusFilter)

	_, err = uc.GetAppointment(ctx, entity.DoctorActor(otherDoctor.UserID), mine.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	got, err := uc.GetAppointment(ctx, entity.DoctorActor(doctor.UserID), mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)
}

func TestDeleteAppointment(t *testing.T) {
	f := newFixture(t)
	uc := f.appointmentUsecase()
	ctx := context.Background()
	doctor := f.addDoctor()
	patient := f.addPatient(nil)
	appt := f.addAppointment(patient.UserID, doctor.UserID, nextMonday10, 30, entity.AppointmentStatusPending)

	assert.ErrorIs(t, uc.DeleteAppointment(ctx, entity.DoctorActor(doctor.UserID), appt.ID), ErrAccessDenied)
	require.NoError(t, uc.DeleteAppointment(ctx, entity.AdminActor(uuid.New()), appt.ID))
	assert.ErrorIs(t, uc.DeleteAppointment(ctx, entity.AdminActor(uuid.New()), appt.ID), ErrAppointmentNotFound)
}
