package http

import (
	"net/http"

	"clinic-management-api/internal/delivery/http/handler"
	"clinic-management-api/internal/delivery/http/middleware"
	"clinic-management-api/internal/domain/entity"

	"github.com/gorilla/mux"
)

type Router struct {
	router                     *mux.Router
	authHandler                *handler.AuthHandler
	doctorHandler              *handler.DoctorHandler
	patientHandler             *handler.PatientHandler
	medicalRecordHandler       *handler.MedicalRecordHandler
	familyDoctorRequestHandler *handler.FamilyDoctorRequestHandler
	appointmentHandler         *handler.AppointmentHandler
	auditLogHandler            *handler.AuditLogHandler
	healthHandler              *handler.HealthHandler
	metricsHandler             http.Handler
	authMiddleware             *middleware.AuthMiddleware
	corsMiddleware             *middleware.CORSMiddleware
	rateLimitMiddleware        *middleware.RateLimitMiddleware
	metricsMiddleware          *middleware.MetricsMiddleware
}

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Auth                *handler.AuthHandler
	Doctor              *handler.DoctorHandler
	Patient             *handler.PatientHandler
	MedicalRecord       *handler.MedicalRecordHandler
	FamilyDoctorRequest *handler.FamilyDoctorRequestHandler
	Appointment         *handler.AppointmentHandler
	AuditLog            *handler.AuditLogHandler
	Health              *handler.HealthHandler
	Metrics             http.Handler
}

func NewRouter(
	handlers Handlers,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	metricsMiddleware *middleware.MetricsMiddleware,
) *Router {
	return &Router{
		router:                     mux.NewRouter(),
		authHandler:                handlers.Auth,
		doctorHandler:              handlers.Doctor,
		patientHandler:             handlers.Patient,
		medicalRecordHandler:       handlers.MedicalRecord,
		familyDoctorRequestHandler: handlers.FamilyDoctorRequest,
		appointmentHandler:         handlers.Appointment,
		auditLogHandler:            handlers.AuditLog,
		healthHandler:              handlers.Health,
		metricsHandler:             handlers.Metrics,
		authMiddleware:             authMiddleware,
		corsMiddleware:             corsMiddleware,
		rateLimitMiddleware:        rateLimitMiddleware,
		metricsMiddleware:          metricsMiddleware,
	}
}

func only(mw func(http.Handler) http.Handler, fn http.HandlerFunc) http.Handler {
	return mw(fn)
}

func (r *Router) Setup() *mux.Router {
	if r.metricsHandler != nil {
		r.router.Handle("/metrics", r.metricsHandler).Methods(http.MethodGet)
	}

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()
	api.Use(r.rateLimitMiddleware.Handle)

	// Health check
	api.HandleFunc("/health", r.healthHandler.Health).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register/patient", r.authHandler.RegisterPatient).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Everything below requires a bearer token
	protected := api.NewRoute().Subrouter()
	protected.Use(r.authMiddleware.Authenticate)

	protected.HandleFunc("/auth/logout", r.authHandler.Logout).Methods(http.MethodPost)
	protected.HandleFunc("/auth/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)

	// Doctors
	doctors := protected.PathPrefix("/doctors").Subrouter()
	doctors.HandleFunc("", r.doctorHandler.GetAllDoctors).Methods(http.MethodGet)
	doctors.Handle("", only(middleware.RequireAdmin, r.doctorHandler.CreateDoctor)).Methods(http.MethodPost)
	doctors.HandleFunc("/{id}", r.doctorHandler.GetDoctor).Methods(http.MethodGet)
	doctors.Handle("/{id}", only(middleware.RequireAdmin, r.doctorHandler.UpdateDoctor)).Methods(http.MethodPut)
	doctors.Handle("/{id}", only(middleware.RequireAdmin, r.doctorHandler.DeleteDoctor)).Methods(http.MethodDelete)
	doctors.Handle("/{id}/schedule", only(middleware.RequireAdminOrDoctor, r.doctorHandler.UpdateSchedule)).Methods(http.MethodPut)
	doctors.Handle("/{id}/availability", only(middleware.RequireAdminOrDoctor, r.doctorHandler.UpdateAvailability)).Methods(http.MethodPatch)

	// Patients
	patients := protected.PathPrefix("/patients").Subrouter()
	patients.Handle("", only(middleware.RequireAdmin, r.patientHandler.CreatePatient)).Methods(http.MethodPost)
	patients.Handle("", only(middleware.RequireAdminOrDoctor, r.patientHandler.GetAllPatients)).Methods(http.MethodGet)
	patients.HandleFunc("/{id}", r.patientHandler.GetPatient).Methods(http.MethodGet)
	patients.HandleFunc("/{id}", r.patientHandler.UpdatePatient).Methods(http.MethodPut)
	patients.Handle("/{id}", only(middleware.RequireAdmin, r.patientHandler.DeletePatient)).Methods(http.MethodDelete)

	// Family doctor (admin manages, can-view guard reads)
	patients.HandleFunc("/{id}/family-doctor", r.patientHandler.GetFamilyDoctor).Methods(http.MethodGet)
	patients.Handle("/{id}/family-doctor", only(middleware.RequireAdmin, r.patientHandler.AssignFamilyDoctor)).Methods(http.MethodPost)
	patients.Handle("/{id}/family-doctor", only(middleware.RequireAdmin, r.patientHandler.ChangeFamilyDoctor)).Methods(http.MethodPatch)
	patients.Handle("/{id}/family-doctor", only(middleware.RequireAdmin, r.patientHandler.RemoveFamilyDoctor)).Methods(http.MethodDelete)
	patients.HandleFunc("/{id}/family-doctor/history", r.patientHandler.GetFamilyDoctorHistory).Methods(http.MethodGet)

	// Medical records
	patients.HandleFunc("/{id}/allergies", r.medicalRecordHandler.GetAllergies).Methods(http.MethodGet)
	patients.Handle("/{id}/allergies", only(middleware.RequireAdminOrDoctor, r.medicalRecordHandler.AddAllergy)).Methods(http.MethodPost)
	patients.HandleFunc("/{id}/medications", r.medicalRecordHandler.GetMedications).Methods(http.MethodGet)
	patients.Handle("/{id}/medications", only(middleware.RequireAdminOrDoctor, r.medicalRecordHandler.AddMedication)).Methods(http.MethodPost)
	patients.HandleFunc("/{id}/can-prescribe", r.medicalRecordHandler.CanPrescribe).Methods(http.MethodGet)

	// Family doctor requests
	requests := protected.PathPrefix("/family-doctor-requests").Subrouter()
	requests.Handle("", only(middleware.RequirePatient, r.familyDoctorRequestHandler.CreateRequest)).Methods(http.MethodPost)
	requests.HandleFunc("", r.familyDoctorRequestHandler.GetAllRequests).Methods(http.MethodGet)
	requests.HandleFunc("/{id}", r.familyDoctorRequestHandler.GetRequest).Methods(http.MethodGet)
	requests.Handle("/{id}/approve", only(middleware.RequireAdminOrDoctor, r.familyDoctorRequestHandler.ApproveRequest)).Methods(http.MethodPatch)
	requests.Handle("/{id}/reject", only(middleware.RequireAdminOrDoctor, r.familyDoctorRequestHandler.RejectRequest)).Methods(http.MethodPatch)

	// Appointments
	appointments := protected.PathPrefix("/appointments").Subrouter()
	appointments.HandleFunc("", r.appointmentHandler.CreateAppointment).Methods(http.MethodPost)
	appointments.HandleFunc("", r.appointmentHandler.GetAllAppointments).Methods(http.MethodGet)
	appointments.HandleFunc("/check-availability/{doctorId}", r.appointmentHandler.CheckAvailability).Methods(http.MethodGet)
	appointments.HandleFunc("/can-book/{doctorId}", r.appointmentHandler.CanBook).Methods(http.MethodGet)
	appointments.HandleFunc("/{id}", r.appointmentHandler.GetAppointment).Methods(http.MethodGet)
	appointments.Handle("/{id}", only(middleware.RequireAdmin, r.appointmentHandler.DeleteAppointment)).Methods(http.MethodDelete)
	appointments.Handle("/{id}/approve", only(middleware.RequireAdminOrDoctor, r.appointmentHandler.ApproveAppointment)).Methods(http.MethodPut)
	appointments.Handle("/{id}/reject", only(middleware.RequireAdminOrDoctor, r.appointmentHandler.RejectAppointment)).Methods(http.MethodPut)
	appointments.HandleFunc("/{id}/cancel", r.appointmentHandler.CancelAppointment).Methods(http.MethodPut)
	appointments.Handle("/{id}/complete", only(middleware.RequireAdminOrDoctor, r.appointmentHandler.CompleteAppointment)).Methods(http.MethodPut)

	// Admin routes (protected - admin only)
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireRole(entity.ActorAdmin))
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	r.router.Use(r.metricsMiddleware.Handle)

	return r.router
}

// Handler returns the configured router wrapped in CORS.
func (r *Router) Handler() http.Handler {
	return r.corsMiddleware.Handle(r.Setup())
}
