package handler

import (
	"net/http"
	"time"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/usecase"
	"clinic-management-api/pkg/response"
	"clinic-management-api/pkg/validator"

	"github.com/google/uuid"
)

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	validator          *validator.CustomValidator
}

func NewAppointmentHandler(appointmentUsecase usecase.AppointmentUsecase, validator *validator.CustomValidator) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		validator:          validator,
	}
}

func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req dto.CreateAppointmentRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	appointment, err := h.appointmentUsecase.CreateAppointment(r.Context(), actor, &req)
	if err != nil {
		writeError(w, err, "Failed to create appointment")
		return
	}

	response.Success(w, http.StatusCreated, "Appointment created successfully", appointment)
}

// GetAllAppointments accepts ?status=, ?from= and ?to= (RFC 3339).
func (h *AppointmentHandler) GetAllAppointments(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	from, err := queryTime(r, "from")
	if err != nil {
		response.BadRequest(w, "Invalid from parameter, expected RFC 3339")
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		response.BadRequest(w, "Invalid to parameter, expected RFC 3339")
		return
	}

	appointments, err := h.appointmentUsecase.ListAppointments(r.Context(), actor, &dto.AppointmentListQuery{
		Status: r.URL.Query().Get("status"),
		From:   from,
		To:     to,
	})
	if err != nil {
		writeError(w, err, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.GetAppointment(r.Context(), actor, appointmentID)
	if err != nil {
		writeError(w, err, "Failed to get appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved successfully", appointment)
}

// slotQuery reads the dateTime and duration query parameters shared by the
// availability endpoints.
func slotQuery(w http.ResponseWriter, r *http.Request) (time.Time, int, bool) {
	at, err := queryTime(r, "dateTime")
	if err != nil || at == nil {
		response.BadRequest(w, "dateTime query parameter is required in RFC 3339 format")
		return time.Time{}, 0, false
	}
	duration, err := queryInt(r, "duration")
	if err != nil {
		response.BadRequest(w, "Invalid duration parameter")
		return time.Time{}, 0, false
	}
	return *at, duration, true
}

func (h *AppointmentHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := pathUUID(w, r, "doctorId", "doctor")
	if !ok {
		return
	}
	at, duration, ok := slotQuery(w, r)
	if !ok {
		return
	}

	availability, err := h.appointmentUsecase.CheckAvailability(r.Context(), doctorID, at, duration)
	if err != nil {
		writeError(w, err, "Failed to check availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability checked", availability)
}

func (h *AppointmentHandler) CanBook(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	doctorID, ok := pathUUID(w, r, "doctorId", "doctor")
	if !ok {
		return
	}
	at, duration, ok := slotQuery(w, r)
	if !ok {
		return
	}

	var patientID *uuid.UUID
	if raw := r.URL.Query().Get("patientId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(w, "Invalid patient ID")
			return
		}
		patientID = &id
	}

	result, err := h.appointmentUsecase.CanBook(r.Context(), actor, doctorID, patientID, at, duration)
	if err != nil {
		writeError(w, err, "Failed to check booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking checked", result)
}

func (h *AppointmentHandler) ApproveAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.ApproveAppointment(r.Context(), actor, appointmentID)
	if err != nil {
		writeError(w, err, "Failed to approve appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment approved successfully", appointment)
}

func (h *AppointmentHandler) RejectAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	var req dto.RejectAppointmentRequest
	if !decodeOptional(w, r, h.validator, &req) {
		return
	}

	appointment, err := h.appointmentUsecase.RejectAppointment(r.Context(), actor, appointmentID, &req)
	if err != nil {
		writeError(w, err, "Failed to reject appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment rejected successfully", appointment)
}

func (h *AppointmentHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.CancelAppointment(r.Context(), actor, appointmentID)
	if err != nil {
		writeError(w, err, "Failed to cancel appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment cancelled successfully", appointment)
}

func (h *AppointmentHandler) CompleteAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	var req dto.CompleteAppointmentRequest
	if !decodeOptional(w, r, h.validator, &req) {
		return
	}

	appointment, err := h.appointmentUsecase.CompleteAppointment(r.Context(), actor, appointmentID, &req)
	if err != nil {
		writeError(w, err, "Failed to complete appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment completed successfully", appointment)
}

func (h *AppointmentHandler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	appointmentID, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	if err := h.appointmentUsecase.DeleteAppointment(r.Context(), actor, appointmentID); err != nil {
		writeError(w, err, "Failed to delete appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment deleted successfully", nil)
}
