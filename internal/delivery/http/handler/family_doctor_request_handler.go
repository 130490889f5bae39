package handler

import (
	"net/http"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/usecase"
	"clinic-management-api/pkg/response"
	"clinic-management-api/pkg/validator"
)

type FamilyDoctorRequestHandler struct {
	requestUsecase usecase.FamilyDoctorRequestUsecase
	validator      *validator.CustomValidator
}

func NewFamilyDoctorRequestHandler(requestUsecase usecase.FamilyDoctorRequestUsecase, validator *validator.CustomValidator) *FamilyDoctorRequestHandler {
	return &FamilyDoctorRequestHandler{
		requestUsecase: requestUsecase,
		validator:      validator,
	}
}

func (h *FamilyDoctorRequestHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req dto.CreateFamilyDoctorRequestRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	request, err := h.requestUsecase.CreateRequest(r.Context(), actor, &req)
	if err != nil {
		writeError(w, err, "Failed to create family doctor request")
		return
	}

	response.Success(w, http.StatusCreated, "Family doctor request created successfully", request)
}

func (h *FamilyDoctorRequestHandler) GetAllRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	requests, err := h.requestUsecase.ListRequests(r.Context(), actor, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err, "Failed to get family doctor requests")
		return
	}

	response.Success(w, http.StatusOK, "Family doctor requests retrieved successfully", requests)
}

func (h *FamilyDoctorRequestHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	requestID, ok := pathUUID(w, r, "id", "request")
	if !ok {
		return
	}

	request, err := h.requestUsecase.GetRequest(r.Context(), actor, requestID)
	if err != nil {
		writeError(w, err, "Failed to get family doctor request")
		return
	}

	response.Success(w, http.StatusOK, "Family doctor request retrieved successfully", request)
}

func (h *FamilyDoctorRequestHandler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	requestID, ok := pathUUID(w, r, "id", "request")
	if !ok {
		return
	}

	var req dto.RespondFamilyDoctorRequestRequest
	if !decodeOptional(w, r, h.validator, &req) {
		return
	}

	request, err := h.requestUsecase.ApproveRequest(r.Context(), actor, requestID, &req)
	if err != nil {
		writeError(w, err, "Failed to approve family doctor request")
		return
	}

	response.Success(w, http.StatusOK, "Family doctor request approved successfully", request)
}

func (h *FamilyDoctorRequestHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	requestID, ok := pathUUID(w, r, "id", "request")
	if !ok {
		return
	}

	var req dto.RespondFamilyDoctorRequestRequest
	if !decodeOptional(w, r, h.validator, &req) {
		return
	}

	request, err := h.requestUsecase.RejectRequest(r.Context(), actor, requestID, &req)
	if err != nil {
		writeError(w, err, "Failed to reject family doctor request")
		return
	}

	response.Success(w, http.StatusOK, "Family doctor request rejected successfully", request)
}
