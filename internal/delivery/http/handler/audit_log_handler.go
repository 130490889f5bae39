package handler

import (
	"net/http"
	"strconv"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/usecase"
	"clinic-management-api/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AuditLogHandler struct {
	auditLogUsecase usecase.AuditLogUsecase
}

func NewAuditLogHandler(auditLogUsecase usecase.AuditLogUsecase) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUsecase: auditLogUsecase,
	}
}

func (h *AuditLogHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	auditLogID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid audit log ID", nil)
		return
	}

	auditLog, err := h.auditLogUsecase.GetAuditLog(r.Context(), actor, auditLogID)
	if err != nil {
		writeError(w, err, "Failed to get audit log")
		return
	}

	response.Success(w, http.StatusOK, "Audit log retrieved successfully", auditLog)
}

// GetAllAuditLogs accepts user_id, action, entity_type, entity_id, from, to, limit
// and offset query parameters.
func (h *AuditLogHandler) GetAllAuditLogs(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	query := dto.AuditLogQuery{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
	}

	if raw := q.Get("user_id"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(w, "Invalid user ID")
			return
		}
		query.UserID = &userID
	}

	var err error
	if query.From, err = queryTime(r, "from"); err != nil {
		response.BadRequest(w, "Invalid from parameter, expected RFC 3339")
		return
	}
	if query.To, err = queryTime(r, "to"); err != nil {
		response.BadRequest(w, "Invalid to parameter, expected RFC 3339")
		return
	}
	if query.Limit, err = queryInt(r, "limit"); err != nil {
		response.BadRequest(w, "Invalid limit parameter")
		return
	}
	if query.Offset, err = queryInt(r, "offset"); err != nil {
		response.BadRequest(w, "Invalid offset parameter")
		return
	}

	logs, err := h.auditLogUsecase.ListAuditLogs(r.Context(), actor, query)
	if err != nil {
		writeError(w, err, "Failed to get audit logs")
		return
	}

	response.Success(w, http.StatusOK, "Audit logs retrieved successfully", logs)
}
