package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"staybook/internal/reservations/service"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

type ReservationHandler struct {
	service service.ReservationService
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

type transitionRequest struct {
	Status *model.Status `json:"status"`
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid request body")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	req.ResourceID = ps.ByName("resource_id")

	reservation, err := h.service.Admit(r.Context(), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, reservation); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var status *model.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := parseStatusParam(raw)
		if err != nil {
			if writeErr := httputil.WriteError(w, apperrors.InvalidInput("invalid status filter, use a status name or code")); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
			}
			return
		}
		status = &parsed
	}

	reservations, err := h.service.ListByResource(r.Context(), ps.ByName("resource_id"), status)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteList(w, reservations, len(reservations)); err != nil {
		h.log.Error("failed to write list response", "handler", "List", "operation", "WriteList", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservation, err := h.service.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Amend(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var amendment model.ReservationAmendment
	if err := json.NewDecoder(r.Body).Decode(&amendment); err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid request body")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Amend", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	reservation, err := h.service.Amend(r.Context(), ps.ByName("id"), amendment)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Amend", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "Amend", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Transition(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Request body must carry a valid status")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Transition", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	reservation, err := h.service.Transition(r.Context(), ps.ByName("id"), *req.Status)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Transition", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "Transition", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/resources/:resource_id/reservations", h.Create)
	router.GET("/api/v1/resources/:resource_id/reservations", h.List)
	router.GET("/api/v1/reservations/id/:id", h.GetByID)
	router.PATCH("/api/v1/reservations/id/:id", h.Amend)
	router.POST("/api/v1/reservations/id/:id/transition", h.Transition)
}

func parseStatusParam(raw string) (model.Status, error) {
	if code, err := strconv.Atoi(raw); err == nil {
		status := model.Status(code)
		if !status.Valid() {
			return 0, apperrors.InvalidInput("unknown status code")
		}
		return status, nil
	}
	return model.ParseStatus(raw)
}
