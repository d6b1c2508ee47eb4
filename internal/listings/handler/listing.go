package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"staybook/internal/listings/service"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"
)

type ListingHandler struct {
	service service.ListingService
	log     *logger.Logger
}

func NewListingHandler(service service.ListingService, log *logger.Logger) *ListingHandler {
	return &ListingHandler{
		service: service,
		log:     log,
	}
}

func (h *ListingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listing, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, listing); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ListingHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	criteria, err := parseCriteria(r.URL.Query())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Search", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	listings, err := h.service.Search(r.Context(), criteria)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Search", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteList(w, listings, len(listings)); err != nil {
		h.log.Error("failed to write list response", "handler", "Search", "operation", "WriteList", "error", err)
	}
}

func (h *ListingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/listings/id/:id", h.GetByID)
	router.GET("/api/v1/listings/search", h.Search)
}

func parseCriteria(query url.Values) (model.ListingCriteria, error) {
	var c model.ListingCriteria

	if raw := query.Get("min_price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return c, apperrors.InvalidInput("min_price must be a number")
		}
		c.MinPrice = &v
	}
	if raw := query.Get("max_price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return c, apperrors.InvalidInput("max_price must be a number")
		}
		c.MaxPrice = &v
	}
	if raw := sanitizer.NormalizeLabel(query.Get("property_type")); raw != "" {
		pt, err := model.ParsePropertyType(raw)
		if err != nil {
			return c, apperrors.InvalidInput(err.Error())
		}
		c.PropertyType = &pt
	}
	if raw := query.Get("bedrooms"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return c, apperrors.InvalidInput("bedrooms must be an integer")
		}
		c.MinBedrooms = &v
	}
	return c, nil
}
