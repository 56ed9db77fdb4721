package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/ecostep/backend/internal/ledger"
	"github.com/ecostep/backend/internal/services"
)

// ActivityHandler exposes the estimator-backed logging endpoints: each one
// estimates an activity's emissions and records it in a single call.
type ActivityHandler struct {
	estimator *services.EstimatorService
	footprint *services.FootprintService
	validator *services.ValidationHelper
}

func NewActivityHandler(estimator *services.EstimatorService, footprint *services.FootprintService) *ActivityHandler {
	return &ActivityHandler{
		estimator: estimator,
		footprint: footprint,
		validator: services.NewValidationHelper(),
	}
}

// LogTransport estimates and records a trip
// @Summary Log a transport activity
// @Description Estimate a trip's emissions from mode and distance and record it
// @Tags activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{mode=string,distanceKm=number} true "Trip"
// @Success 200 {object} services.RecordActivityResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /activities/transport [post]
func (h *ActivityHandler) LogTransport(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Mode       string  `json:"mode" validate:"required"`
		DistanceKm float64 `json:"distanceKm" validate:"gte=0"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	estimate, err := h.estimator.EstimateTransport(req.Mode, req.DistanceKm)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	h.record(w, accountID, estimate)
}

// LogFood estimates and records a meal
// @Summary Log a food activity
// @Description Estimate a meal's emissions from recognized items and record it
// @Tags activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{items=[]services.FoodItem} true "Meal"
// @Success 200 {object} services.RecordActivityResponse
// @Failure 400 {object} services.ErrorResponse
// @Router /activities/food [post]
func (h *ActivityHandler) LogFood(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Items []services.FoodItem `json:"items" validate:"required,min=1,dive"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	estimate, err := h.estimator.EstimateFood(req.Items)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	h.record(w, accountID, estimate)
}

// LogEnergy estimates and records an electricity reading
// @Summary Log an energy activity
// @Description Estimate emissions from a consumption reading and record it
// @Tags activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{consumptionKwh=number} true "Reading"
// @Success 200 {object} services.RecordActivityResponse
// @Failure 400 {object} services.ErrorResponse
// @Router /activities/energy [post]
func (h *ActivityHandler) LogEnergy(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		ConsumptionKwh float64 `json:"consumptionKwh" validate:"gte=0"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	estimate, err := h.estimator.EstimateEnergy(req.ConsumptionKwh)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	h.record(w, accountID, estimate)
}

// GetTransportModes lists supported transport modes
// @Summary List transport modes
// @Tags activities
// @Produce json
// @Success 200 {array} string
// @Router /activities/transport-modes [get]
func (h *ActivityHandler) GetTransportModes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.estimator.TransportModes())
}

func (h *ActivityHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		log.Printf("[ACTIVITY] Decode error: %v", err)
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	if err := h.validator.ValidateStruct(dst); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}

func (h *ActivityHandler) record(w http.ResponseWriter, accountID string, estimate services.Estimate) {
	event, outcome, err := h.footprint.Record(accountID, estimate.Category, estimate.AmountKg, estimate.Details)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ledger.ErrInvalidCategory) || errors.Is(err, ledger.ErrInvalidAmount) {
			status = http.StatusBadRequest
		}
		services.SendErrorResponse(w, err.Error(), status, nil)
		return
	}

	log.Printf("[ACTIVITY] Logged %s activity of %.2f kg for account %s", estimate.Category, event.AmountKg, accountID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(services.RecordActivityResponse{Event: event, Outcome: outcome})
}
