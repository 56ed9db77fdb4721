package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ecostep/backend/internal/audit"
	"github.com/ecostep/backend/internal/ledger"
	"github.com/ecostep/backend/internal/metrics"
	"github.com/ecostep/backend/internal/models"
)

// FootprintService exposes the per-user footprint ledger over HTTP and owns
// the persisted onboarding snapshot.
type FootprintService struct {
	db        *sql.DB
	ledgers   *ledger.Registry
	validator *ValidationHelper
	audit     *audit.Logger
}

// RecordActivityRequest logs a pre-estimated activity.
// @Description Activity record request
type RecordActivityRequest struct {
	Category string            `json:"category" validate:"required,oneof=Transport Food Energy" example:"Transport"`
	AmountKg float64           `json:"amountKg" example:"12.42"` // kg CO2, already estimated
	Details  map[string]string `json:"details,omitempty"`
}

// RecordActivityResponse carries the created event and its outcome.
// @Description Activity record response
type RecordActivityResponse struct {
	Event   ledger.FootprintEvent `json:"event"`
	Outcome ledger.Outcome        `json:"outcome"`
}

// InitialFootprintRequest is the onboarding questionnaire result.
// @Description Initial footprint snapshot request
type InitialFootprintRequest struct {
	FoodFootprint      float64 `json:"foodFootprint" validate:"gte=0"`
	TransportFootprint float64 `json:"transportFootprint" validate:"gte=0"`
	EnergyFootprint    float64 `json:"energyFootprint" validate:"gte=0"`
	TotalFootprint     float64 `json:"totalFootprint" validate:"gte=0"`
}

func NewFootprintService(db *sql.DB, ledgers *ledger.Registry) *FootprintService {
	return &FootprintService{
		db:        db,
		ledgers:   ledgers,
		validator: NewValidationHelper(),
		audit:     audit.NewLogger(),
	}
}

// Record appends one activity to the account's ledger and updates metrics
// and the audit trail. Shared by the JSON handler and the estimator
// endpoints.
func (s *FootprintService) Record(accountID string, category ledger.Category, amountKg float64, details map[string]string) (ledger.FootprintEvent, ledger.Outcome, error) {
	event, outcome, err := s.ledgers.For(accountID).RecordActivity(category, amountKg, details)
	if err != nil {
		s.audit.LogError(accountID, "RECORD_ACTIVITY", err)
		return event, outcome, err
	}

	label := string(category)
	metrics.ActivitiesRecorded.WithLabelValues(label).Inc()
	if event.AmountKg > 0 {
		metrics.EmissionsRecordedKg.WithLabelValues(label).Add(event.AmountKg)
	}
	outcomeKind := "reward"
	if outcome.Alert != nil {
		outcomeKind = "alert"
		metrics.AlertsEmitted.WithLabelValues(label).Inc()
	} else {
		metrics.RewardsEmitted.WithLabelValues(label).Inc()
	}
	s.audit.LogActivity(accountID, label, event.AmountKg, outcomeKind)
	return event, outcome, nil
}

// RecordActivity logs a pre-estimated activity
// @Summary Record a footprint activity
// @Description Append an activity with an already-estimated kg CO2 amount
// @Tags footprint
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RecordActivityRequest true "Activity"
// @Success 200 {object} RecordActivityResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /activities [post]
func (s *FootprintService) RecordActivity(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req RecordActivityRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	event, outcome, err := s.Record(accountID, ledger.Category(req.Category), req.AmountKg, req.Details)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ledger.ErrInvalidCategory) || errors.Is(err, ledger.ErrInvalidAmount) {
			status = http.StatusBadRequest
		}
		SendErrorResponse(w, err.Error(), status, nil)
		return
	}

	log.Printf("[FOOTPRINT] Recorded %s activity of %.2f kg for account %s", req.Category, event.AmountKg, accountID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RecordActivityResponse{Event: event, Outcome: outcome})
}

// GetDashboard aggregates the event log over a window
// @Summary Windowed dashboard
// @Description Aggregate footprint events over a daily, weekly or monthly window
// @Tags footprint
// @Produce json
// @Security BearerAuth
// @Param mode query string true "daily, weekly or monthly"
// @Param date query string false "daily: date as 2006-01-02"
// @Param week query int false "weekly: 1-based block index in month"
// @Param month query int false "weekly/monthly: month number"
// @Param year query int false "weekly/monthly: year, defaults to current"
// @Success 200 {object} ledger.WindowReport
// @Failure 400 {object} ErrorResponse
// @Router /footprint/dashboard [get]
func (s *FootprintService) GetDashboard(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	q, err := parseWindowQuery(r)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	report := s.ledgers.For(accountID).QueryWindow(q)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// GetHistory returns the full chronological event log
// @Summary Activity history
// @Tags footprint
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ledger.FootprintEvent
// @Router /footprint/history [get]
func (s *FootprintService) GetHistory(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.ledgers.For(accountID).History())
}

// GetAlerts returns retained threshold alerts
// @Summary Threshold alerts
// @Tags footprint
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ledger.AlertRecord
// @Router /footprint/alerts [get]
func (s *FootprintService) GetAlerts(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.ledgers.For(accountID).Alerts())
}

// GetRewards returns retained reward notifications
// @Summary Reward notifications
// @Tags footprint
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ledger.RewardRecord
// @Router /footprint/rewards [get]
func (s *FootprintService) GetRewards(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.ledgers.For(accountID).Rewards())
}

// SaveInitialFootprint persists the onboarding questionnaire snapshot
// @Summary Save initial footprint snapshot
// @Tags footprint
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body InitialFootprintRequest true "Snapshot"
// @Success 201 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /footprint/initial [post]
func (s *FootprintService) SaveInitialFootprint(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req InitialFootprintRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	_, err := s.db.Exec(
		"INSERT INTO initial_footprints (account_id, food_footprint, transport_footprint, energy_footprint, total_footprint) VALUES ($1, $2, $3, $4, $5)",
		accountID, req.FoodFootprint, req.TransportFootprint, req.EnergyFootprint, req.TotalFootprint)
	if err != nil {
		log.Printf("[FOOTPRINT] Snapshot insert failed for account %s: %v", accountID, err)
		SendErrorResponse(w, "Initial footprint already recorded", http.StatusConflict, nil)
		return
	}

	log.Printf("[FOOTPRINT] Initial snapshot saved for account %s", accountID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"message": "Carbon footprint saved successfully"})
}

// InitialFootprintStatus reports whether the onboarding snapshot exists
// @Summary Check initial footprint
// @Tags footprint
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]bool
// @Router /footprint/initial/status [get]
func (s *FootprintService) InitialFootprintStatus(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var fp models.InitialFootprint
	err := s.db.QueryRow(
		"SELECT id, account_id, food_footprint, transport_footprint, energy_footprint, total_footprint, created_at FROM initial_footprints WHERE account_id = $1",
		accountID).Scan(&fp.ID, &fp.AccountID, &fp.FoodFootprint, &fp.TransportFootprint, &fp.EnergyFootprint, &fp.TotalFootprint, &fp.CreatedAt)

	w.Header().Set("Content-Type", "application/json")
	switch {
	case err == sql.ErrNoRows:
		json.NewEncoder(w).Encode(map[string]bool{"exists": false})
	case err != nil:
		log.Printf("[FOOTPRINT] Snapshot lookup failed for account %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to check carbon footprint", http.StatusInternalServerError, nil)
	default:
		json.NewEncoder(w).Encode(map[string]bool{"exists": true})
	}
}

// parseWindowQuery maps dashboard query parameters onto a ledger window
// selector.
func parseWindowQuery(r *http.Request) (ledger.WindowQuery, error) {
	mode, err := ledger.ParseWindowMode(r.URL.Query().Get("mode"))
	if err != nil {
		return ledger.WindowQuery{}, err
	}

	q := ledger.WindowQuery{Mode: mode}

	switch mode {
	case ledger.Daily:
		raw := r.URL.Query().Get("date")
		if raw == "" {
			q.Date = time.Now()
			return q, nil
		}
		date, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return ledger.WindowQuery{}, errors.New("date must be formatted as 2006-01-02")
		}
		q.Date = date
	case ledger.Weekly, ledger.Monthly:
		month, err := strconv.Atoi(r.URL.Query().Get("month"))
		if err != nil || month < 1 || month > 12 {
			return ledger.WindowQuery{}, errors.New("month must be between 1 and 12")
		}
		q.Month = time.Month(month)
		if raw := r.URL.Query().Get("year"); raw != "" {
			year, err := strconv.Atoi(raw)
			if err != nil {
				return ledger.WindowQuery{}, errors.New("year must be a number")
			}
			q.Year = year
		}
		if mode == ledger.Weekly {
			week, err := strconv.Atoi(r.URL.Query().Get("week"))
			if err != nil {
				return ledger.WindowQuery{}, errors.New("week must be a number")
			}
			q.Week = week
		}
	}
	return q, nil
}
