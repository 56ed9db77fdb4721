package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecostep/backend/internal/ledger"
	"github.com/ecostep/backend/internal/services"
)

func activityTestHandler() *ActivityHandler {
	estimator := services.NewEstimatorService()
	footprint := services.NewFootprintService(nil, ledger.NewRegistry())
	return NewActivityHandler(estimator, footprint)
}

func authedJSONRequest(target string, payload string) *http.Request {
	r := httptest.NewRequest("POST", target, bytes.NewBufferString(payload))
	return r.WithContext(context.WithValue(r.Context(), "accountID", "1234567890"))
}

func TestActivityHandler_LogTransport(t *testing.T) {
	handler := activityTestHandler()

	t.Run("records an estimated trip", func(t *testing.T) {
		w := httptest.NewRecorder()

		handler.LogTransport(w, authedJSONRequest("/activities/transport", `{"mode":"Car","distanceKm":100}`))

		assert.Equal(t, http.StatusOK, w.Code)
		var response services.RecordActivityResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, ledger.Transport, response.Event.Category)
		assert.Equal(t, 21.8, response.Event.AmountKg)
		assert.Equal(t, "Car", response.Event.Details["mode"])
		assert.NotNil(t, response.Outcome.Reward)
	})

	t.Run("unknown mode", func(t *testing.T) {
		w := httptest.NewRecorder()

		handler.LogTransport(w, authedJSONRequest("/activities/transport", `{"mode":"Teleporter","distanceKm":10}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing mode fails validation", func(t *testing.T) {
		w := httptest.NewRecorder()

		handler.LogTransport(w, authedJSONRequest("/activities/transport", `{"distanceKm":10}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		w := httptest.NewRecorder()

		handler.LogTransport(w, authedJSONRequest("/activities/transport", `{"mode":"Car","distanceKm":10,"extra":1}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/activities/transport", bytes.NewBufferString(`{"mode":"Car","distanceKm":10}`))
		w := httptest.NewRecorder()

		handler.LogTransport(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestActivityHandler_LogFood(t *testing.T) {
	handler := activityTestHandler()

	t.Run("records a meal", func(t *testing.T) {
		w := httptest.NewRecorder()

		handler.LogFood(w, authedJSONRequest("/activities/food", `{"items":[{"name":"beef","servings":1}]}`))

		assert.Equal(t, http.StatusOK, w.Code)
		var response services.RecordActivityResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, ledger.Food, response.Event.Category)
		assert.Equal(t, 27.0, response.Event.AmountKg)
		// beef alone crosses the 0.5 kg food threshold
		assert.NotNil(t, response.Outcome.Alert)
	})

	t.Run("empty items fail validation", func(t *testing.T) {
		w := httptest.NewRecorder()

		handler.LogFood(w, authedJSONRequest("/activities/food", `{"items":[]}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no recognized items", func(t *testing.T) {
		w := httptest.NewRecorder()

		handler.LogFood(w, authedJSONRequest("/activities/food", `{"items":[{"name":"space food","servings":2}]}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestActivityHandler_LogEnergy(t *testing.T) {
	handler := activityTestHandler()

	t.Run("records a reading", func(t *testing.T) {
		w := httptest.NewRecorder()

		handler.LogEnergy(w, authedJSONRequest("/activities/energy", `{"consumptionKwh":100}`))

		assert.Equal(t, http.StatusOK, w.Code)
		var response services.RecordActivityResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, ledger.Energy, response.Event.Category)
		assert.Equal(t, 23.3, response.Event.AmountKg)
	})

	t.Run("negative reading fails validation", func(t *testing.T) {
		w := httptest.NewRecorder()

		handler.LogEnergy(w, authedJSONRequest("/activities/energy", `{"consumptionKwh":-1}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestActivityHandler_GetTransportModes(t *testing.T) {
	handler := activityTestHandler()

	r := httptest.NewRequest("GET", "/activities/transport-modes", nil)
	w := httptest.NewRecorder()

	handler.GetTransportModes(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	var modes []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &modes))
	assert.Contains(t, modes, "Car")
	assert.Contains(t, modes, "Airplane")
}
