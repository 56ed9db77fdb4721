package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/ecostep/backend/internal/services"
)

type ShareHandler struct {
	service   *services.ShareService
	validator *services.ValidationHelper
}

func NewShareHandler(service *services.ShareService) *ShareHandler {
	return &ShareHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// GenerateShare creates a share code for the caller's dashboard
// @Summary Generate a dashboard share code
// @Description Capture the current totals behind a single-use code with a QR image
// @Tags share
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{code=string,url=string,qrImage=string,expiresIn=int}
// @Failure 401 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Router /share/generate [post]
func (h *ShareHandler) GenerateShare(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	code, shareURL, qrImage, err := h.service.GenerateShare(r.Context(), accountID)
	if err != nil {
		log.Printf("[SHARE] Generate failed for account %s: %v", accountID, err)
		services.SendErrorResponse(w, "Failed to generate share code", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"code":    code,
		"url":     shareURL,
		"qrImage": qrImage,
	})
}

// ResolveShare consumes a share code
// @Summary Resolve a dashboard share code
// @Description Resolve and consume a single-use share code
// @Tags share
// @Accept json
// @Produce json
// @Param request body object{code=string} true "Share code"
// @Success 200 {object} services.ShareSnapshot
// @Failure 400 {object} services.ErrorResponse
// @Router /share/resolve [post]
func (h *ShareHandler) ResolveShare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code" validate:"required"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	snapshot, err := h.service.ResolveShare(r.Context(), req.Code)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}
