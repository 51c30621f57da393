package quickentry

import (
	"encoding/json"
	"net/http"

	"github.com/renatodap/fitness-backend/internal/apierr"
	"github.com/renatodap/fitness-backend/internal/userctx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandlePreview classifies without saving.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		apierr.Write(w, apierr.New(apierr.Unauthenticated, "Unauthorized"))
		return
	}

	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		apierr.Write(w, apierr.New(apierr.InvalidInput, "Invalid request body"))
		return
	}

	result, err := h.service.Preview(r.Context(), userID, input)
	if err != nil {
		apierr.Write(w, apierr.Wrap(apierr.Internal, "Preview failed", err))
		return
	}
	writeJSON(w, result)
}

// HandleConfirm saves a user-approved classification.
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		apierr.Write(w, apierr.New(apierr.Unauthenticated, "Unauthorized"))
		return
	}

	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, apierr.New(apierr.InvalidInput, "Invalid request body"))
		return
	}
	if req.EntryType == "" {
		apierr.Write(w, apierr.New(apierr.InvalidInput, "entry_type is required"))
		return
	}

	result, err := h.service.Confirm(r.Context(), userID, req)
	if err != nil {
		apierr.Write(w, apierr.Wrap(apierr.Internal, "Failed to save entry", err))
		return
	}
	writeJSON(w, result)
}

// HandleProcess is the legacy one-shot pipeline.
func (h *Handler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		apierr.Write(w, apierr.New(apierr.Unauthenticated, "Unauthorized"))
		return
	}

	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		apierr.Write(w, apierr.New(apierr.InvalidInput, "Invalid request body"))
		return
	}

	result, err := h.service.Process(r.Context(), userID, input)
	if err != nil {
		apierr.Write(w, apierr.Wrap(apierr.Internal, "Failed to process entry", err))
		return
	}
	writeJSON(w, result)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
