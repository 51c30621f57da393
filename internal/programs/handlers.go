package programs

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/apierr"
	"github.com/renatodap/fitness-backend/internal/userctx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleActive(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		apierr.Write(w, apierr.New(apierr.Unauthenticated, "Unauthorized"))
		return
	}

	program, err := h.service.Active(r.Context(), userID)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, program)
}

func (h *Handler) HandleDay(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		apierr.Write(w, apierr.New(apierr.Unauthenticated, "Unauthorized"))
		return
	}

	dayNumber, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || dayNumber < 1 {
		apierr.Write(w, apierr.New(apierr.InvalidInput, "Invalid day number"))
		return
	}

	view, err := h.service.Day(r.Context(), userID, dayNumber)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, view)
}

func (h *Handler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		apierr.Write(w, apierr.New(apierr.Unauthenticated, "Unauthorized"))
		return
	}

	days, err := h.service.Calendar(r.Context(), userID)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, map[string]any{"days": days})
}

type completeToggleRequest struct {
	Completed *bool `json:"completed"`
}

func (h *Handler) HandleCompleteMeal(w http.ResponseWriter, r *http.Request) {
	h.handleToggle(w, r, h.service.CompleteMeal)
}

func (h *Handler) HandleCompleteWorkout(w http.ResponseWriter, r *http.Request) {
	h.handleToggle(w, r, h.service.CompleteWorkout)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request, toggle func(ctx context.Context, id uuid.UUID, completed bool) error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		apierr.Write(w, apierr.New(apierr.InvalidInput, "Invalid id"))
		return
	}

	req := completeToggleRequest{}
	_ = json.NewDecoder(r.Body).Decode(&req)
	completed := true
	if req.Completed != nil {
		completed = *req.Completed
	}

	if err := toggle(r.Context(), id, completed); err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, map[string]any{"success": true, "completed": completed})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
