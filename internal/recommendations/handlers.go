package recommendations

import (
	"encoding/json"
	"net/http"
	"time"

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

type generateRequest struct {
	Date string `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}

func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		apierr.Write(w, apierr.New(apierr.Unauthenticated, "Unauthorized"))
		return
	}

	req := generateRequest{}
	_ = json.NewDecoder(r.Body).Decode(&req)

	target := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			apierr.Write(w, apierr.New(apierr.InvalidInput, "Invalid date, expected YYYY-MM-DD"))
			return
		}
		target = parsed
	}

	recs, err := h.service.GenerateDailyPlan(r.Context(), userID, target)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, map[string]any{"recommendations": recs})
}

func (h *Handler) HandleToday(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		apierr.Write(w, apierr.New(apierr.Unauthenticated, "Unauthorized"))
		return
	}

	recs, err := h.service.Active(r.Context(), userID, time.Now().UTC())
	if err != nil {
		apierr.Write(w, apierr.Wrap(apierr.Internal, "Failed to list recommendations", err))
		return
	}
	writeJSON(w, map[string]any{"recommendations": recs})
}

func (h *Handler) HandleNext(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		apierr.Write(w, apierr.New(apierr.Unauthenticated, "Unauthorized"))
		return
	}

	rec, err := h.service.SuggestNextAction(r.Context(), userID, time.Now().UTC())
	if err != nil {
		apierr.Write(w, apierr.Wrap(apierr.Internal, "Failed to suggest next action", err))
		return
	}
	writeJSON(w, map[string]any{"next": rec})
}

type feedbackRequest struct {
	Status   string  `json:"status"`
	Feedback *string `json:"feedback,omitempty"`
	Rating   *int    `json:"rating,omitempty"`
}

func (h *Handler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		apierr.Write(w, apierr.New(apierr.Unauthenticated, "Unauthorized"))
		return
	}

	recID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		apierr.Write(w, apierr.New(apierr.InvalidInput, "Invalid recommendation id"))
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, apierr.New(apierr.InvalidInput, "Invalid request body"))
		return
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		apierr.Write(w, apierr.New(apierr.InvalidInput, "rating must be 1-5"))
		return
	}

	if err := h.service.Feedback(r.Context(), userID, recID, req.Status, req.Feedback, req.Rating); err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
