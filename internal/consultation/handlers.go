package consultation

import (
	"encoding/json"
	"net/http"

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

type startRequest struct {
	SpecialistType string `json:"specialist_type"`
}

func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		apierr.Write(w, apierr.New(apierr.Unauthenticated, "Unauthorized"))
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, apierr.New(apierr.InvalidInput, "Invalid request body"))
		return
	}

	result, err := h.service.Start(r.Context(), userID, req.SpecialistType)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, result)
}

type sendRequest struct {
	Message string `json:"message"`
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		apierr.Write(w, apierr.New(apierr.InvalidInput, "Invalid session id"))
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, apierr.New(apierr.InvalidInput, "Invalid request body"))
		return
	}

	result, err := h.service.Send(r.Context(), sessionID, req.Message)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		apierr.Write(w, apierr.New(apierr.InvalidInput, "Invalid session id"))
		return
	}

	summary, err := h.service.Summary(r.Context(), sessionID)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, summary)
}

type completeRequest struct {
	GenerateProgram bool `json:"generate_program"`
}

func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		apierr.Write(w, apierr.New(apierr.InvalidInput, "Invalid session id"))
		return
	}

	req := completeRequest{GenerateProgram: true}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	result, err := h.service.Complete(r.Context(), sessionID, req.GenerateProgram)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		apierr.Write(w, apierr.New(apierr.Unauthenticated, "Unauthorized"))
		return
	}

	completed, err := h.service.HasCompleted(r.Context(), userID)
	if err != nil {
		apierr.Write(w, apierr.Wrap(apierr.Internal, "Status check failed", err))
		return
	}
	writeJSON(w, map[string]any{"has_completed_consultation": completed})
}

func (h *Handler) HandleActiveSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		apierr.Write(w, apierr.New(apierr.Unauthenticated, "Unauthorized"))
		return
	}

	session, err := h.service.ActiveSession(r.Context(), userID)
	if err != nil {
		apierr.Write(w, apierr.Wrap(apierr.Internal, "Active session lookup failed", err))
		return
	}
	if session == nil {
		writeJSON(w, map[string]any{"active_session": nil})
		return
	}
	writeJSON(w, map[string]any{
		"active_session": map[string]any{
			"session_id":          session.ID.String(),
			"specialist_type":     session.SpecialistType,
			"conversation_stage":  session.ConversationStage,
			"progress_percentage": session.ProgressPercentage,
			"total_messages":      session.TotalMessages,
			"created_at":          session.CreatedAt,
		},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
