package coach

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

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (h *Handler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		apierr.Write(w, apierr.New(apierr.Unauthenticated, "Unauthorized"))
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, apierr.New(apierr.InvalidInput, "Invalid request body"))
		return
	}

	reply, err := h.service.SendMessage(r.Context(), userID, req.Content)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, reply)
}

func (h *Handler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		apierr.Write(w, apierr.New(apierr.Unauthenticated, "Unauthorized"))
		return
	}

	conversationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		apierr.Write(w, apierr.New(apierr.InvalidInput, "Invalid conversation id"))
		return
	}

	conversation, err := h.service.store.GetConversation(r.Context(), conversationID)
	if err != nil || conversation.UserID != userID {
		apierr.Write(w, apierr.New(apierr.NotFound, "conversation not found"))
		return
	}

	messages, err := h.service.store.ListCoachMessages(r.Context(), conversationID, 0)
	if err != nil {
		apierr.Write(w, apierr.Wrap(apierr.Internal, "Failed to list messages", err))
		return
	}
	writeJSON(w, map[string]any{"messages": messages})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
