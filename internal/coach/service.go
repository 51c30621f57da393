// Package coach answers chat turns with context assembled from the
// user's profile, recent logs, and semantic memory. Vectorization and
// analytics run on the background worker after the response is sent.
package coach

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/ai"
	"github.com/renatodap/fitness-backend/internal/apierr"
	"github.com/renatodap/fitness-backend/internal/embeddings"
	"github.com/renatodap/fitness-backend/internal/storage"
	"github.com/renatodap/fitness-backend/internal/worker"
)

// Conversations longer than this get summarized by the worker.
const summarizeThreshold = 20

const systemPrompt = `You are an expert AI fitness and nutrition coach. You have access to the user's
profile, logs, and history below. Be concise, encouraging, and specific.
Ground every recommendation in the user's own data. Never diagnose medical
conditions; recommend professional consultation when health concerns come up.`

type Service struct {
	store      storage.Store
	router     *ai.Router
	embeddings *embeddings.Service
	queue      *worker.Queue
}

func NewService(store storage.Store, router *ai.Router, embedService *embeddings.Service, queue *worker.Queue) *Service {
	return &Service{store: store, router: router, embeddings: embedService, queue: queue}
}

// Reply is the outcome of one chat turn.
type Reply struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	MessageID      uuid.UUID `json:"message_id"`
	Content        string    `json:"content"`
}

// SendMessage runs one chat turn.
func (s *Service) SendMessage(ctx context.Context, userID, content string) (*Reply, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apierr.New(apierr.InvalidInput, "message is empty")
	}

	conversation, err := s.store.GetOrCreateActiveConversation(ctx, userID)
	if err != nil {
		return nil, err
	}

	userMessage := &storage.CoachMessage{
		ID:             uuid.New(),
		ConversationID: conversation.ID,
		UserID:         userID,
		Role:           "user",
		Content:        content,
	}
	if err := s.store.AppendCoachMessage(ctx, userMessage); err != nil {
		return nil, err
	}

	tail, err := s.store.ListCoachMessages(ctx, conversation.ID, 10)
	if err != nil {
		return nil, err
	}

	contextBlock := s.buildContext(ctx, userID, content)

	messages := []ai.ChatMessage{
		ai.TextMessage("system", systemPrompt+"\n\n"+contextBlock),
	}
	for _, message := range tail {
		messages = append(messages, ai.TextMessage(message.Role, message.Content))
	}

	completion, err := s.router.Complete(ctx, ai.TaskConfig{Type: ai.TaskRealTimeChat}, messages, nil)
	if err != nil {
		return nil, apierr.Wrap(apierr.UpstreamUnavailable, "coach is unavailable right now", err)
	}

	assistantMessage := &storage.CoachMessage{
		ID:             uuid.New(),
		ConversationID: conversation.ID,
		UserID:         userID,
		Role:           "assistant",
		Content:        completion.Content,
	}
	if err := s.store.AppendCoachMessage(ctx, assistantMessage); err != nil {
		return nil, err
	}

	// Everything below is off the critical path.
	s.queue.TryEnqueue(worker.SubjectBatchVectorize, worker.BatchVectorizeMessagesTask{
		UserID: userID,
		Messages: []worker.VectorizeMessageTask{
			{UserID: userID, MessageID: userMessage.ID, Role: "user", Content: content},
			{UserID: userID, MessageID: assistantMessage.ID, Role: "assistant", Content: completion.Content},
		},
	})
	s.queue.TryEnqueue(worker.SubjectConversationAnalytics, worker.ConversationAnalyticsTask{
		UserID:         userID,
		ConversationID: conversation.ID,
	})
	if conversation.MessageCount+2 > summarizeThreshold {
		s.queue.TryEnqueue(worker.SubjectSummarizeConversation, worker.SummarizeConversationTask{
			UserID:         userID,
			ConversationID: conversation.ID,
		})
	}

	return &Reply{
		ConversationID: conversation.ID,
		MessageID:      assistantMessage.ID,
		Content:        completion.Content,
	}, nil
}

// buildContext assembles profile facts, today's totals, and relevant
// memory hits. Each section tolerates failure independently.
func (s *Service) buildContext(ctx context.Context, userID, query string) string {
	var b strings.Builder

	if profile, err := s.store.GetProfile(ctx, userID); err == nil {
		b.WriteString("USER PROFILE:\n")
		if profile.PrimaryGoal != nil {
			fmt.Fprintf(&b, "- Primary goal: %s\n", *profile.PrimaryGoal)
		}
		if profile.CurrentWeightKg != nil {
			fmt.Fprintf(&b, "- Weight: %.1f kg\n", *profile.CurrentWeightKg)
		}
		if profile.DailyCalorieTarget != nil {
			fmt.Fprintf(&b, "- Daily targets: %d kcal, %dg protein, %dg carbs, %dg fat\n",
				*profile.DailyCalorieTarget, derefInt(profile.DailyProteinTargetG),
				derefInt(profile.DailyCarbsTargetG), derefInt(profile.DailyFatTargetG))
		}
		if profile.TrainingFrequency != nil {
			fmt.Fprintf(&b, "- Training frequency: %dx/week\n", *profile.TrainingFrequency)
		}
	}

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if meals, err := s.store.ListMealsBetween(ctx, userID, dayStart, dayStart.AddDate(0, 0, 1)); err == nil && len(meals) > 0 {
		var calories, protein float64
		for _, meal := range meals {
			calories += derefFloat(meal.TotalCalories)
			protein += derefFloat(meal.TotalProteinG)
		}
		fmt.Fprintf(&b, "\nTODAY SO FAR: %d meals logged, %.0f kcal, %.0fg protein\n", len(meals), calories, protein)
	}

	matches, err := s.embeddings.SearchSimilarEntries(ctx, userID, query, "", 5, 0.3, 0.55)
	if err != nil {
		log.Printf("[Coach] memory search failed (non-critical): %v", err)
		return b.String()
	}
	if len(matches) > 0 {
		b.WriteString("\nRELEVANT HISTORY:\n")
		for _, match := range matches {
			if match.ContentText == nil {
				continue
			}
			fmt.Fprintf(&b, "- [%s, %s] %s\n",
				match.SourceType, match.CreatedAt.Format("Jan 2"), truncate(*match.ContentText, 200))
		}
	}

	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
