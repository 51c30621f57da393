// Package consultation runs specialist-typed dialogue sessions that
// extract structured facts and fold them back into the user profile.
package consultation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/ai"
	"github.com/renatodap/fitness-backend/internal/apierr"
	"github.com/renatodap/fitness-backend/internal/embeddings"
	"github.com/renatodap/fitness-backend/internal/nutrition"
	"github.com/renatodap/fitness-backend/internal/storage"
)

const extractionConfidence = 0.85

// ProgramGenerator triggers program generation from a consultation
// summary. The programs service satisfies this.
type ProgramGenerator interface {
	GenerateFromConsultation(ctx context.Context, userID string, summary map[string]any) (uuid.UUID, error)
}

type Service struct {
	store      storage.Store
	router     *ai.Router
	embeddings *embeddings.Service
	programs   ProgramGenerator
}

func NewService(store storage.Store, router *ai.Router, embedService *embeddings.Service, programs ProgramGenerator) *Service {
	return &Service{store: store, router: router, embeddings: embedService, programs: programs}
}

// StartResult is returned by Start.
type StartResult struct {
	SessionID          uuid.UUID `json:"session_id"`
	SpecialistType     string    `json:"specialist_type"`
	ConversationStage  string    `json:"conversation_stage"`
	ProgressPercentage int       `json:"progress_percentage"`
	InitialQuestion    string    `json:"initial_question"`
	Resumed            bool      `json:"resumed"`
}

// Start resumes the active session for (user, specialist) or creates a
// new one at stage 0 with the canned initial question.
func (s *Service) Start(ctx context.Context, userID, specialistType string) (*StartResult, error) {
	if !ValidSpecialist(specialistType) {
		return nil, apierr.New(apierr.InvalidInput, fmt.Sprintf("invalid specialist_type: %s", specialistType))
	}

	session, err := s.store.GetActiveSession(ctx, userID, specialistType)
	resumed := err == nil
	if errors.Is(err, storage.ErrNotFound) {
		stages := specialistStages[specialistType]
		session = &storage.ConsultationSession{
			ID:                uuid.New(),
			UserID:            userID,
			SpecialistType:    specialistType,
			Status:            storage.SessionActive,
			ConversationStage: stages[0],
			Stages:            stages,
			StageIndex:        0,
		}
		if err := s.store.CreateSession(ctx, session); err != nil {
			return nil, err
		}
		log.Printf("[Consultation] created session %s (%s)", session.ID, specialistType)
	} else if err != nil {
		return nil, err
	} else {
		log.Printf("[Consultation] resuming session %s", session.ID)
	}

	question := initialQuestions[specialistType]
	if !resumed {
		if err := s.store.AppendConsultationMessage(ctx, &storage.ConsultationMessage{
			SessionID: session.ID,
			UserID:    userID,
			Role:      "assistant",
			Content:   question,
		}); err != nil {
			return nil, err
		}
		session.TotalMessages++
		if err := s.store.UpdateSession(ctx, session); err != nil {
			return nil, err
		}
	}

	return &StartResult{
		SessionID:          session.ID,
		SpecialistType:     specialistType,
		ConversationStage:  session.ConversationStage,
		ProgressPercentage: session.ProgressPercentage,
		InitialQuestion:    question,
		Resumed:            resumed,
	}, nil
}

// SendResult is returned by Send.
type SendResult struct {
	SessionID          uuid.UUID      `json:"session_id"`
	Status             string         `json:"status"`
	NextQuestion       string         `json:"next_question,omitempty"`
	WrapUpMessage      string         `json:"wrap_up_message,omitempty"`
	ExtractedData      map[string]any `json:"extracted_data,omitempty"`
	ExtractionSummary  map[string]any `json:"extraction_summary,omitempty"`
	ConversationStage  string         `json:"conversation_stage"`
	ProgressPercentage int            `json:"progress_percentage"`
	IsComplete         bool           `json:"is_complete"`
}

// Send appends the user message, extracts structured data, and either
// produces the next question or the wrap-up.
func (s *Service) Send(ctx context.Context, sessionID uuid.UUID, userInput string) (*SendResult, error) {
	if strings.TrimSpace(userInput) == "" {
		return nil, apierr.New(apierr.InvalidInput, "message is empty")
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apierr.New(apierr.NotFound, fmt.Sprintf("session not found: %s", sessionID))
	}
	if err != nil {
		return nil, err
	}
	if session.Status != storage.SessionActive {
		return nil, apierr.New(apierr.PreconditionFailed, "session is not active")
	}

	if err := s.store.AppendConsultationMessage(ctx, &storage.ConsultationMessage{
		SessionID: sessionID,
		UserID:    session.UserID,
		Role:      "user",
		Content:   userInput,
	}); err != nil {
		return nil, err
	}
	session.TotalMessages++

	tail, err := s.store.ListConsultationMessages(ctx, sessionID, 4)
	if err != nil {
		return nil, err
	}

	extracted := s.extractStructuredData(ctx, session.SpecialistType, userInput, tail)
	if len(extracted) > 0 {
		for category, data := range extracted {
			categoryData, ok := data.(map[string]any)
			if !ok || len(categoryData) == 0 {
				continue
			}
			source := truncate(userInput, 500)
			if err := s.store.InsertExtraction(ctx, &storage.ConsultationExtraction{
				SessionID:       sessionID,
				UserID:          session.UserID,
				Category:        category,
				Data:            categoryData,
				ConfidenceScore: extractionConfidence,
				SourceMessage:   &source,
			}); err != nil {
				log.Printf("[Consultation] save extraction failed: %v", err)
			}
		}
	}

	if session.StageIndex < len(session.Stages)-1 {
		question := s.generateNextQuestion(ctx, session, tail, extracted)

		// Heuristic stage advancement: every third user-visible message
		// moves the dialogue forward. Progress only ever increases.
		if session.TotalMessages > 0 && session.TotalMessages%3 == 0 {
			session.StageIndex++
			session.ConversationStage = session.Stages[session.StageIndex]
			session.ProgressPercentage = int(math.Round(float64(session.StageIndex) / float64(len(session.Stages)) * 100))
		}

		if err := s.store.AppendConsultationMessage(ctx, &storage.ConsultationMessage{
			SessionID: sessionID,
			UserID:    session.UserID,
			Role:      "assistant",
			Content:   question,
		}); err != nil {
			return nil, err
		}
		session.TotalMessages++
		if err := s.store.UpdateSession(ctx, session); err != nil {
			return nil, err
		}

		return &SendResult{
			SessionID:          sessionID,
			Status:             "active",
			NextQuestion:       question,
			ExtractedData:      extracted,
			ConversationStage:  session.ConversationStage,
			ProgressPercentage: session.ProgressPercentage,
			IsComplete:         false,
		}, nil
	}

	// Terminal stage: canned wrap-up, no model call.
	wrapUp := wrapUpMessages[session.SpecialistType]
	if err := s.store.AppendConsultationMessage(ctx, &storage.ConsultationMessage{
		SessionID: sessionID,
		UserID:    session.UserID,
		Role:      "assistant",
		Content:   wrapUp,
	}); err != nil {
		return nil, err
	}
	session.TotalMessages++
	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, err
	}

	summary, err := s.Summary(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &SendResult{
		SessionID:          sessionID,
		Status:             "ready_to_complete",
		WrapUpMessage:      wrapUp,
		ExtractionSummary:  summary,
		ProgressPercentage: 100,
		IsComplete:         true,
	}, nil
}

// Summary collapses extractions per category, latest row wins.
func (s *Service) Summary(ctx context.Context, sessionID uuid.UUID) (map[string]any, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apierr.New(apierr.NotFound, fmt.Sprintf("session not found: %s", sessionID))
	}
	if err != nil {
		return nil, err
	}

	extractions, err := s.store.ListExtractions(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	summary := map[string]any{}
	for _, extraction := range extractions {
		summary[extraction.Category] = extraction.Data
	}

	var durationMinutes int
	end := time.Now().UTC()
	if session.CompletedAt != nil {
		end = *session.CompletedAt
	}
	durationMinutes = int(math.Round(end.Sub(session.CreatedAt).Minutes()))

	summary["_metadata"] = map[string]any{
		"specialist_type":          session.SpecialistType,
		"total_messages":           session.TotalMessages,
		"session_duration_minutes": durationMinutes,
	}
	return summary, nil
}

// CompleteResult is returned by Complete.
type CompleteResult struct {
	SessionID uuid.UUID      `json:"session_id"`
	Status    string         `json:"status"`
	Summary   map[string]any `json:"summary"`
	ProgramID *uuid.UUID     `json:"program_id,omitempty"`
}

// Complete folds the summary into the user profile, marks the session
// completed, vectorizes the extractions, and optionally generates a
// program. Calling it again on a completed session returns the cached
// summary without new writes.
func (s *Service) Complete(ctx context.Context, sessionID uuid.UUID, generateProgram bool) (*CompleteResult, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apierr.New(apierr.NotFound, fmt.Sprintf("session not found: %s", sessionID))
	}
	if err != nil {
		return nil, err
	}

	summary, err := s.Summary(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status == storage.SessionCompleted {
		return &CompleteResult{SessionID: sessionID, Status: storage.SessionCompleted, Summary: summary}, nil
	}

	s.updateProfileFromSummary(ctx, session.UserID, summary)

	now := time.Now().UTC()
	session.Status = storage.SessionCompleted
	session.CompletedAt = &now
	session.ProgressPercentage = 100
	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, err
	}

	s.vectorizeSummary(ctx, session, summary)

	result := &CompleteResult{SessionID: sessionID, Status: storage.SessionCompleted, Summary: summary}

	if generateProgram && s.programs != nil {
		programID, err := s.programs.GenerateFromConsultation(ctx, session.UserID, summary)
		if err != nil {
			log.Printf("[Consultation] program generation failed (non-critical): %v", err)
		} else {
			result.ProgramID = &programID
		}
	}

	log.Printf("[Consultation] session %s completed", sessionID)
	return result, nil
}

// ActiveSession returns the user's active session, if any.
func (s *Service) ActiveSession(ctx context.Context, userID string) (*storage.ConsultationSession, error) {
	session, err := s.store.GetActiveSession(ctx, userID, "")
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return session, err
}

// HasCompleted reports whether the user finished any consultation.
func (s *Service) HasCompleted(ctx context.Context, userID string) (bool, error) {
	return s.store.HasCompletedSession(ctx, userID)
}

// ---- internals ----

func (s *Service) extractStructuredData(ctx context.Context, specialistType, userInput string, tail []storage.ConsultationMessage) map[string]any {
	schema := extractionSchemas[specialistType]
	schemaJSON, _ := json.MarshalIndent(schema, "", "  ")

	var conversationContext strings.Builder
	for _, message := range tail {
		conversationContext.WriteString(strings.ToUpper(message.Role))
		conversationContext.WriteString(": ")
		conversationContext.WriteString(message.Content)
		conversationContext.WriteByte('\n')
	}

	prompt := fmt.Sprintf(`Extract any relevant structured data from this conversation.

Conversation context:
%s
Latest user response:
%s

Extract data for these categories:
%s

Return a JSON object with only the categories and fields that have data.
If no relevant data found, return empty object {}.
Be conservative - only extract explicit information, don't assume or infer.`,
		conversationContext.String(), userInput, string(schemaJSON))

	completion, err := s.router.Complete(ctx, ai.TaskConfig{
		Type:               ai.TaskStructuredOutput,
		RequiresJSON:       true,
		PrioritizeAccuracy: true,
	}, []ai.ChatMessage{
		ai.TextMessage("system", "You are a data extraction assistant. Extract structured information from conversations."),
		ai.TextMessage("user", prompt),
	}, ai.JSONResponse)
	if err != nil {
		log.Printf("[Consultation] extraction failed: %v", err)
		return map[string]any{}
	}

	var extracted map[string]any
	if err := json.Unmarshal([]byte(completion.Content), &extracted); err != nil {
		log.Printf("[Consultation] extraction parse failed: %v", err)
		return map[string]any{}
	}
	return extracted
}

func (s *Service) generateNextQuestion(ctx context.Context, session *storage.ConsultationSession, tail []storage.ConsultationMessage, extracted map[string]any) string {
	contextParts := []string{
		fmt.Sprintf("Current conversation stage: %s", session.ConversationStage),
		fmt.Sprintf("Questions asked so far: %d", session.TotalMessages/2),
		"\nData collected so far:",
	}
	if len(extracted) > 0 {
		for key, value := range extracted {
			data, _ := json.Marshal(value)
			contextParts = append(contextParts, fmt.Sprintf("- %s: %s", key, string(data)))
		}
	} else {
		contextParts = append(contextParts, "- (No structured data yet)")
	}

	var conversationSummary strings.Builder
	for _, message := range tail {
		conversationSummary.WriteString(strings.ToUpper(message.Role))
		conversationSummary.WriteString(": ")
		conversationSummary.WriteString(message.Content)
		conversationSummary.WriteByte('\n')
	}

	userPrompt := fmt.Sprintf(`%s

Recent conversation:
%s
Based on what the user has shared, generate ONE focused follow-up question to:
1. Build on their previous answer
2. Fill gaps in the information needed for %s consultation
3. Move toward the '%s' stage objectives

The question should be conversational, empathetic, and specific to their situation.
Do NOT ask about information we already have.

Return ONLY the question, no additional text.`,
		strings.Join(contextParts, "\n"), conversationSummary.String(),
		session.SpecialistType, session.ConversationStage)

	completion, err := s.router.Complete(ctx, ai.TaskConfig{
		Type:            ai.TaskRealTimeChat,
		PrioritizeSpeed: true,
	}, []ai.ChatMessage{
		ai.TextMessage("system", specialistPrompts[session.SpecialistType]),
		ai.TextMessage("user", userPrompt),
	}, nil)
	if err != nil {
		log.Printf("[Consultation] question generation failed: %v", err)
		return "Tell me more about your current routine and what you'd like to change."
	}
	return completion.Content
}

// updateProfileFromSummary writes the canonical fields back and runs
// the nutrition calculator when measurements are complete.
func (s *Service) updateProfileFromSummary(ctx context.Context, userID string, summary map[string]any) {
	profile, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		profile = &storage.Profile{UserID: userID}
	} else if err != nil {
		log.Printf("[Consultation] profile fetch failed: %v", err)
		return
	}

	measurements, _ := summary["measurements"].(map[string]any)
	goals, _ := summary["goals"].(map[string]any)
	preferences, _ := summary["preferences"].(map[string]any)

	if weight, ok := numberField(measurements, "current_weight_kg"); ok {
		profile.CurrentWeightKg = &weight
	}
	if height, ok := numberField(measurements, "height_cm"); ok {
		profile.HeightCm = &height
	}
	if age, ok := numberField(measurements, "age"); ok {
		n := int(age)
		profile.Age = &n
	}
	if sex, ok := measurements["biological_sex"].(string); ok && sex != "" {
		profile.BiologicalSex = &sex
	}
	if goal := firstString(goals, "primary_goal", "primary_fitness_goal"); goal != "" {
		profile.PrimaryGoal = &goal
	}
	if equipment, ok := preferences["equipment_access"].(string); ok && equipment != "" {
		profile.EquipmentAccess = &equipment
	}
	if frequency, ok := numberField(preferences, "training_frequency"); ok {
		n := int(frequency)
		profile.TrainingFrequency = &n
	}

	if profile.CurrentWeightKg != nil && profile.HeightCm != nil && profile.Age != nil && profile.BiologicalSex != nil {
		goal := ""
		if profile.PrimaryGoal != nil {
			goal = *profile.PrimaryGoal
		}
		trainingFrequency := 3
		if profile.TrainingFrequency != nil {
			trainingFrequency = *profile.TrainingFrequency
		}

		plan, err := nutrition.FullPlan(*profile.CurrentWeightKg, *profile.HeightCm, *profile.Age, *profile.BiologicalSex, goal, trainingFrequency)
		if err != nil {
			log.Printf("[Consultation] nutrition plan calculation failed: %v", err)
		} else {
			profile.BMR = &plan.BMR
			profile.EstimatedTDEE = &plan.TDEE
			profile.DailyCalorieTarget = &plan.DailyCalories
			profile.DailyProteinTargetG = &plan.DailyProteinG
			profile.DailyCarbsTargetG = &plan.DailyCarbsG
			profile.DailyFatTargetG = &plan.DailyFatG
		}
	}

	profile.ConsultationOnboardingCompleted = true
	if err := s.store.UpsertProfile(ctx, profile); err != nil {
		log.Printf("[Consultation] profile update failed: %v", err)
	}
}

var vectorizedCategories = map[string]string{
	"goals":          "User's fitness and nutrition goals from consultation",
	"preferences":    "User's dietary and training preferences",
	"health_history": "User's health history and medical information",
	"measurements":   "User's physical measurements and stats",
}

// vectorizeSummary embeds each extracted category plus a full-summary
// string. Failures are logged; completion never depends on them.
func (s *Service) vectorizeSummary(ctx context.Context, session *storage.ConsultationSession, summary map[string]any) {
	sessionID := session.ID
	for category, description := range vectorizedCategories {
		data, ok := summary[category]
		if !ok {
			continue
		}
		dataJSON, _ := json.Marshal(data)
		content := fmt.Sprintf("%s: %s", description, string(dataJSON))

		_, err := s.embeddings.EmbedAndStoreText(ctx, embeddings.StoreParams{
			UserID:      session.UserID,
			SourceType:  embeddings.SourceConsultation,
			SourceID:    &sessionID,
			ContentText: content,
			Metadata: map[string]any{
				"consultation_category": category,
				"specialist_type":       session.SpecialistType,
				"session_id":            sessionID.String(),
			},
			ConfidenceScore: 0.95,
		})
		if err != nil {
			log.Printf("[Consultation] vectorize category %s failed: %v", category, err)
		}
	}

	fullSummary := fmt.Sprintf(`User consultation summary:
Goals: %v
Preferences: %v
Health: %v
Measurements: %v
Specialist: %s`,
		summary["goals"], summary["preferences"], summary["health_history"],
		summary["measurements"], session.SpecialistType)

	_, err := s.embeddings.EmbedAndStoreText(ctx, embeddings.StoreParams{
		UserID:      session.UserID,
		SourceType:  embeddings.SourceConsultation,
		SourceID:    &sessionID,
		ContentText: fullSummary,
		Metadata: map[string]any{
			"consultation_category": "full_summary",
			"specialist_type":       session.SpecialistType,
			"session_id":            sessionID.String(),
			"is_complete_summary":   true,
		},
		ConfidenceScore: 1.0,
	})
	if err != nil {
		log.Printf("[Consultation] vectorize full summary failed: %v", err)
	}
}

func numberField(data map[string]any, key string) (float64, bool) {
	if data == nil {
		return 0, false
	}
	switch v := data[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(v, "%f", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

func firstString(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := data[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
