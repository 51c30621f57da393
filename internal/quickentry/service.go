// Package quickentry classifies multimodal user logs, persists them as
// typed entries, and feeds them into the per-user semantic memory.
package quickentry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/ai"
	"github.com/renatodap/fitness-backend/internal/blob"
	"github.com/renatodap/fitness-backend/internal/embeddings"
	"github.com/renatodap/fitness-backend/internal/enrichment"
	"github.com/renatodap/fitness-backend/internal/patterns"
	"github.com/renatodap/fitness-backend/internal/storage"
	"github.com/renatodap/fitness-backend/internal/worker"
)

type Service struct {
	store      storage.Store
	router     *ai.Router
	embeddings *embeddings.Service
	enricher   *enrichment.Service
	blobStore  blob.Store
	queue      *worker.Queue

	// loggedHook lets the recommendation engine complete a matching
	// pending recommendation after a log lands.
	loggedHook func(ctx context.Context, userID, logType string, data map[string]any)
}

// OnEntryLogged registers the post-persistence hook.
func (s *Service) OnEntryLogged(hook func(ctx context.Context, userID, logType string, data map[string]any)) {
	s.loggedHook = hook
}

func (s *Service) notifyLogged(ctx context.Context, userID, entryType string, data map[string]any) {
	if s.loggedHook == nil {
		return
	}
	switch entryType {
	case TypeMeal, TypeWorkout, TypeActivity:
		s.loggedHook(ctx, userID, entryType, data)
	}
}

func NewService(store storage.Store, router *ai.Router, embedService *embeddings.Service, enricher *enrichment.Service, blobStore blob.Store, queue *worker.Queue) *Service {
	return &Service{
		store:      store,
		router:     router,
		embeddings: embedService,
		enricher:   enricher,
		blobStore:  blobStore,
		queue:      queue,
	}
}

// Preview classifies an entry without writing anything.
func (s *Service) Preview(ctx context.Context, userID string, input Input) (*PreviewResult, error) {
	extracted := s.extractAllText(ctx, input)
	if extracted == "" {
		return &PreviewResult{
			Success:   false,
			Error:     "No content to process",
			EntryType: TypeUnknown,
			Data:      map[string]any{},
		}, nil
	}

	manualType := ""
	if input.Metadata != nil {
		manualType = input.Metadata.ManualType
	}

	classification := s.classifyAndExtract(ctx, userID, extracted, manualType)

	if input.Metadata != nil && input.Metadata.Notes != "" {
		if classification.Data == nil {
			classification.Data = map[string]any{}
		}
		classification.Data["notes"] = input.Metadata.Notes
	}

	result := &PreviewResult{
		Success:       true,
		EntryType:     classification.Type,
		Confidence:    classification.Confidence,
		Data:          classification.Data,
		Suggestions:   classification.Suggestions,
		ExtractedText: truncate(extracted, 500),
	}

	// Optional: similar past entries for smart suggestions. Failures are
	// non-critical.
	if semContext, err := s.semanticContext(ctx, userID, extracted, classification.Type); err != nil {
		log.Printf("[QuickEntry] semantic context retrieval failed (non-critical): %v", err)
	} else {
		result.SemanticContext = semContext
	}

	return result, nil
}

// Confirm persists a classification the user approved. Confidence is
// 1.0 because the user confirmed.
func (s *Service) Confirm(ctx context.Context, userID string, req ConfirmRequest) (*Result, error) {
	classification := Classification{
		Type:       req.EntryType,
		Confidence: 1.0,
		Data:       req.Data,
	}

	entryID, err := s.persist(ctx, userID, classification, req.OriginalText, req.ImageBase64, true)
	if err != nil {
		return &Result{Success: false, Error: err.Error(), EntryType: req.EntryType}, err
	}

	text := req.ExtractedText
	if text == "" {
		text = req.OriginalText
	}
	s.enqueueVectorization(userID, entryID, req.EntryType, text, req.Data)
	s.notifyLogged(ctx, userID, req.EntryType, req.Data)

	return &Result{
		Success:    true,
		EntryType:  req.EntryType,
		Confidence: 1.0,
		Data:       req.Data,
		EntryID:    entryID,
	}, nil
}

// Process is the one-shot pipeline for trusted callers: extract,
// classify, persist, vectorize.
func (s *Service) Process(ctx context.Context, userID string, input Input) (*Result, error) {
	extracted := s.extractAllText(ctx, input)
	if extracted == "" {
		return &Result{Success: false, Error: "No content to process", EntryType: TypeUnknown}, nil
	}

	manualType := ""
	if input.Metadata != nil {
		manualType = input.Metadata.ManualType
	}

	classification := s.classifyAndExtract(ctx, userID, extracted, manualType)
	if input.Metadata != nil && input.Metadata.Notes != "" {
		if classification.Data == nil {
			classification.Data = map[string]any{}
		}
		classification.Data["notes"] = input.Metadata.Notes
	}

	entryID, err := s.persist(ctx, userID, classification, extracted, input.ImageBase64, manualType != "")
	if err != nil {
		return &Result{
			Success:   false,
			Error:     fmt.Sprintf("Failed to save entry: %v", err),
			EntryType: classification.Type,
		}, err
	}

	s.enqueueVectorization(userID, entryID, classification.Type, extracted, classification.Data)
	s.notifyLogged(ctx, userID, classification.Type, classification.Data)

	return &Result{
		Success:       true,
		EntryType:     classification.Type,
		Confidence:    classification.Confidence,
		Data:          classification.Data,
		EntryID:       entryID,
		Suggestions:   classification.Suggestions,
		ExtractedText: truncate(extracted, 500),
	}, nil
}

// classifyAndExtract runs the single structured-output model call, with
// the user's historical pattern injected as an estimation prior.
func (s *Service) classifyAndExtract(ctx context.Context, userID, text, forceType string) Classification {
	pattern := s.historicalPattern(ctx, userID, text, forceType)

	systemPrompt := buildClassifyPrompt(forceType, pattern)
	userPrompt := fmt.Sprintf("Analyze this entry and extract structured data:\n\n%s\n\nReturn JSON classification and data extraction.", text)

	completion, err := s.router.Complete(ctx, ai.TaskConfig{
		Type:               ai.TaskStructuredOutput,
		RequiresJSON:       true,
		PrioritizeAccuracy: true,
	}, []ai.ChatMessage{
		ai.TextMessage("system", systemPrompt),
		ai.TextMessage("user", userPrompt),
	}, ai.JSONResponse)
	if err != nil {
		log.Printf("[QuickEntry] classification failed: %v", err)
		return unknownClassification()
	}

	var classification Classification
	if err := json.Unmarshal([]byte(completion.Content), &classification); err != nil {
		log.Printf("[QuickEntry] classification parse failed: %v", err)
		return unknownClassification()
	}

	if forceType != "" {
		classification.Type = forceType
		classification.Confidence = 1.0
	}
	if classification.Data == nil {
		classification.Data = map[string]any{}
	}

	log.Printf("[QuickEntry] classified as %s (%.2f)", classification.Type, classification.Confidence)
	return classification
}

// historicalPattern retrieves similar past entries and reduces them to
// an estimation prior. The current entry cannot influence its own prior:
// its embedding is only written after persistence.
func (s *Service) historicalPattern(ctx context.Context, userID, text, entryType string) *patterns.Pattern {
	matches, err := s.embeddings.SearchSimilarEntries(ctx, userID, text, entryType, 15, 0.5, 0.65)
	if err != nil {
		log.Printf("[QuickEntry] pattern retrieval failed (non-critical): %v", err)
		return nil
	}

	pattern := patterns.Analyze(matches, entryType)
	if pattern != nil {
		log.Printf("[QuickEntry] found pattern: %d similar logs, confidence %.2f", pattern.SampleSize, pattern.Confidence)
	}
	return pattern
}

func (s *Service) semanticContext(ctx context.Context, userID, entryText, entryType string) (*SemanticContext, error) {
	// Only meals, workouts, and activities benefit from lookback.
	if entryType != TypeMeal && entryType != TypeWorkout && entryType != TypeActivity {
		return nil, nil
	}

	matches, err := s.embeddings.SearchSimilarEntries(ctx, userID, entryText, entryType, 3, 0.4, 0.6)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	context := &SemanticContext{SimilarCount: len(matches)}
	for _, match := range matches {
		suggestion := map[string]any{
			"similarity": round2(match.Similarity),
			"created_at": match.CreatedAt,
		}
		metadata := match.Metadata
		switch entryType {
		case TypeMeal:
			suggestion["meal_name"] = metadata["meal_name"]
			suggestion["calories"] = metadata["calories"]
			suggestion["protein_g"] = metadata["protein_g"]
		case TypeWorkout:
			suggestion["workout_name"] = metadata["workout_name"]
			suggestion["volume_load"] = metadata["volume_load"]
		case TypeActivity:
			suggestion["activity_name"] = metadata["activity_name"]
			suggestion["duration_minutes"] = metadata["duration_minutes"]
			suggestion["distance_km"] = metadata["distance_km"]
		}
		context.Suggestions = append(context.Suggestions, suggestion)
	}
	return context, nil
}

// enqueueVectorization hands the entry to the background worker. It
// never fails the user-facing request.
func (s *Service) enqueueVectorization(userID string, id uuid.UUID, entryType, text string, data map[string]any) {
	metadata := map[string]any{}
	for k, v := range data {
		metadata[k] = v
	}
	metadata["entry_type"] = entryType
	metadata["source"] = storage.SourceQuickEntry
	metadata["source_id"] = id.String()
	if notes, ok := data["notes"]; ok {
		metadata["notes"] = notes
	} else {
		metadata["notes"] = truncate(text, 500)
	}
	metadata["original_text"] = text

	s.queue.TryEnqueue(worker.SubjectVectorizeEntry, worker.VectorizeEntryTask{
		UserID:     userID,
		EntryID:    id,
		EntryType:  entryType,
		SourceType: sourceTypeFor(entryType),
		Text:       text,
		Metadata:   metadata,
	})
}

func unknownClassification() Classification {
	return Classification{
		Type:       TypeUnknown,
		Confidence: 0.0,
		Data:       map[string]any{},
		Suggestions: []string{
			"Try being more specific",
			"Include details like amounts, duration, etc.",
		},
	}
}

func buildClassifyPrompt(forceType string, pattern *patterns.Pattern) string {
	var instruction string
	if forceType != "" {
		instruction = fmt.Sprintf(`The user has indicated this is a **%s** entry.
Type is already determined: %q
Extract all relevant data for this %s entry.`, forceType, forceType, forceType)
	} else {
		instruction = `Classify the entry into ONE of these types:
1. **meal**: Any food/drink consumption (meals, snacks, supplements)
2. **activity**: Cardio activities (running, walking, cycling, swimming, sports)
3. **workout**: Strength training (lifting, calisthenics, specific exercises)
4. **measurement**: Body measurements (weight, body fat %, circumference, progress photos)
5. **note**: General thoughts, goals, feelings, observations, plans
6. **unknown**: Cannot determine`
	}

	var patternSection string
	if pattern != nil {
		patternJSON, _ := json.Marshal(pattern)
		patternSection = fmt.Sprintf(`

HISTORICAL PATTERN from this user's similar past logs (use as estimation prior when the entry omits numbers):
%s`, string(patternJSON))
	}

	return fmt.Sprintf(`You are a fitness coach assistant analyzing user entries.

%s%s

Extract ALL relevant data in structured JSON format.

Return ONLY valid JSON (no markdown, no code blocks):

{
  "type": "meal|activity|workout|measurement|note|unknown",
  "confidence": 0.0-1.0,
  "data": {
    // Type-specific fields
  },
  "suggestions": ["helpful tips"]
}

MEAL data fields: meal_name, meal_type (breakfast|lunch|dinner|snack), foods (array of {name, quantity, calories, protein_g, carbs_g, fat_g}), calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, sodium_mg, estimated (bool).

ACTIVITY data fields: activity_name, activity_type (running|walking|cycling|swimming|...), sport_type, duration_minutes, distance_km, pace, calories_burned, rpe, mood, energy_level, notes.

WORKOUT data fields: workout_name, workout_type, exercises (array of {name, sets, reps, weight_lbs, rest_seconds}), duration_minutes, rpe, mood, energy_level, estimated_calories, notes.

MEASUREMENT data fields: weight_lbs or weight_kg, body_fat_pct, measurements (map of circumference values).

NOTE data fields: title, content, category, tags.

IMPORTANT:
- Be intelligent about nutrition estimation
- Extract ALL numbers and details
- If unsure, set confidence lower and add suggestions
- Always return valid JSON (no markdown blocks)`, instruction, patternSection)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

func strPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
