package consultation

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/ai"
	"github.com/renatodap/fitness-backend/internal/embeddings"
	"github.com/renatodap/fitness-backend/internal/storage"
	"github.com/renatodap/fitness-backend/internal/storage/memory"
)

type stubProgramGenerator struct {
	called bool
}

func (s *stubProgramGenerator) GenerateFromConsultation(ctx context.Context, userID string, summary map[string]any) (uuid.UUID, error) {
	s.called = true
	return uuid.New(), nil
}

func newTestService(t *testing.T) (*Service, *memory.MemoryStorage, *ai.MockClient, *stubProgramGenerator) {
	t.Helper()
	store := memory.New()
	mock := ai.NewMockClient()
	router := ai.NewRouter(mock, mock)
	embedService := embeddings.NewService(store, embeddings.NewMockModel(64), router)
	generator := &stubProgramGenerator{}
	return NewService(store, router, embedService, generator), store, mock, generator
}

func TestStartCreatesSessionWithCannedQuestion(t *testing.T) {
	service, store, mock, _ := newTestService(t)

	result, err := service.Start(context.Background(), "u1", SpecialistUnifiedCoach)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if result.Resumed {
		t.Error("first start must create, not resume")
	}
	if result.ConversationStage != "introduction" {
		t.Errorf("expected introduction stage, got %s", result.ConversationStage)
	}
	if result.InitialQuestion != initialQuestions[SpecialistUnifiedCoach] {
		t.Error("expected the canned initial question")
	}
	// The canned question costs no model call.
	if len(mock.Calls()) != 0 {
		t.Errorf("start must not call the model, got %d calls", len(mock.Calls()))
	}

	session, err := store.GetSession(context.Background(), result.SessionID)
	if err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if session.Status != storage.SessionActive || session.StageIndex != 0 {
		t.Errorf("unexpected session state: %+v", session)
	}
}

func TestStartResumesActiveSession(t *testing.T) {
	service, _, _, _ := newTestService(t)

	first, err := service.Start(context.Background(), "u1", SpecialistTrainer)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	second, err := service.Start(context.Background(), "u1", SpecialistTrainer)
	if err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	if !second.Resumed {
		t.Error("expected resume of the active session")
	}
	if first.SessionID != second.SessionID {
		t.Error("resume must return the same session")
	}
}

func TestStartRejectsUnknownSpecialist(t *testing.T) {
	service, _, _, _ := newTestService(t)
	if _, err := service.Start(context.Background(), "u1", "astrologer"); err == nil {
		t.Fatal("expected invalid specialist to be rejected")
	}
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	service, _, _, _ := newTestService(t)
	start, _ := service.Start(context.Background(), "u1", SpecialistUnifiedCoach)
	if _, err := service.Send(context.Background(), start.SessionID, "   "); err == nil {
		t.Fatal("expected empty message to be rejected")
	}
}

func TestSendUnknownSessionReturnsNotFound(t *testing.T) {
	service, _, _, _ := newTestService(t)
	if _, err := service.Send(context.Background(), uuid.New(), "hello"); err == nil {
		t.Fatal("expected not found")
	}
}

func TestSendExtractsAndAdvancesStageEveryThirdMessage(t *testing.T) {
	service, store, mock, _ := newTestService(t)
	mock.RespondWith("Extract any relevant structured data", `{
		"goals": {"primary_fitness_goal": "run a marathon"},
		"measurements": {"current_weight_kg": 80, "height_cm": 180, "age": 30, "biological_sex": "male"}
	}`)
	mock.RespondWith("generate ONE focused follow-up question", "What is your training history?")

	start, _ := service.Start(context.Background(), "u1", SpecialistUnifiedCoach)

	result, err := service.Send(context.Background(), start.SessionID, "I want to run a marathon. I'm 80kg, 180cm, 30, male.")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if result.IsComplete {
		t.Fatal("first message must not complete the session")
	}
	if result.NextQuestion == "" {
		t.Error("expected a next question")
	}

	extractions, _ := store.ListExtractions(context.Background(), start.SessionID)
	if len(extractions) == 0 {
		t.Fatal("expected persisted extractions")
	}
	for _, extraction := range extractions {
		if extraction.ConfidenceScore != extractionConfidence {
			t.Errorf("expected default confidence %v, got %v", extractionConfidence, extraction.ConfidenceScore)
		}
	}

	// Progress is monotone non-decreasing over many sends.
	lastProgress := result.ProgressPercentage
	for i := 0; i < 8; i++ {
		result, err = service.Send(context.Background(), start.SessionID, "More details about my training.")
		if err != nil {
			t.Fatalf("send %d failed: %v", i, err)
		}
		if result.ProgressPercentage < lastProgress {
			t.Fatalf("progress went backwards: %d -> %d", lastProgress, result.ProgressPercentage)
		}
		lastProgress = result.ProgressPercentage
		// Start counts one message and every send adds two, so the stage
		// moves on at the third send (i == 1) and the sixth (i == 4).
		if i == 1 && result.ConversationStage != "primary_goals" {
			t.Errorf("third send: expected stage primary_goals, got %s", result.ConversationStage)
		}
		if i == 4 && result.ConversationStage != "current_state" {
			t.Errorf("sixth send: expected stage current_state, got %s", result.ConversationStage)
		}
		if result.IsComplete {
			break
		}
	}
}

func TestSessionReachesWrapUpAtTerminalStage(t *testing.T) {
	service, _, mock, _ := newTestService(t)
	mock.RespondWith("Extract any relevant structured data", `{}`)
	mock.RespondWith("generate ONE focused follow-up question", "Next question?")

	start, _ := service.Start(context.Background(), "u1", SpecialistNutritionist)

	var last *SendResult
	for i := 0; i < 40; i++ {
		result, err := service.Send(context.Background(), start.SessionID, "An answer.")
		if err != nil {
			t.Fatalf("send failed: %v", err)
		}
		last = result
		if result.IsComplete {
			break
		}
	}

	if last == nil || !last.IsComplete {
		t.Fatal("session never reached the wrap-up stage")
	}
	if last.Status != "ready_to_complete" {
		t.Errorf("expected ready_to_complete, got %s", last.Status)
	}
	if last.WrapUpMessage != wrapUpMessages[SpecialistNutritionist] {
		t.Error("expected the canned wrap-up message")
	}
	if last.ProgressPercentage != 100 {
		t.Errorf("expected progress 100, got %d", last.ProgressPercentage)
	}
}

func TestCompleteWritesProfileAndNutritionTargets(t *testing.T) {
	service, store, mock, generator := newTestService(t)
	mock.RespondWith("Extract any relevant structured data", `{
		"goals": {"primary_goal": "cut"},
		"measurements": {"current_weight_kg": 80, "height_cm": 180, "age": 30, "biological_sex": "male"},
		"preferences": {"equipment_access": "full gym", "training_frequency": 4}
	}`)
	mock.RespondWith("generate ONE focused follow-up question", "Next?")

	start, _ := service.Start(context.Background(), "u1", SpecialistUnifiedCoach)
	if _, err := service.Send(context.Background(), start.SessionID, "All my stats."); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	result, err := service.Complete(context.Background(), start.SessionID, true)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if result.Status != storage.SessionCompleted {
		t.Errorf("expected completed, got %s", result.Status)
	}
	if !generator.called {
		t.Error("expected program generation to be triggered")
	}

	profile, err := store.GetProfile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("profile not written: %v", err)
	}
	if profile.CurrentWeightKg == nil || *profile.CurrentWeightKg != 80 {
		t.Errorf("expected weight 80, got %v", profile.CurrentWeightKg)
	}
	if profile.BMR == nil || *profile.BMR != 1780 {
		t.Errorf("expected BMR 1780, got %v", profile.BMR)
	}
	if profile.EstimatedTDEE == nil || *profile.EstimatedTDEE != 2759 {
		t.Errorf("expected TDEE 2759, got %v", profile.EstimatedTDEE)
	}
	if profile.DailyCalorieTarget == nil || *profile.DailyCalorieTarget != 2207 {
		t.Errorf("expected calorie target 2207, got %v", profile.DailyCalorieTarget)
	}
	if !profile.ConsultationOnboardingCompleted {
		t.Error("expected onboarding flag to be set")
	}

	session, _ := store.GetSession(context.Background(), start.SessionID)
	if session.Status != storage.SessionCompleted || session.CompletedAt == nil {
		t.Error("expected completed session with completed_at set")
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	service, store, mock, generator := newTestService(t)
	mock.RespondWith("Extract any relevant structured data", `{"goals": {"primary_goal": "maintain"}}`)
	mock.RespondWith("generate ONE focused follow-up question", "Next?")

	start, _ := service.Start(context.Background(), "u1", SpecialistUnifiedCoach)
	service.Send(context.Background(), start.SessionID, "Some data.")

	if _, err := service.Complete(context.Background(), start.SessionID, false); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	before, _ := store.ListExtractions(context.Background(), start.SessionID)

	second, err := service.Complete(context.Background(), start.SessionID, true)
	if err != nil {
		t.Fatalf("second complete failed: %v", err)
	}
	if second.Status != storage.SessionCompleted {
		t.Errorf("expected cached completed result, got %s", second.Status)
	}
	if generator.called {
		t.Error("idempotent completion must not trigger program generation")
	}

	after, _ := store.ListExtractions(context.Background(), start.SessionID)
	if len(after) != len(before) {
		t.Error("second completion must create no new extractions")
	}
}

func TestSingleActiveSessionPerSpecialistPair(t *testing.T) {
	store := memory.New()

	first := &storage.ConsultationSession{
		UserID:         "u1",
		SpecialistType: SpecialistTrainer,
		Status:         storage.SessionActive,
		Stages:         specialistStages[SpecialistTrainer],
	}
	if err := store.CreateSession(context.Background(), first); err != nil {
		t.Fatalf("first session failed: %v", err)
	}

	duplicate := &storage.ConsultationSession{
		UserID:         "u1",
		SpecialistType: SpecialistTrainer,
		Status:         storage.SessionActive,
		Stages:         specialistStages[SpecialistTrainer],
	}
	if err := store.CreateSession(context.Background(), duplicate); err != storage.ErrActiveSessionExists {
		t.Errorf("expected ErrActiveSessionExists, got %v", err)
	}

	// A different specialist type is allowed.
	other := &storage.ConsultationSession{
		UserID:         "u1",
		SpecialistType: SpecialistNutritionist,
		Status:         storage.SessionActive,
		Stages:         specialistStages[SpecialistNutritionist],
	}
	if err := store.CreateSession(context.Background(), other); err != nil {
		t.Errorf("different specialist must be allowed: %v", err)
	}
}

func TestCoachToolsEmptyStates(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()

	if result := service.GetUserProfileSummary(ctx, "nobody"); result["error"] == nil {
		t.Error("expected error for missing profile")
	}
	if result := service.GetUserGoals(ctx, "nobody"); result["message"] == nil {
		t.Error("expected empty-state message for goals")
	}
	if result := service.GetConsultationHistory(ctx, "nobody", 5); result["message"] == nil {
		t.Error("expected empty-state message for history")
	}
	if result := service.CompareConsultations(ctx, "nobody"); result["message"] == nil {
		t.Error("expected empty-state message for comparison")
	}
}
