package embeddings

import (
	"context"
	"testing"
	"time"

	"github.com/renatodap/fitness-backend/internal/storage"
	"github.com/renatodap/fitness-backend/internal/storage/memory"
)

type noopTranscriber struct{}

func (noopTranscriber) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	return "transcribed text", nil
}

func newTestSearchService(t *testing.T) (*Service, *memory.MemoryStorage) {
	t.Helper()
	store := memory.New()
	return NewService(store, NewMockModel(64), noopTranscriber{}), store
}

func TestSearchFindsIdenticalText(t *testing.T) {
	service, _ := newTestSearchService(t)
	ctx := context.Background()

	_, err := service.EmbedAndStoreText(ctx, StoreParams{
		UserID:          "u1",
		SourceType:      SourceMeal,
		ContentText:     "grilled chicken with rice",
		ConfidenceScore: 0.9,
	})
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}

	matches, err := service.SearchByText(ctx, "grilled chicken with rice", "u1", nil, nil, 5, 0.9)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match for identical text, got %d", len(matches))
	}
	if matches[0].Similarity < 0.99 {
		t.Errorf("identical text should have similarity ~1, got %v", matches[0].Similarity)
	}
}

func TestSearchIsolatesUsers(t *testing.T) {
	service, _ := newTestSearchService(t)
	ctx := context.Background()

	service.EmbedAndStoreText(ctx, StoreParams{UserID: "u1", SourceType: SourceMeal, ContentText: "protein shake"})

	matches, err := service.SearchByText(ctx, "protein shake", "u2", nil, nil, 5, 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("user u2 must not see u1 rows, got %d matches", len(matches))
	}
}

func TestSearchSkipsOtherModelFamilies(t *testing.T) {
	store := memory.New()
	service := NewService(store, NewMockModel(64), noopTranscriber{})
	ctx := context.Background()

	// A row produced by a different embedding model must never be scored.
	foreign := &storage.Embedding{
		UserID:         "u1",
		DataType:       storage.DataTypeText,
		SourceType:     SourceMeal,
		Vector:         make([]float32, 64),
		EmbeddingModel: "some-other-model",
		CreatedAt:      time.Now().UTC(),
	}
	if err := store.InsertEmbedding(ctx, foreign); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	matches, err := service.SearchByText(ctx, "anything", "u1", nil, nil, 5, 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("rows from other model families must be excluded, got %d", len(matches))
	}
}

func TestSearchSourceTypeFilter(t *testing.T) {
	service, _ := newTestSearchService(t)
	ctx := context.Background()

	service.EmbedAndStoreText(ctx, StoreParams{UserID: "u1", SourceType: SourceMeal, ContentText: "morning oats"})
	service.EmbedAndStoreText(ctx, StoreParams{UserID: "u1", SourceType: SourceWorkout, ContentText: "morning oats"})

	matches, err := service.SearchByText(ctx, "morning oats", "u1", []string{SourceWorkout}, nil, 5, 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].SourceType != SourceWorkout {
		t.Errorf("expected only the workout row, got %+v", matches)
	}
}

func TestRecencyBlendingPrefersRecentRows(t *testing.T) {
	store := memory.New()
	model := NewMockModel(64)
	service := NewService(store, model, noopTranscriber{})
	ctx := context.Background()

	vector, _ := model.EmbedText(ctx, "evening run")
	old := &storage.Embedding{
		UserID: "u1", DataType: storage.DataTypeText, SourceType: SourceActivity,
		Vector: vector, EmbeddingModel: model.Name(),
		CreatedAt: time.Now().UTC().AddDate(0, -6, 0),
	}
	recent := &storage.Embedding{
		UserID: "u1", DataType: storage.DataTypeText, SourceType: SourceActivity,
		Vector: vector, EmbeddingModel: model.Name(),
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	store.InsertEmbedding(ctx, old)
	store.InsertEmbedding(ctx, recent)

	matches, err := service.SearchSimilarEntries(ctx, "u1", "evening run", SourceActivity, 2, 0.9, 0.5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if !matches[0].CreatedAt.After(matches[1].CreatedAt) {
		t.Error("with high recency weight the newer row must rank first")
	}
}

func TestThresholdDiscardsWeakMatches(t *testing.T) {
	service, _ := newTestSearchService(t)
	ctx := context.Background()

	service.EmbedAndStoreText(ctx, StoreParams{UserID: "u1", SourceType: SourceMeal, ContentText: "completely unrelated content"})

	matches, err := service.SearchSimilarEntries(ctx, "u1", "grilled salmon dinner", SourceMeal, 5, 0.3, 0.99)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("matches below the similarity threshold must be discarded, got %d", len(matches))
	}
}

func TestAudioEmbeddingStoresTranscriptionAsText(t *testing.T) {
	service, store := newTestSearchService(t)
	ctx := context.Background()

	row, transcription, err := service.EmbedAndStoreAudio(ctx, StoreParams{
		UserID:     "u1",
		SourceType: SourceVoiceNote,
	}, []byte{1, 2, 3}, "m4a")
	if err != nil {
		t.Fatalf("audio embed failed: %v", err)
	}
	if transcription != "transcribed text" {
		t.Errorf("unexpected transcription: %q", transcription)
	}
	if row.DataType != storage.DataTypeAudio {
		t.Errorf("expected audio data type, got %s", row.DataType)
	}
	if row.ContentText == nil || *row.ContentText != "transcribed text" {
		t.Error("transcription text must be stored on the row")
	}

	// The vector comes from the transcription, so a text search for the
	// transcription finds it.
	matches, err := service.SearchByText(ctx, "transcribed text", "u1", nil, []string{storage.DataTypeAudio}, 5, 0.9)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("expected the audio row to be text-searchable, got %d matches", len(matches))
	}
	_ = store
}

func TestProcessQueueResolvesJobs(t *testing.T) {
	service, store := newTestSearchService(t)
	ctx := context.Background()

	store.EnqueueEmbeddingJob(ctx, &storage.EmbeddingJob{UserID: "u1", SourceType: SourceMeal, Content: "queued meal"})
	store.EnqueueEmbeddingJob(ctx, &storage.EmbeddingJob{UserID: "u1", SourceType: SourceMeal, Content: ""}) // will fail: empty

	processed, failed, err := service.ProcessQueue(ctx, 10)
	if err != nil {
		t.Fatalf("process queue failed: %v", err)
	}
	if processed != 1 || failed != 1 {
		t.Errorf("expected 1 processed and 1 failed, got %d/%d", processed, failed)
	}

	pending, _ := store.ListPendingEmbeddingJobs(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("expected no pending jobs left, got %d", len(pending))
	}
}
