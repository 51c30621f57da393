package embeddings

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/storage"
)

// Source types used across the memory layer.
const (
	SourceMeal          = "meal"
	SourceActivity      = "activity"
	SourceWorkout       = "workout"
	SourceVoiceNote     = "voice_note"
	SourceProgressPhoto = "progress_photo"
	SourceMealPhoto     = "meal_photo"
	SourceConsultation  = "consultation"
	SourceCoachMessage  = "coach_message"
	SourceQuickEntry    = "quick_entry"
)

// Transcriber converts audio to text. The model router satisfies this.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, format string) (string, error)
}

// Service is the embedding side of the memory layer (writes). Retrieval
// lives in search.go.
type Service struct {
	store       storage.EmbeddingStore
	model       Model
	transcriber Transcriber
}

func NewService(store storage.EmbeddingStore, model Model, transcriber Transcriber) *Service {
	return &Service{store: store, model: model, transcriber: transcriber}
}

func (s *Service) Model() Model { return s.model }

// StoreParams captures everything a stored embedding row carries besides
// the vector itself.
type StoreParams struct {
	UserID          string
	DataType        string
	SourceType      string
	SourceID        *uuid.UUID
	ContentText     string
	Metadata        map[string]any
	ConfidenceScore float64

	// Image-only fields
	StorageURL    string
	StorageBucket string
	FileName      string
	FileSizeBytes int64
	MimeType      string
}

// EmbedAndStoreText embeds text and appends a row to the unified store.
func (s *Service) EmbedAndStoreText(ctx context.Context, params StoreParams) (*storage.Embedding, error) {
	vector, err := s.model.EmbedText(ctx, params.ContentText)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	if params.DataType == "" {
		params.DataType = storage.DataTypeText
	}
	return s.insert(ctx, params, vector)
}

// EmbedAndStoreImage embeds image bytes via the joint vision-text model.
func (s *Service) EmbedAndStoreImage(ctx context.Context, params StoreParams, imageBytes []byte) (*storage.Embedding, error) {
	vector, err := s.model.EmbedImage(ctx, imageBytes)
	if err != nil {
		return nil, fmt.Errorf("embed image: %w", err)
	}
	params.DataType = storage.DataTypeImage
	return s.insert(ctx, params, vector)
}

// EmbedAndStoreAudio transcribes audio through the model router, then
// embeds the transcription as text. Raw audio vectors are not stored.
func (s *Service) EmbedAndStoreAudio(ctx context.Context, params StoreParams, audio []byte, format string) (*storage.Embedding, string, error) {
	transcription, err := s.transcriber.Transcribe(ctx, audio, format)
	if err != nil {
		return nil, "", fmt.Errorf("transcribe audio: %w", err)
	}

	params.ContentText = transcription
	params.DataType = storage.DataTypeAudio
	vector, err := s.model.EmbedText(ctx, transcription)
	if err != nil {
		return nil, transcription, fmt.Errorf("embed transcription: %w", err)
	}

	row, err := s.insert(ctx, params, vector)
	return row, transcription, err
}

func (s *Service) insert(ctx context.Context, params StoreParams, vector []float32) (*storage.Embedding, error) {
	row := &storage.Embedding{
		ID:              uuid.New(),
		UserID:          params.UserID,
		DataType:        params.DataType,
		SourceType:      params.SourceType,
		SourceID:        params.SourceID,
		Vector:          vector,
		Metadata:        params.Metadata,
		ConfidenceScore: params.ConfidenceScore,
		EmbeddingModel:  s.model.Name(),
		CreatedAt:       time.Now().UTC(),
	}
	if params.ContentText != "" {
		content := params.ContentText
		if len(content) > 5000 {
			content = content[:5000]
		}
		row.ContentText = &content
	}
	if params.StorageURL != "" {
		row.StorageURL = &params.StorageURL
		row.StorageBucket = &params.StorageBucket
		row.FileName = &params.FileName
		row.FileSizeBytes = &params.FileSizeBytes
		row.MimeType = &params.MimeType
	}

	if err := s.store.InsertEmbedding(ctx, row); err != nil {
		return nil, fmt.Errorf("insert embedding: %w", err)
	}
	return row, nil
}

// ProcessQueue drains up to limit pending rows from the server-side
// embedding queue, embedding each and resolving its status.
func (s *Service) ProcessQueue(ctx context.Context, limit int) (processed, failed int, err error) {
	jobs, err := s.store.ListPendingEmbeddingJobs(ctx, limit)
	if err != nil {
		return 0, 0, err
	}

	for _, job := range jobs {
		_, embedErr := s.EmbedAndStoreText(ctx, StoreParams{
			UserID:          job.UserID,
			SourceType:      job.SourceType,
			SourceID:        job.SourceID,
			ContentText:     job.Content,
			ConfidenceScore: 0.9,
		})
		if resolveErr := s.store.ResolveEmbeddingJob(ctx, job.ID, embedErr); resolveErr != nil {
			log.Printf("[Embeddings] resolve job %s failed: %v", job.ID, resolveErr)
		}
		if embedErr != nil {
			failed++
			continue
		}
		processed++
	}
	return processed, failed, nil
}

// CleanupOlderThan deletes embedding rows older than the given age.
func (s *Service) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	return s.store.DeleteEmbeddingsOlderThan(ctx, time.Now().UTC().Add(-age))
}
