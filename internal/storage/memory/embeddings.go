package memory

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/storage"
)

func (m *MemoryStorage) InsertEmbedding(ctx context.Context, embedding *storage.Embedding) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if embedding.ID == uuid.Nil {
		embedding.ID = uuid.New()
	}
	if embedding.CreatedAt.IsZero() {
		embedding.CreatedAt = time.Now().UTC()
	}
	m.embeddings = append(m.embeddings, *embedding)
	return nil
}

func (m *MemoryStorage) SearchEmbeddings(ctx context.Context, search storage.EmbeddingSearch) ([]storage.EmbeddingMatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := []storage.EmbeddingMatch{}
	for _, row := range m.embeddings {
		if row.UserID != search.UserID {
			continue
		}
		// Vectors from a different model family are never compared.
		if row.EmbeddingModel != search.EmbeddingModel {
			continue
		}
		if len(search.DataTypes) > 0 && !contains(search.DataTypes, row.DataType) {
			continue
		}
		if len(search.SourceTypes) > 0 && !contains(search.SourceTypes, row.SourceType) {
			continue
		}

		similarity := cosineSimilarity(search.Vector, row.Vector)
		if similarity < search.Threshold {
			continue
		}
		matches = append(matches, storage.EmbeddingMatch{Embedding: row, Similarity: similarity})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if search.Limit > 0 && len(matches) > search.Limit {
		matches = matches[:search.Limit]
	}
	return matches, nil
}

func (m *MemoryStorage) DeleteEmbeddingsOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.embeddings[:0]
	deleted := 0
	for _, row := range m.embeddings {
		if row.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	m.embeddings = kept
	return deleted, nil
}

func (m *MemoryStorage) EnqueueEmbeddingJob(ctx context.Context, job *storage.EmbeddingJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = "pending"
	}
	copied := *job
	m.embeddingJobs[job.ID] = &copied
	return nil
}

func (m *MemoryStorage) ListPendingEmbeddingJobs(ctx context.Context, limit int) ([]storage.EmbeddingJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []storage.EmbeddingJob{}
	for _, job := range m.embeddingJobs {
		if job.Status == "pending" {
			out = append(out, *job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStorage) ResolveEmbeddingJob(ctx context.Context, jobID uuid.UUID, jobErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.embeddingJobs[jobID]
	if !ok {
		return storage.ErrNotFound
	}
	if jobErr != nil {
		job.Status = "failed"
		message := jobErr.Error()
		job.Error = &message
		return nil
	}
	job.Status = "done"
	job.Error = nil
	return nil
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
