package embeddings

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/renatodap/fitness-backend/internal/storage"
)

// Match is one retrieval hit after recency blending.
type Match struct {
	storage.EmbeddingMatch
	// Score is the blended ranking value; Similarity keeps the raw cosine.
	Score float64
}

// SearchByText embeds the query and runs a filtered similarity search.
// Only rows produced by the service's own model family are compared.
func (s *Service) SearchByText(ctx context.Context, query, userID string, sourceTypes, dataTypes []string, limit int, threshold float64) ([]storage.EmbeddingMatch, error) {
	vector, err := s.model.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	return s.store.SearchEmbeddings(ctx, storage.EmbeddingSearch{
		UserID:         userID,
		Vector:         vector,
		EmbeddingModel: s.model.Name(),
		DataTypes:      dataTypes,
		SourceTypes:    sourceTypes,
		Limit:          limit,
		Threshold:      threshold,
	})
}

// SearchSimilarEntries retrieves past entries ranked by a blend of
// similarity and recency:
//
//	score = (1 - recencyWeight)*cosine + recencyWeight*recency(age)
//
// Rows below the similarity threshold are discarded before blending.
func (s *Service) SearchSimilarEntries(ctx context.Context, userID, queryText, sourceType string, limit int, recencyWeight, similarityThreshold float64) ([]Match, error) {
	if recencyWeight < 0 {
		recencyWeight = 0
	}
	if recencyWeight > 1 {
		recencyWeight = 1
	}

	var sourceTypes []string
	if sourceType != "" {
		sourceTypes = []string{sourceType}
	}

	// Over-fetch so the recency re-rank has candidates to promote.
	fetchLimit := limit * 3
	if fetchLimit < limit {
		fetchLimit = limit
	}

	raw, err := s.SearchByText(ctx, queryText, userID, sourceTypes, nil, fetchLimit, similarityThreshold)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	matches := make([]Match, 0, len(raw))
	for _, hit := range raw {
		score := (1-recencyWeight)*hit.Similarity + recencyWeight*recencyScore(now.Sub(hit.CreatedAt))
		matches = append(matches, Match{EmbeddingMatch: hit, Score: score})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// recencyScore maps an age to (0, 1] as 1/(1+days/30): 1.0 for a
// brand-new row, 0.5 at 30 days, 1/3 at 60 days, monotone decreasing.
func recencyScore(age time.Duration) float64 {
	if age < 0 {
		age = 0
	}
	days := age.Hours() / 24
	return 1.0 / (1.0 + days/30.0)
}
