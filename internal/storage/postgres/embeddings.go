package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/renatodap/fitness-backend/internal/storage"
)

func (p *PostgresStorage) InsertEmbedding(ctx context.Context, embedding *storage.Embedding) error {
	if embedding.ID == uuid.Nil {
		embedding.ID = uuid.New()
	}

	metadata, err := marshalJSON(embedding.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO multimodal_embeddings (
			id, user_id, data_type, source_type, source_id, embedding,
			content_text, storage_url, storage_bucket, file_name,
			file_size_bytes, mime_type, metadata, confidence_score,
			embedding_model, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6::vector, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
	`

	_, err = p.pool.Exec(ctx, query,
		embedding.ID, embedding.UserID, embedding.DataType, embedding.SourceType, embedding.SourceID,
		encodeVector(embedding.Vector), embedding.ContentText, embedding.StorageURL, embedding.StorageBucket,
		embedding.FileName, embedding.FileSizeBytes, embedding.MimeType, metadata, embedding.ConfidenceScore,
		embedding.EmbeddingModel,
	)
	return err
}

func (p *PostgresStorage) SearchEmbeddings(ctx context.Context, search storage.EmbeddingSearch) ([]storage.EmbeddingMatch, error) {
	// Cosine similarity via pgvector; rows from other embedding model
	// families are excluded in SQL, never scored.
	query := `
		SELECT id, user_id, data_type, source_type, source_id, embedding::text,
		       content_text, storage_url, storage_bucket, file_name,
		       file_size_bytes, mime_type, metadata, confidence_score,
		       embedding_model, created_at,
		       1 - (embedding <=> $2::vector) AS similarity
		FROM multimodal_embeddings
		WHERE user_id = $1
		  AND embedding_model = $3
		  AND (cardinality($4::text[]) = 0 OR data_type = ANY($4))
		  AND (cardinality($5::text[]) = 0 OR source_type = ANY($5))
		  AND 1 - (embedding <=> $2::vector) >= $6
		ORDER BY embedding <=> $2::vector ASC
		LIMIT $7
	`

	limit := search.Limit
	if limit <= 0 {
		limit = 10
	}
	dataTypes := search.DataTypes
	if dataTypes == nil {
		dataTypes = []string{}
	}
	sourceTypes := search.SourceTypes
	if sourceTypes == nil {
		sourceTypes = []string{}
	}

	rows, err := p.pool.Query(ctx, query,
		search.UserID, encodeVector(search.Vector), search.EmbeddingModel,
		dataTypes, sourceTypes, search.Threshold, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := []storage.EmbeddingMatch{}
	for rows.Next() {
		var match storage.EmbeddingMatch
		var vectorText string
		var metadata []byte
		if err := rows.Scan(
			&match.ID, &match.UserID, &match.DataType, &match.SourceType, &match.SourceID, &vectorText,
			&match.ContentText, &match.StorageURL, &match.StorageBucket, &match.FileName,
			&match.FileSizeBytes, &match.MimeType, &metadata, &match.ConfidenceScore,
			&match.EmbeddingModel, &match.CreatedAt, &match.Similarity,
		); err != nil {
			return nil, err
		}
		if match.Vector, err = decodeVector(vectorText); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(metadata, &match.Metadata); err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func (p *PostgresStorage) DeleteEmbeddingsOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM multimodal_embeddings WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (p *PostgresStorage) EnqueueEmbeddingJob(ctx context.Context, job *storage.EmbeddingJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = "pending"
	}

	query := `
		INSERT INTO embedding_queue (id, user_id, source_type, source_id, content, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := p.pool.Exec(ctx, query, job.ID, job.UserID, job.SourceType, job.SourceID, job.Content, job.Status)
	return err
}

func (p *PostgresStorage) ListPendingEmbeddingJobs(ctx context.Context, limit int) ([]storage.EmbeddingJob, error) {
	query := `
		SELECT id, user_id, source_type, source_id, content, status, error, created_at
		FROM embedding_queue
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
	`

	rows, err := p.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []storage.EmbeddingJob{}
	for rows.Next() {
		var job storage.EmbeddingJob
		if err := rows.Scan(&job.ID, &job.UserID, &job.SourceType, &job.SourceID, &job.Content, &job.Status, &job.Error, &job.CreatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (p *PostgresStorage) ResolveEmbeddingJob(ctx context.Context, jobID uuid.UUID, jobErr error) error {
	if jobErr != nil {
		_, err := p.pool.Exec(ctx,
			`UPDATE embedding_queue SET status = 'failed', error = $2 WHERE id = $1`,
			jobID, jobErr.Error())
		return err
	}
	_, err := p.pool.Exec(ctx, `UPDATE embedding_queue SET status = 'done', error = NULL WHERE id = $1`, jobID)
	return err
}
