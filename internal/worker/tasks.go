// Package worker runs embedding, summarization, and analytics work off
// the request path. Tasks travel as JSON over NATS subjects; a separate
// scheduler goroutine drives the recurring jobs.
package worker

import "github.com/google/uuid"

// NATS subjects, one per task type.
const (
	SubjectVectorizeEntry        = "tasks.vectorize_entry"
	SubjectVectorizeImage        = "tasks.vectorize_image"
	SubjectVectorizeMessage      = "tasks.vectorize_message"
	SubjectBatchVectorize        = "tasks.batch_vectorize_messages"
	SubjectConversationAnalytics = "tasks.update_conversation_analytics"
	SubjectSummarizeConversation = "tasks.summarize_conversation"
	SubjectWarmUserCache         = "tasks.warm_user_cache"
	SubjectCleanupEmbeddings     = "tasks.cleanup_old_embeddings"
)

// QueueGroup makes worker instances share the load instead of each
// processing every task.
const QueueGroup = "fitness-workers"

// VectorizeEntryTask embeds a persisted quick entry into user memory.
type VectorizeEntryTask struct {
	UserID     string         `json:"user_id"`
	EntryID    uuid.UUID      `json:"entry_id"`
	EntryType  string         `json:"entry_type"`
	SourceType string         `json:"source_type"`
	Text       string         `json:"text"`
	Metadata   map[string]any `json:"metadata"`
}

// VectorizeImageTask embeds an uploaded image with its storage pointer.
type VectorizeImageTask struct {
	UserID        string `json:"user_id"`
	ImageBase64   string `json:"image_base64"`
	StorageURL    string `json:"storage_url"`
	StorageBucket string `json:"storage_bucket"`
	FileName      string `json:"file_name"`
	MimeType      string `json:"mime_type"`
}

// VectorizeMessageTask embeds one coach chat message.
type VectorizeMessageTask struct {
	UserID    string    `json:"user_id"`
	MessageID uuid.UUID `json:"message_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
}

// BatchVectorizeMessagesTask embeds several chat messages in one task.
type BatchVectorizeMessagesTask struct {
	UserID   string                 `json:"user_id"`
	Messages []VectorizeMessageTask `json:"messages"`
}

// ConversationAnalyticsTask recomputes message count, last-seen, and a
// derived title for a conversation.
type ConversationAnalyticsTask struct {
	UserID         string    `json:"user_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
}

// SummarizeConversationTask compresses a long conversation.
type SummarizeConversationTask struct {
	UserID         string    `json:"user_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
}

// WarmUserCacheTask prefetches a user's profile and recent logs.
type WarmUserCacheTask struct {
	UserID string `json:"user_id"`
}

// CleanupEmbeddingsTask deletes embedding rows older than Days.
type CleanupEmbeddingsTask struct {
	Days int `json:"days"`
}
