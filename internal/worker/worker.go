package worker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	nc "github.com/nats-io/nats.go"

	"github.com/renatodap/fitness-backend/internal/embeddings"
	"github.com/renatodap/fitness-backend/internal/storage"
)

// Per-task execution limit.
const taskTimeLimit = 300 * time.Second

const maxAttempts = 3

// Worker consumes tasks from the queue. Handlers retry with backoff
// except cache warming, which is best-effort.
type Worker struct {
	queue      *Queue
	store      storage.Store
	embeddings *embeddings.Service

	subscriptions []*nc.Subscription
}

func NewWorker(queue *Queue, store storage.Store, embedService *embeddings.Service) *Worker {
	return &Worker{queue: queue, store: store, embeddings: embedService}
}

// Start subscribes every task subject in the shared queue group.
func (w *Worker) Start() error {
	handlers := map[string]func(context.Context, []byte) error{
		SubjectVectorizeEntry:        w.handleVectorizeEntry,
		SubjectVectorizeImage:        w.handleVectorizeImage,
		SubjectVectorizeMessage:      w.handleVectorizeMessage,
		SubjectBatchVectorize:        w.handleBatchVectorize,
		SubjectConversationAnalytics: w.handleConversationAnalytics,
		SubjectSummarizeConversation: w.handleSummarizeConversation,
		SubjectWarmUserCache:         w.handleWarmUserCache,
		SubjectCleanupEmbeddings:     w.handleCleanupEmbeddings,
	}

	for subject, handler := range handlers {
		subject, handler := subject, handler
		subscription, err := w.queue.Conn().QueueSubscribe(subject, QueueGroup, func(msg *nc.Msg) {
			w.run(subject, handler, msg.Data)
		})
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		w.subscriptions = append(w.subscriptions, subscription)
	}

	log.Printf("[Worker] subscribed to %d task subjects", len(handlers))
	return nil
}

func (w *Worker) Stop() {
	for _, subscription := range w.subscriptions {
		_ = subscription.Unsubscribe()
	}
}

// run executes one task with the time limit and retry policy.
func (w *Worker) run(subject string, handler func(context.Context, []byte) error, data []byte) {
	bestEffort := subject == SubjectWarmUserCache
	attempts := maxAttempts
	if bestEffort {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), taskTimeLimit)
		err = handler(ctx, data)
		cancel()
		if err == nil {
			return
		}
		log.Printf("[Worker] %s attempt %d/%d failed: %v", subject, attempt, attempts, err)
		if attempt < attempts {
			time.Sleep(time.Duration(attempt*attempt) * time.Second)
		}
	}
	if !bestEffort {
		log.Printf("[Worker] %s gave up after %d attempts: %v", subject, attempts, err)
	}
}

func (w *Worker) handleVectorizeEntry(ctx context.Context, data []byte) error {
	var task VectorizeEntryTask
	if err := json.Unmarshal(data, &task); err != nil {
		return err
	}

	entryID := task.EntryID
	_, err := w.embeddings.EmbedAndStoreText(ctx, embeddings.StoreParams{
		UserID:          task.UserID,
		SourceType:      task.SourceType,
		SourceID:        &entryID,
		ContentText:     task.Text,
		Metadata:        task.Metadata,
		ConfidenceScore: 0.9,
	})
	return err
}

func (w *Worker) handleVectorizeImage(ctx context.Context, data []byte) error {
	var task VectorizeImageTask
	if err := json.Unmarshal(data, &task); err != nil {
		return err
	}

	imageBytes, err := base64.StdEncoding.DecodeString(task.ImageBase64)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	_, err = w.embeddings.EmbedAndStoreImage(ctx, embeddings.StoreParams{
		UserID:     task.UserID,
		SourceType: embeddings.SourceMealPhoto,
		Metadata: map[string]any{
			"uploaded_via": "quick_entry",
		},
		ConfidenceScore: 0.95,
		StorageURL:      task.StorageURL,
		StorageBucket:   task.StorageBucket,
		FileName:        task.FileName,
		FileSizeBytes:   int64(len(imageBytes)),
		MimeType:        task.MimeType,
	}, imageBytes)
	return err
}

func (w *Worker) handleVectorizeMessage(ctx context.Context, data []byte) error {
	var task VectorizeMessageTask
	if err := json.Unmarshal(data, &task); err != nil {
		return err
	}
	return w.vectorizeMessage(ctx, task)
}

func (w *Worker) handleBatchVectorize(ctx context.Context, data []byte) error {
	var task BatchVectorizeMessagesTask
	if err := json.Unmarshal(data, &task); err != nil {
		return err
	}

	for _, message := range task.Messages {
		if err := w.vectorizeMessage(ctx, message); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) vectorizeMessage(ctx context.Context, task VectorizeMessageTask) error {
	messageID := task.MessageID
	_, err := w.embeddings.EmbedAndStoreText(ctx, embeddings.StoreParams{
		UserID:      task.UserID,
		SourceType:  embeddings.SourceCoachMessage,
		SourceID:    &messageID,
		ContentText: task.Content,
		Metadata: map[string]any{
			"role": task.Role,
		},
		ConfidenceScore: 0.9,
	})
	if err != nil {
		return err
	}
	return w.store.MarkMessageVectorized(ctx, task.MessageID)
}

func (w *Worker) handleConversationAnalytics(ctx context.Context, data []byte) error {
	var task ConversationAnalyticsTask
	if err := json.Unmarshal(data, &task); err != nil {
		return err
	}

	conversation, err := w.store.GetConversation(ctx, task.ConversationID)
	if err != nil {
		return err
	}

	messages, err := w.store.ListCoachMessages(ctx, task.ConversationID, 0)
	if err != nil {
		return err
	}

	conversation.MessageCount = len(messages)
	if len(messages) > 0 {
		last := messages[len(messages)-1].CreatedAt
		conversation.LastMessageAt = &last
	}

	// Derive a title from the first user message when absent.
	if conversation.Title == nil {
		for _, message := range messages {
			if message.Role == "user" {
				title := strings.TrimSpace(message.Content)
				if len(title) > 60 {
					title = title[:60] + "..."
				}
				conversation.Title = &title
				break
			}
		}
	}

	return w.store.UpdateConversation(ctx, conversation)
}

func (w *Worker) handleSummarizeConversation(ctx context.Context, data []byte) error {
	var task SummarizeConversationTask
	if err := json.Unmarshal(data, &task); err != nil {
		return err
	}

	conversation, err := w.store.GetConversation(ctx, task.ConversationID)
	if err != nil {
		return err
	}

	messages, err := w.store.ListCoachMessages(ctx, task.ConversationID, 0)
	if err != nil {
		return err
	}
	if len(messages) <= 20 {
		return nil
	}

	// Compress the head of the conversation into a rolling digest; the
	// tail stays verbatim in context windows.
	var b strings.Builder
	for _, message := range messages[:len(messages)-10] {
		b.WriteString(message.Role)
		b.WriteString(": ")
		b.WriteString(truncate(message.Content, 160))
		b.WriteByte('\n')
	}
	summary := fmt.Sprintf("Conversation with %d messages. Earlier discussion:\n%s", len(messages), truncate(b.String(), 3000))
	conversation.Summary = &summary

	return w.store.UpdateConversation(ctx, conversation)
}

func (w *Worker) handleWarmUserCache(ctx context.Context, data []byte) error {
	var task WarmUserCacheTask
	if err := json.Unmarshal(data, &task); err != nil {
		return err
	}

	// Touch the hot paths so the store's caches are primed.
	if _, err := w.store.GetProfile(ctx, task.UserID); err != nil && err != storage.ErrNotFound {
		return err
	}
	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	if _, err := w.store.ListMealsBetween(ctx, task.UserID, weekAgo, time.Now().UTC()); err != nil {
		return err
	}
	_, err := w.store.ListActivitiesSince(ctx, task.UserID, "", weekAgo, 20)
	return err
}

func (w *Worker) handleCleanupEmbeddings(ctx context.Context, data []byte) error {
	var task CleanupEmbeddingsTask
	if err := json.Unmarshal(data, &task); err != nil {
		return err
	}
	if task.Days <= 0 {
		task.Days = 90
	}

	deleted, err := w.embeddings.CleanupOlderThan(ctx, time.Duration(task.Days)*24*time.Hour)
	if err != nil {
		return err
	}
	log.Printf("[Worker] cleaned up %d embeddings older than %d days", deleted, task.Days)
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
