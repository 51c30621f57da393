package ai

import "context"

// TaskType selects a row in the routing table.
type TaskType string

const (
	TaskRealTimeChat        TaskType = "real-time-chat"
	TaskQuickCategorization TaskType = "quick-categorization"
	TaskComplexReasoning    TaskType = "complex-reasoning"
	TaskLongContext         TaskType = "long-context"
	TaskStructuredOutput    TaskType = "structured-output"
	TaskVision              TaskType = "vision"
	TaskProgramGeneration   TaskType = "program-generation"
	TaskStreamingFeedback   TaskType = "streaming-feedback"
	TaskVerification        TaskType = "verification"
	TaskAudioTranscription  TaskType = "audio-transcription"
)

// TaskConfig describes one routed call.
type TaskConfig struct {
	Type               TaskType
	RequiresJSON       bool
	RequiresVision     bool
	PrioritizeSpeed    bool
	PrioritizeAccuracy bool
}

// ChatMessage is one turn of a chat-completions request. Content may be a
// plain string or structured vision content built with ImageContent.
type ChatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

func TextMessage(role, content string) ChatMessage {
	return ChatMessage{Role: role, Content: content}
}

// ImageContent builds a vision message payload: a text prompt plus an
// inline base64 image, in the content-parts shape the providers accept.
func ImageContent(prompt, imageBase64, mimeType string) []map[string]any {
	return []map[string]any{
		{"type": "text", "text": prompt},
		{"type": "image_url", "image_url": map[string]any{
			"url": "data:" + mimeType + ";base64," + imageBase64,
		}},
	}
}

// ResponseFormat mirrors the chat-completions response_format parameter.
type ResponseFormat struct {
	Type string `json:"type"` // "json_object"
}

var JSONResponse = &ResponseFormat{Type: "json_object"}

// Completion is the routed call result.
type Completion struct {
	Content     string
	Provider    string
	Model       string
	TotalTokens int
}

// StreamChunk is one delta of a streaming completion.
type StreamChunk struct {
	Content string
	Done    bool
	Err     error
}

// Client is the narrow contract an upstream provider must satisfy.
// Errors returned from Complete expose a stable category via IsTerminalErr.
type Client interface {
	Complete(ctx context.Context, model string, messages []ChatMessage, temperature float64, maxTokens int, format *ResponseFormat) (*Completion, error)
	Stream(ctx context.Context, model string, messages []ChatMessage, temperature float64, maxTokens int, format *ResponseFormat) (<-chan StreamChunk, error)
	Transcribe(ctx context.Context, model string, audio []byte, format string) (string, error)
}
