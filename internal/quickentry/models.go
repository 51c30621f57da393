package quickentry

import "github.com/google/uuid"

// Entry types the classifier resolves to.
const (
	TypeMeal        = "meal"
	TypeActivity    = "activity"
	TypeWorkout     = "workout"
	TypeMeasurement = "measurement"
	TypeNote        = "note"
	TypeUnknown     = "unknown"
)

// Below this confidence, auto-classified entries are persisted as
// unclassified notes instead of typed rows.
const minConfidence = 0.4

// Input is one multimodal quick entry.
type Input struct {
	Text        string `json:"text,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	AudioBase64 string `json:"audio_base64,omitempty"`
	AudioFormat string `json:"audio_format,omitempty"`
	PDFBase64   string `json:"pdf_base64,omitempty"`

	Metadata *InputMetadata `json:"metadata,omitempty"`
}

// InputMetadata carries client hints alongside the raw content.
type InputMetadata struct {
	// ManualType fixes the entry type and skips auto-classification.
	ManualType string `json:"manual_type,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// Classification is the structured result of the classify-and-extract
// model call.
type Classification struct {
	Type        string         `json:"type"`
	Confidence  float64        `json:"confidence"`
	Data        map[string]any `json:"data"`
	Suggestions []string       `json:"suggestions"`
}

// PreviewResult is returned by the no-write preview phase.
type PreviewResult struct {
	Success         bool             `json:"success"`
	Error           string           `json:"error,omitempty"`
	EntryType       string           `json:"entry_type"`
	Confidence      float64          `json:"confidence"`
	Data            map[string]any   `json:"data"`
	Suggestions     []string         `json:"suggestions,omitempty"`
	ExtractedText   string           `json:"extracted_text,omitempty"`
	SemanticContext *SemanticContext `json:"semantic_context,omitempty"`
}

// SemanticContext surfaces similar past entries on preview.
type SemanticContext struct {
	SimilarCount int              `json:"similar_count"`
	Suggestions  []map[string]any `json:"suggestions"`
}

// ConfirmRequest persists a classification the user approved (possibly
// after edits).
type ConfirmRequest struct {
	EntryType     string         `json:"entry_type"`
	Data          map[string]any `json:"data"`
	OriginalText  string         `json:"original_text"`
	ExtractedText string         `json:"extracted_text,omitempty"`
	ImageBase64   string         `json:"image_base64,omitempty"`
}

// Result is the outcome of a persisted entry.
type Result struct {
	Success    bool           `json:"success"`
	Error      string         `json:"error,omitempty"`
	EntryType  string         `json:"entry_type"`
	Confidence float64        `json:"confidence"`
	Data       map[string]any `json:"data,omitempty"`
	EntryID    uuid.UUID      `json:"entry_id,omitempty"`
	Suggestions []string      `json:"suggestions,omitempty"`
	ExtractedText string      `json:"extracted_text,omitempty"`
}

// sourceTypeFor maps an entry type to its memory source type.
func sourceTypeFor(entryType string) string {
	switch entryType {
	case TypeMeal:
		return "meal"
	case TypeActivity:
		return "activity"
	case TypeWorkout:
		return "workout"
	case TypeNote:
		return "voice_note"
	case TypeMeasurement:
		return "progress_photo"
	default:
		return "quick_entry"
	}
}
