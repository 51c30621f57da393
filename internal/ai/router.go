package ai

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
)

// Provider roles. Which vendor backs each role is a startup decision;
// the routing table only speaks in these two symbols.
const (
	ProviderFast     = "fast"
	ProviderAccurate = "accurate"
)

// Default model ids per role. Overridable per deployment through the
// routing table, but these are the models the product is tuned against.
const (
	fastChatModel      = "llama-3.3-70b-versatile"
	fastLightModel     = "llama-3.1-8b-instant"
	fastWhisperModel   = "whisper-large-v3-turbo"
	accurateReasoning  = "deepseek/deepseek-r1"
	accurateDeepseekV3 = "deepseek/deepseek-v3"
	accurateVision     = "meta-llama/llama-4-scout"
	accurateVisionAlt  = "zero-one-ai/yi-vision"
	accurateFlash      = "google/gemini-2.0-flash-exp"
	accurateLongCtx    = "google/gemini-2.5-pro-exp"
	accurateCoder      = "qwen/qwen-2.5-coder-32b-instruct"
	accurateChatMirror = "groq/llama-3.3-70b-versatile"
)

type route struct {
	Provider         string
	Model            string
	FallbackProvider string
	FallbackModel    string
	MaxTokens        int
	Temperature      float64
}

var taskRouting = map[TaskType]route{
	TaskRealTimeChat:        {ProviderFast, fastChatModel, ProviderAccurate, accurateChatMirror, 2000, 0.7},
	TaskQuickCategorization: {ProviderFast, fastLightModel, ProviderAccurate, accurateFlash, 500, 0.1},
	TaskComplexReasoning:    {ProviderAccurate, accurateReasoning, ProviderFast, fastChatModel, 4000, 0.7},
	TaskLongContext:         {ProviderAccurate, accurateLongCtx, ProviderAccurate, accurateFlash, 8000, 0.7},
	TaskStructuredOutput:    {ProviderFast, fastChatModel, ProviderAccurate, accurateCoder, 4000, 0.2},
	TaskVision:              {ProviderAccurate, accurateVision, ProviderAccurate, accurateVisionAlt, 4000, 0.2},
	TaskProgramGeneration:   {ProviderAccurate, accurateReasoning, ProviderAccurate, accurateDeepseekV3, 16000, 0.7},
	TaskStreamingFeedback:   {ProviderFast, fastChatModel, ProviderAccurate, accurateChatMirror, 2000, 0.6},
	TaskVerification:        {ProviderAccurate, accurateFlash, ProviderFast, fastChatModel, 1000, 0.1},
	TaskAudioTranscription:  {ProviderFast, fastWhisperModel, ProviderFast, fastWhisperModel, 0, 0},
}

type selection struct {
	Provider         string
	Model            string
	FallbackProvider string
	FallbackModel    string
	MaxTokens        int
	Temperature      float64
}

// Router decides which provider and model serves each task and recovers
// from key exhaustion by demoting failed (provider, model) pairs.
type Router struct {
	fast     Client
	accurate Client

	mu          sync.Mutex
	failedKeys  map[string]struct{}
	usageCounts map[string]int
}

func NewRouter(fast, accurate Client) *Router {
	return &Router{
		fast:        fast,
		accurate:    accurate,
		failedKeys:  make(map[string]struct{}),
		usageCounts: make(map[string]int),
	}
}

func (r *Router) selectModel(cfg TaskConfig) selection {
	base, ok := taskRouting[cfg.Type]
	if !ok {
		base = taskRouting[TaskRealTimeChat]
	}

	// Speed priority swaps the primary toward fast; the previous primary
	// becomes the fallback. Accuracy priority is symmetric.
	if cfg.PrioritizeSpeed && base.Provider == ProviderAccurate {
		return selection{
			Provider:         ProviderFast,
			Model:            fastChatModel,
			FallbackProvider: ProviderAccurate,
			FallbackModel:    base.Model,
			MaxTokens:        base.MaxTokens,
			Temperature:      base.Temperature,
		}
	}
	if cfg.PrioritizeAccuracy && base.Provider == ProviderFast {
		return selection{
			Provider:         ProviderAccurate,
			Model:            accurateReasoning,
			FallbackProvider: ProviderFast,
			FallbackModel:    base.Model,
			MaxTokens:        base.MaxTokens,
			Temperature:      base.Temperature,
		}
	}

	// A primary that previously hit a terminal error is demoted for the
	// rest of the process lifetime unless Reset is called.
	primaryKey := base.Provider + ":" + base.Model
	r.mu.Lock()
	_, failed := r.failedKeys[primaryKey]
	r.mu.Unlock()
	if failed {
		log.Printf("[Router] primary %s marked failed, using fallback for %s", primaryKey, cfg.Type)
		return selection{
			Provider:         base.FallbackProvider,
			Model:            base.FallbackModel,
			FallbackProvider: base.Provider,
			FallbackModel:    base.Model,
			MaxTokens:        base.MaxTokens,
			Temperature:      base.Temperature,
		}
	}

	return selection(base)
}

func (r *Router) client(provider string) Client {
	if provider == ProviderFast {
		return r.fast
	}
	return r.accurate
}

// Complete runs one routed chat completion with single-retry fallback on
// terminal upstream errors (quota, auth, rate limit).
func (r *Router) Complete(ctx context.Context, cfg TaskConfig, messages []ChatMessage, format *ResponseFormat) (*Completion, error) {
	sel := r.selectModel(cfg)
	r.recordUsage(sel.Provider, sel.Model)

	completion, err := r.client(sel.Provider).Complete(ctx, sel.Model, messages, sel.Temperature, sel.MaxTokens, format)
	if err == nil {
		completion.Provider = sel.Provider
		return completion, nil
	}

	if !IsTerminalErr(err) {
		return nil, err
	}

	r.markFailed(sel.Provider, sel.Model)
	log.Printf("[Router] %s:%s terminal error, falling back to %s:%s: %v",
		sel.Provider, sel.Model, sel.FallbackProvider, sel.FallbackModel, err)

	r.recordUsage(sel.FallbackProvider, sel.FallbackModel)
	completion, ferr := r.client(sel.FallbackProvider).Complete(ctx, sel.FallbackModel, messages, sel.Temperature, sel.MaxTokens, format)
	if ferr != nil {
		return nil, errors.Join(err, ferr)
	}
	completion.Provider = sel.FallbackProvider
	return completion, nil
}

// Stream is the streaming variant of Complete. Fallback applies only to
// errors raised before the stream is established.
func (r *Router) Stream(ctx context.Context, cfg TaskConfig, messages []ChatMessage, format *ResponseFormat) (<-chan StreamChunk, error) {
	sel := r.selectModel(cfg)
	r.recordUsage(sel.Provider, sel.Model)

	stream, err := r.client(sel.Provider).Stream(ctx, sel.Model, messages, sel.Temperature, sel.MaxTokens, format)
	if err == nil {
		return stream, nil
	}

	if !IsTerminalErr(err) {
		return nil, err
	}

	r.markFailed(sel.Provider, sel.Model)
	log.Printf("[Router] streaming fallback to %s:%s", sel.FallbackProvider, sel.FallbackModel)

	r.recordUsage(sel.FallbackProvider, sel.FallbackModel)
	stream, ferr := r.client(sel.FallbackProvider).Stream(ctx, sel.FallbackModel, messages, sel.Temperature, sel.MaxTokens, format)
	if ferr != nil {
		return nil, errors.Join(err, ferr)
	}
	return stream, nil
}

// Transcribe routes speech-to-text through the audio-transcription task.
func (r *Router) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	sel := r.selectModel(TaskConfig{Type: TaskAudioTranscription})
	r.recordUsage(sel.Provider, sel.Model)
	return r.client(sel.Provider).Transcribe(ctx, sel.Model, audio, format)
}

// DescribeImage runs a vision task and returns the model's description.
func (r *Router) DescribeImage(ctx context.Context, imageBase64, mimeType, prompt string) (string, error) {
	messages := []ChatMessage{
		{Role: "user", Content: ImageContent(prompt, imageBase64, mimeType)},
	}
	completion, err := r.Complete(ctx, TaskConfig{Type: TaskVision, RequiresVision: true}, messages, nil)
	if err != nil {
		return "", err
	}
	return completion.Content, nil
}

func (r *Router) markFailed(provider, model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failedKeys[provider+":"+model] = struct{}{}
}

// HasFailed reports whether a (provider, model) pair is in the failure set.
func (r *Router) HasFailed(provider, model string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.failedKeys[provider+":"+model]
	return ok
}

// Reset clears the failure set, e.g. after keys are rotated.
func (r *Router) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failedKeys = make(map[string]struct{})
}

func (r *Router) recordUsage(provider, model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usageCounts[provider+":"+model]++
}

// UsageCounts returns a copy of the per-(provider,model) call counters.
func (r *Router) UsageCounts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.usageCounts))
	for k, v := range r.usageCounts {
		out[k] = v
	}
	return out
}

// IsTerminalErr reports whether an upstream error exhausts the
// (provider, model) key: quota, rate limit, or auth failures.
func IsTerminalErr(err error) bool {
	if err == nil {
		return false
	}

	var ae *apiError
	if errors.As(err, &ae) {
		if ae.StatusCode == 401 || ae.StatusCode == 403 || ae.StatusCode == 429 {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "401", "quota", "rate limit", "unauthorized", "user not found"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
