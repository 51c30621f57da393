package ai

import (
	"context"
	"errors"
	"testing"
)

func TestCompleteUsesPrimaryProvider(t *testing.T) {
	fast := NewMockClient()
	accurate := NewMockClient()
	router := NewRouter(fast, accurate)

	completion, err := router.Complete(context.Background(), TaskConfig{Type: TaskRealTimeChat}, []ChatMessage{
		TextMessage("user", "hello"),
	}, nil)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completion.Provider != ProviderFast {
		t.Errorf("expected fast provider, got %s", completion.Provider)
	}
	if len(fast.Calls()) != 1 {
		t.Errorf("expected 1 fast call, got %d", len(fast.Calls()))
	}
	if len(accurate.Calls()) != 0 {
		t.Errorf("expected 0 accurate calls, got %d", len(accurate.Calls()))
	}
}

func TestQuotaErrorFallsBackOnceAndMarksKeyFailed(t *testing.T) {
	fast := NewMockClient()
	accurate := NewMockClient()
	fast.FailAll(errors.New("429 quota exceeded"))
	accurate.RespondWith("hello", "fallback reply")
	router := NewRouter(fast, accurate)

	completion, err := router.Complete(context.Background(), TaskConfig{Type: TaskRealTimeChat}, []ChatMessage{
		TextMessage("user", "hello"),
	}, nil)
	if err != nil {
		t.Fatalf("expected fallback success, got %v", err)
	}
	if completion.Content != "fallback reply" {
		t.Errorf("expected fallback reply, got %q", completion.Content)
	}

	// Exactly one call to the primary, one to the fallback.
	if got := len(fast.Calls()); got != 1 {
		t.Errorf("expected exactly 1 primary call, got %d", got)
	}
	if got := len(accurate.Calls()); got != 1 {
		t.Errorf("expected exactly 1 fallback call, got %d", got)
	}

	if !router.HasFailed(ProviderFast, fastChatModel) {
		t.Error("expected fast primary to be in the failure set")
	}

	// Subsequent calls skip the failed primary entirely.
	if _, err := router.Complete(context.Background(), TaskConfig{Type: TaskRealTimeChat}, []ChatMessage{
		TextMessage("user", "hello"),
	}, nil); err != nil {
		t.Fatalf("post-failure call failed: %v", err)
	}
	if got := len(fast.Calls()); got != 1 {
		t.Errorf("failed primary should not be called again, got %d calls", got)
	}
}

func TestNonTerminalErrorPropagates(t *testing.T) {
	fast := NewMockClient()
	accurate := NewMockClient()
	fast.FailAll(errors.New("connection reset by peer"))
	router := NewRouter(fast, accurate)

	_, err := router.Complete(context.Background(), TaskConfig{Type: TaskRealTimeChat}, []ChatMessage{
		TextMessage("user", "hi"),
	}, nil)
	if err == nil {
		t.Fatal("expected error to propagate")
	}
	if len(accurate.Calls()) != 0 {
		t.Error("non-terminal errors must not trigger fallback")
	}
	if router.HasFailed(ProviderFast, fastChatModel) {
		t.Error("non-terminal errors must not enter the failure set")
	}
}

func TestSpeedPrioritySwapsPrimaryTowardFast(t *testing.T) {
	fast := NewMockClient()
	accurate := NewMockClient()
	router := NewRouter(fast, accurate)

	// complex-reasoning normally routes to accurate.
	completion, err := router.Complete(context.Background(), TaskConfig{
		Type:            TaskComplexReasoning,
		PrioritizeSpeed: true,
	}, []ChatMessage{TextMessage("user", "plan something")}, nil)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completion.Provider != ProviderFast {
		t.Errorf("speed priority should route to fast, got %s", completion.Provider)
	}
}

func TestAccuracyPrioritySwapsPrimaryTowardAccurate(t *testing.T) {
	fast := NewMockClient()
	accurate := NewMockClient()
	router := NewRouter(fast, accurate)

	completion, err := router.Complete(context.Background(), TaskConfig{
		Type:               TaskStructuredOutput,
		PrioritizeAccuracy: true,
	}, []ChatMessage{TextMessage("user", "extract")}, JSONResponse)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completion.Provider != ProviderAccurate {
		t.Errorf("accuracy priority should route to accurate, got %s", completion.Provider)
	}
}

func TestResetClearsFailureSet(t *testing.T) {
	router := NewRouter(NewMockClient(), NewMockClient())
	router.markFailed(ProviderFast, fastChatModel)
	router.Reset()
	if router.HasFailed(ProviderFast, fastChatModel) {
		t.Error("reset should clear the failure set")
	}
}

func TestUsageCountsTrackPerProviderModel(t *testing.T) {
	fast := NewMockClient()
	router := NewRouter(fast, NewMockClient())

	for i := 0; i < 3; i++ {
		if _, err := router.Complete(context.Background(), TaskConfig{Type: TaskRealTimeChat}, []ChatMessage{
			TextMessage("user", "hi"),
		}, nil); err != nil {
			t.Fatalf("complete failed: %v", err)
		}
	}

	counts := router.UsageCounts()
	if counts[ProviderFast+":"+fastChatModel] != 3 {
		t.Errorf("expected 3 uses of the fast chat model, got %v", counts)
	}
}

func TestIsTerminalErr(t *testing.T) {
	cases := []struct {
		err      error
		terminal bool
	}{
		{errors.New("429 too many requests"), true},
		{errors.New("401 Unauthorized"), true},
		{errors.New("quota exhausted for key"), true},
		{errors.New("Rate Limit reached"), true},
		{errors.New("user not found"), true},
		{&apiError{StatusCode: 403, Body: "forbidden"}, true},
		{errors.New("context deadline exceeded"), false},
		{errors.New("connection refused"), false},
		{nil, false},
	}

	for _, tc := range cases {
		if got := IsTerminalErr(tc.err); got != tc.terminal {
			t.Errorf("IsTerminalErr(%v) = %v, want %v", tc.err, got, tc.terminal)
		}
	}
}
