package enrichment

import "testing"

func TestLexiconSentimentPositive(t *testing.T) {
	result := LexiconSentiment("Crushed my workout today, feeling strong and motivated. New PR!")
	if result.Sentiment != SentimentPositive {
		t.Errorf("expected positive, got %s (score %v)", result.Sentiment, result.SentimentScore)
	}
	if result.SentimentScore <= 0 {
		t.Errorf("expected positive score, got %v", result.SentimentScore)
	}
}

func TestLexiconSentimentNegative(t *testing.T) {
	result := LexiconSentiment("Exhausted and sore, knee pain is back, really struggling this week")
	if result.Sentiment != SentimentNegative {
		t.Errorf("expected negative, got %s", result.Sentiment)
	}
	if result.SentimentScore >= 0 {
		t.Errorf("expected negative score, got %v", result.SentimentScore)
	}
}

func TestLexiconSentimentNeutralWithoutKeywords(t *testing.T) {
	result := LexiconSentiment("Logged my usual breakfast around 8am")
	if result.Sentiment != SentimentNeutral {
		t.Errorf("expected neutral, got %s", result.Sentiment)
	}
	if result.SentimentScore != 0 {
		t.Errorf("expected score 0, got %v", result.SentimentScore)
	}
}

func TestLexiconSentimentSchemaIsComplete(t *testing.T) {
	result := LexiconSentiment("anything")
	if result.DetectedThemes == nil || result.RelatedGoals == nil || result.ActionItems == nil {
		t.Error("fallback must populate every schema field with non-nil slices")
	}
}

func TestLexiconThemes(t *testing.T) {
	result := LexiconSentiment("So motivated! New PR on squats, my goal is a 2x bodyweight lift")
	set := map[string]bool{}
	for _, theme := range result.DetectedThemes {
		set[theme] = true
	}
	for _, want := range []string{"motivation", "progress", "goal-setting"} {
		if !set[want] {
			t.Errorf("expected theme %q in %v", want, result.DetectedThemes)
		}
	}
}

func TestNoteTags(t *testing.T) {
	tags := NoteTags("Training thoughts", "Hard workout today, diet was on point, need more sleep for recovery")
	expectTags(t, tags, "workout", "nutrition", "recovery")
}
