package enrichment

import (
	"math"
	"strings"
)

// Sentiment labels.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// NoteSentiment is the schema both the model call and the lexicon
// fallback produce.
type NoteSentiment struct {
	Sentiment      string   `json:"sentiment"`
	SentimentScore float64  `json:"sentiment_score"`
	DetectedThemes []string `json:"detected_themes"`
	RelatedGoals   []string `json:"related_goals"`
	ActionItems    []string `json:"action_items"`
}

var positiveKeywords = []string{
	"great", "amazing", "awesome", "love", "motivated", "strong",
	"progress", "pr", "personal record", "feeling good", "energized",
	"proud", "accomplished", "crushing it", "excited",
}

var negativeKeywords = []string{
	"tired", "exhausted", "sore", "pain", "injury", "struggling",
	"frustrated", "unmotivated", "weak", "disappointed", "failed",
	"giving up", "hard", "difficult", "can't",
}

// LexiconSentiment is the deterministic fallback used when the model
// call fails. Same output schema as the model path.
func LexiconSentiment(content string) NoteSentiment {
	lower := strings.ToLower(content)

	var positive, negative int
	for _, word := range positiveKeywords {
		if strings.Contains(lower, word) {
			positive++
		}
	}
	for _, word := range negativeKeywords {
		if strings.Contains(lower, word) {
			negative++
		}
	}

	var score float64
	sentiment := SentimentNeutral
	if total := positive + negative; total > 0 {
		score = math.Round(float64(positive-negative)/float64(total)*100) / 100
		if score > 0.3 {
			sentiment = SentimentPositive
		} else if score < -0.3 {
			sentiment = SentimentNegative
		}
	}

	themes := []string{}
	if containsAny(lower, "motivated", "motivation", "excited") {
		themes = append(themes, "motivation")
	}
	if containsAny(lower, "tired", "sore", "exhausted") {
		themes = append(themes, "recovery")
	}
	if containsAny(lower, "progress", "pr", "personal record", "stronger") {
		themes = append(themes, "progress")
	}
	if containsAny(lower, "goal", "want to", "plan to") {
		themes = append(themes, "goal-setting")
	}

	return NoteSentiment{
		Sentiment:      sentiment,
		SentimentScore: score,
		DetectedThemes: themes,
		RelatedGoals:   []string{},
		ActionItems:    []string{},
	}
}

// NoteTags derives topic tags from title and content.
func NoteTags(title, content string) []string {
	combined := strings.ToLower(title + " " + content)
	tags := []string{}

	if containsAny(combined, "workout", "training", "exercise", "lift") {
		tags = append(tags, "workout")
	}
	if containsAny(combined, "meal", "food", "nutrition", "diet", "eating") {
		tags = append(tags, "nutrition")
	}
	if containsAny(combined, "sleep", "rest", "recovery", "sore") {
		tags = append(tags, "recovery")
	}
	if containsAny(combined, "goal", "target", "aim", "plan") {
		tags = append(tags, "goal-setting")
	}
	if containsAny(combined, "progress", "improve", "gain", "pr") {
		tags = append(tags, "progress")
	}
	if containsAny(combined, "struggle", "difficult", "hard", "challenge") {
		tags = append(tags, "struggle")
	}

	return tags
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
