// Package activity records agent interactions for the live feed and the
// admin activity log. The primary backend is Upstash Redis over its REST
// API; a local sqlite store serves the same role when Upstash is not
// configured.
package activity

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// Entry is one logged interaction. Timestamp is epoch milliseconds.
type Entry struct {
	Timestamp          int64    `json:"timestamp"`
	Type               string   `json:"type"`
	UserIP             string   `json:"userIP"`
	UserAgent          string   `json:"userAgent"`
	Category           string   `json:"category"`
	Query              string   `json:"query"`
	ResponseLength     int      `json:"responseLength,omitempty"`
	FunctionsUsed      []string `json:"functionsUsed"`
	ConversationLength int      `json:"conversationLength"`
}

// Store is the logging backend. Log keeps at most MaxEntries entries, newest
// first, and bumps the per-day counters.
type Store interface {
	Log(ctx context.Context, e Entry) error
	Recent(ctx context.Context, offset, limit int) ([]Entry, error)
	Total(ctx context.Context) (int, error)
	DayStats(ctx context.Context, date string) (map[string]int, error)
	Close() error
}

// MaxEntries caps the retained activity list.
const MaxEntries = 1000

// DateKey renders a time as the YYYY-MM-DD key used for daily stats.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

var addressPattern = regexp.MustCompile(`[a-zA-Z0-9]{32,44}`)

// Categorize buckets a user query by keyword. Rules are checked in order;
// the first match wins.
func Categorize(message string) string {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "who am i"), strings.Contains(lower, "know me"), strings.Contains(lower, "identity"):
		return "identity"
	case strings.Contains(lower, "wallet"), strings.Contains(lower, "address"), addressPattern.MatchString(message):
		return "wallet_analysis"
	case strings.Contains(lower, "price"), strings.Contains(lower, "market"), strings.Contains(lower, "token"), strings.Contains(lower, "value"):
		return "token_metrics"
	case strings.Contains(lower, "prophecy"), strings.Contains(lower, "sentiment"), strings.Contains(lower, "voice"):
		return "voice_node"
	case strings.Contains(lower, "activity"), strings.Contains(lower, "donation"), strings.Contains(lower, "transaction"):
		return "system_activity"
	case strings.Contains(lower, "what is"), strings.Contains(lower, "explain"), strings.Contains(lower, "how does"):
		return "education"
	}
	return "general"
}
