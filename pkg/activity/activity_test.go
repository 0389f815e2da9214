package activity

import (
	"context"
	"testing"
	"time"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"who am I really?", "identity"},
		{"do you know me", "identity"},
		{"reveal my identity", "identity"},
		{"analyze this wallet please", "wallet_analysis"},
		{"what is your address", "wallet_analysis"},
		{"9TyzcephhXEw67piYNc72EJtgVmbq3AZhyPFSvdfXWdr", "wallet_analysis"},
		{"what's the token price today", "token_metrics"},
		{"price check", "token_metrics"},
		{"how is the market doing", "token_metrics"},
		{"latest prophecy?", "voice_node"},
		{"show sentiment", "voice_node"},
		{"recent donation activity", "system_activity"},
		{"any transactions today", "system_activity"},
		{"what is badseed", "education"},
		{"explain the system", "education"},
		{"hello there", "general"},
	}
	for _, tt := range tests {
		if got := Categorize(tt.message); got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}

func TestCategorizeOrderIdentityBeforeWallet(t *testing.T) {
	// Identity keywords win even when a wallet address is present.
	msg := "who am i, here is my wallet 9TyzcephhXEw67piYNc72EJtgVmbq3AZhyPFSvdfXWdr"
	if got := Categorize(msg); got != "identity" {
		t.Errorf("Categorize = %q, want identity", got)
	}
}

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteLogAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := s.Log(ctx, Entry{
			Timestamp:     int64(1000 + i),
			Type:          "query",
			UserIP:        "1.2.3.4",
			Category:      "general",
			Query:         "hello",
			FunctionsUsed: []string{"getVoiceNodeStatus"},
		})
		if err != nil {
			t.Fatalf("log: %v", err)
		}
	}

	entries, err := s.Recent(ctx, 0, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	// Newest first.
	if entries[0].Timestamp != 1002 {
		t.Errorf("first entry timestamp = %d, want 1002", entries[0].Timestamp)
	}
	if len(entries[0].FunctionsUsed) != 1 || entries[0].FunctionsUsed[0] != "getVoiceNodeStatus" {
		t.Errorf("functionsUsed = %v", entries[0].FunctionsUsed)
	}

	total, err := s.Total(ctx)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
}

func TestSQLiteRecentOffset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.Log(ctx, Entry{Timestamp: int64(100 + i), Type: "query"}); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.Recent(ctx, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Timestamp != 102 {
		t.Errorf("offset entry timestamp = %d, want 102", entries[0].Timestamp)
	}
}

func TestSQLiteDayStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ts := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC).UnixMilli()
	for i := 0; i < 2; i++ {
		if err := s.Log(ctx, Entry{Timestamp: ts, Type: "query", Category: "identity"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Log(ctx, Entry{Timestamp: ts, Type: "query", Category: "general"}); err != nil {
		t.Fatal(err)
	}

	stats, err := s.DayStats(ctx, "2024-03-15")
	if err != nil {
		t.Fatal(err)
	}
	if stats["queries"] != 3 {
		t.Errorf("queries = %d, want 3", stats["queries"])
	}
	if stats["cat:identity"] != 2 {
		t.Errorf("cat:identity = %d, want 2", stats["cat:identity"])
	}
	if stats["cat:general"] != 1 {
		t.Errorf("cat:general = %d, want 1", stats["cat:general"])
	}

	empty, err := s.DayStats(ctx, "2020-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty stats, got %v", empty)
	}
}

func TestSQLiteCapsRetainedEntries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < MaxEntries+10; i++ {
		if err := s.Log(ctx, Entry{Timestamp: int64(i + 1), Type: "query"}); err != nil {
			t.Fatal(err)
		}
	}

	total, err := s.Total(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if total != MaxEntries {
		t.Errorf("total = %d, want %d", total, MaxEntries)
	}

	entries, err := s.Recent(ctx, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].Timestamp != int64(MaxEntries+10) {
		t.Errorf("newest timestamp = %d, want %d", entries[0].Timestamp, MaxEntries+10)
	}
}
