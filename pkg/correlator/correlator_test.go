package correlator

import (
	"testing"

	"github.com/badseed-agent/pkg/config"
)

func defaults() config.CorrelationConfig {
	cfg, _ := config.Load()
	return cfg.Correlation
}

func TestConfidenceTiers(t *testing.T) {
	cfg := defaults()

	tests := []struct {
		name      string
		diffMS    int64
		walletUA  string
		visitorUA string
		want      int // expected confidence; -1 means no correlation emitted
	}{
		{"under 5min no UA", 200_000, "", "", 80},
		{"under 5min matching UA", 200_000, "Mozilla/5.0", "Mozilla/5.0", 100},
		{"under 5min mismatched UA", 200_000, "Mozilla/5.0", "curl/8.0", 80},
		{"boundary 5min falls to mid tier", 300_000, "", "", 70},
		{"under 15min no UA", 600_000, "", "", 70},
		{"under 15min matching UA", 600_000, "Mozilla/5.0", "Mozilla/5.0", 90},
		{"boundary 15min falls to far tier", 900_000, "", "", 60},
		{"under 30min no UA", 1_200_000, "", "", 60},
		{"under 30min matching UA", 1_200_000, "Mozilla/5.0", "Mozilla/5.0", 80},
		{"boundary 30min excluded", 1_800_000, "", "", -1},
		{"far outside window excluded", 7_200_000, "Mozilla/5.0", "Mozilla/5.0", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := []WalletEvent{{WalletAddress: "W1", Timestamp: 10_000_000, UserAgent: tt.walletUA}}
			visitors := []VisitorRecord{{IP: "1.2.3.4", Timestamp: 10_000_000 + tt.diffMS, UserAgent: tt.visitorUA}}

			result := Correlate(cfg, events, visitors, 1, 1)
			if tt.want < 0 {
				if len(result.Correlations) != 0 {
					t.Fatalf("expected no correlations, got %d", len(result.Correlations))
				}
				return
			}
			if len(result.Correlations) != 1 {
				t.Fatalf("expected 1 correlation, got %d", len(result.Correlations))
			}
			if got := result.Correlations[0].Confidence; got != tt.want {
				t.Errorf("confidence = %d, want %d", got, tt.want)
			}
			if got := result.Correlations[0].TimeDifference; got != tt.diffMS {
				t.Errorf("timeDifference = %d, want %d", got, tt.diffMS)
			}
		})
	}
}

func TestAustinScenario(t *testing.T) {
	cfg := defaults()
	events := []WalletEvent{{WalletAddress: "W1", Timestamp: 1_000_000, UserAgent: "A"}}
	visitors := []VisitorRecord{{
		IP: "1.2.3.4", City: "Austin", Country: "US",
		Timestamp: 1_000_000 + 200_000, UserAgent: "A",
	}}

	result := Correlate(cfg, events, visitors, 1, 1)
	if result.Status != StatusFull {
		t.Fatalf("status = %q, want full", result.Status)
	}
	if len(result.Correlations) != 1 {
		t.Fatalf("expected 1 correlation, got %d", len(result.Correlations))
	}
	c := result.Correlations[0]
	if c.Confidence != 100 {
		t.Errorf("confidence = %d, want 100", c.Confidence)
	}
	if c.TimeDifference != 200_000 {
		t.Errorf("timeDifference = %d, want 200000", c.TimeDifference)
	}
	if c.Location != "Austin, US" {
		t.Errorf("location = %q, want %q", c.Location, "Austin, US")
	}
	if c.VoiceNodeTime != "1970-01-01T00:16:40.000Z" {
		t.Errorf("voiceNodeTime = %q", c.VoiceNodeTime)
	}
	if result.MatchRate != 100.0 {
		t.Errorf("matchRate = %v, want 100", result.MatchRate)
	}
}

func TestEmptyVisitorsReturnsPartial(t *testing.T) {
	cfg := defaults()

	var events []WalletEvent
	for i := 0; i < 15; i++ {
		events = append(events, WalletEvent{WalletAddress: "W", Timestamp: int64(i)})
	}

	result := Correlate(cfg, events, nil, 12, 0)
	if result.Status != StatusPartial {
		t.Fatalf("status = %q, want partial", result.Status)
	}
	if len(result.Correlations) != 0 {
		t.Errorf("expected empty correlations, got %d", len(result.Correlations))
	}
	if result.Correlations == nil {
		t.Error("correlations must be an empty slice, not nil")
	}
	if len(result.WalletOnly) != 10 {
		t.Errorf("walletOnly = %d entries, want 10", len(result.WalletOnly))
	}
	if result.TotalWallets != 12 || result.TotalVisitors != 0 {
		t.Errorf("totals = (%d,%d), want (12,0)", result.TotalWallets, result.TotalVisitors)
	}
	if result.MatchRate != 0 {
		t.Errorf("matchRate = %v, want 0", result.MatchRate)
	}
	if result.Message == "" {
		t.Error("partial result should carry an explanatory message")
	}
}

func TestSortOrderAndTruncation(t *testing.T) {
	cfg := defaults()

	// 6 wallet events x 5 visitors inside the window = 30 candidate pairs,
	// which must come back sorted and capped at 20.
	var events []WalletEvent
	var visitors []VisitorRecord
	base := int64(100_000_000)
	for i := 0; i < 6; i++ {
		events = append(events, WalletEvent{WalletAddress: "W", Timestamp: base + int64(i)*120_000})
	}
	for i := 0; i < 5; i++ {
		visitors = append(visitors, VisitorRecord{IP: "10.0.0.1", Timestamp: base + int64(i)*180_000})
	}

	result := Correlate(cfg, events, visitors, 6, 5)
	if len(result.Correlations) != 20 {
		t.Fatalf("expected 20 correlations after truncation, got %d", len(result.Correlations))
	}
	for i := 1; i < len(result.Correlations); i++ {
		prev, cur := result.Correlations[i-1], result.Correlations[i]
		if cur.Confidence > prev.Confidence {
			t.Fatalf("confidence not non-increasing at index %d: %d then %d", i, prev.Confidence, cur.Confidence)
		}
		if cur.Confidence == prev.Confidence && cur.TimeDifference < prev.TimeDifference {
			t.Fatalf("timeDifference not non-decreasing within confidence tie at index %d", i)
		}
	}
}

func TestMatchRateRounding(t *testing.T) {
	cfg := defaults()

	events := []WalletEvent{{WalletAddress: "W1", Timestamp: 1_000_000}}
	visitors := []VisitorRecord{{IP: "1.1.1.1", Timestamp: 1_000_000}}

	// 1 correlation over 3 distinct wallets: 33.333... rounds to 33.3.
	result := Correlate(cfg, events, visitors, 3, 1)
	if result.MatchRate != 33.3 {
		t.Errorf("matchRate = %v, want 33.3", result.MatchRate)
	}

	// Zero totalWallets must not divide by zero.
	result = Correlate(cfg, events, visitors, 0, 1)
	if result.MatchRate != 100.0 {
		t.Errorf("matchRate with zero wallets = %v, want 100", result.MatchRate)
	}
}

func TestIdempotence(t *testing.T) {
	cfg := defaults()
	events := []WalletEvent{
		{WalletAddress: "W1", Timestamp: 5_000_000, UserAgent: "A"},
		{WalletAddress: "W2", Timestamp: 5_400_000},
	}
	visitors := []VisitorRecord{
		{IP: "1.2.3.4", City: "Berlin", Country: "DE", Timestamp: 5_100_000, UserAgent: "A"},
		{IP: "5.6.7.8", City: "Oslo", Country: "NO", Timestamp: 6_000_000},
	}

	first := Correlate(cfg, events, visitors, 2, 2)
	second := Correlate(cfg, events, visitors, 2, 2)
	if len(first.Correlations) != len(second.Correlations) {
		t.Fatal("repeated calls disagree on correlation count")
	}
	for i := range first.Correlations {
		if first.Correlations[i] != second.Correlations[i] {
			t.Fatalf("correlation %d differs between identical calls", i)
		}
	}
}
