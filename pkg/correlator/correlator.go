// Package correlator matches wallet-connection events from the Voice Node
// against visitor records from the Value Node to guess which entries belong
// to the same user. Pure computation: callers fetch both lists and hand them
// in already materialized.
package correlator

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/badseed-agent/pkg/config"
)

// WalletEvent is one wallet connection observed at the Voice Node.
// Timestamps are epoch milliseconds.
type WalletEvent struct {
	WalletAddress string `json:"walletAddress"`
	Timestamp     int64  `json:"timestamp"`
	UserAgent     string `json:"userAgent,omitempty"`
}

// VisitorRecord is one page visit observed at the Value Node.
type VisitorRecord struct {
	IP        string `json:"ip"`
	City      string `json:"city,omitempty"`
	Country   string `json:"country,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
	Timestamp int64  `json:"timestamp"`
	UserAgent string `json:"userAgent,omitempty"`
}

// Correlation is a hypothesized same-user match between a wallet event and a
// visitor record.
type Correlation struct {
	WalletAddress  string `json:"walletAddress"`
	IP             string `json:"ip"`
	Location       string `json:"location"`
	City           string `json:"city,omitempty"`
	Country        string `json:"country,omitempty"`
	Timezone       string `json:"timezone,omitempty"`
	TimeDifference int64  `json:"timeDifference"`
	Confidence     int    `json:"confidence"`
	VoiceNodeTime  string `json:"voiceNodeTime"`
	ValueNodeTime  string `json:"valueNodeTime"`
	UserAgent      string `json:"userAgent,omitempty"`
}

// Result is the correlation outcome. Status "partial" means the visitor
// source had no data, which is distinct from "full" with zero matches.
type Result struct {
	Correlations  []Correlation `json:"correlations"`
	WalletOnly    []WalletEvent `json:"walletOnly,omitempty"`
	TotalWallets  int           `json:"totalWallets"`
	TotalVisitors int           `json:"totalVisitors"`
	MatchRate     float64       `json:"matchRate"`
	Status        string        `json:"status"`
	Message       string        `json:"message,omitempty"`
}

const (
	StatusFull    = "full"
	StatusPartial = "partial"
)

// Correlate pairs wallet events with visitor records inside the configured
// time window and scores each pair. The cross product is deliberate: both
// lists are bounded by the upstream trackers' own retention limits.
//
// totalWallets and totalVisitors are caller-supplied distinct counts from the
// upstream sources; they are reported through untouched.
func Correlate(cfg config.CorrelationConfig, events []WalletEvent, visitors []VisitorRecord, totalWallets, totalVisitors int) Result {
	if len(visitors) == 0 {
		walletOnly := events
		if len(walletOnly) > cfg.WalletOnlyMax {
			walletOnly = walletOnly[:cfg.WalletOnlyMax]
		}
		return Result{
			Correlations:  []Correlation{},
			WalletOnly:    walletOnly,
			TotalWallets:  totalWallets,
			TotalVisitors: 0,
			MatchRate:     0,
			Status:        StatusPartial,
			Message:       "Voice Node wallet data available. Value Node visitor tracking pending deployment.",
		}
	}

	windowMS := cfg.Window.Milliseconds()
	correlations := []Correlation{}

	for _, we := range events {
		for _, vr := range visitors {
			timeDiff := we.Timestamp - vr.Timestamp
			if timeDiff < 0 {
				timeDiff = -timeDiff
			}
			if timeDiff >= windowMS {
				continue
			}
			correlations = append(correlations, Correlation{
				WalletAddress:  we.WalletAddress,
				IP:             vr.IP,
				Location:       fmt.Sprintf("%s, %s", vr.City, vr.Country),
				City:           vr.City,
				Country:        vr.Country,
				Timezone:       vr.Timezone,
				TimeDifference: timeDiff,
				Confidence:     score(cfg, we, vr, timeDiff),
				VoiceNodeTime:  isoMillis(we.Timestamp),
				ValueNodeTime:  isoMillis(vr.Timestamp),
				UserAgent:      vr.UserAgent,
			})
		}
	}

	sort.SliceStable(correlations, func(i, j int) bool {
		if correlations[i].Confidence != correlations[j].Confidence {
			return correlations[i].Confidence > correlations[j].Confidence
		}
		return correlations[i].TimeDifference < correlations[j].TimeDifference
	})
	if len(correlations) > cfg.MaxResults {
		correlations = correlations[:cfg.MaxResults]
	}

	matchRate := 0.0
	if len(correlations) > 0 {
		denom := totalWallets
		if denom < 1 {
			denom = 1
		}
		matchRate = math.Round(float64(len(correlations))/float64(denom)*1000) / 10
	}

	return Result{
		Correlations:  correlations,
		TotalWallets:  totalWallets,
		TotalVisitors: totalVisitors,
		MatchRate:     matchRate,
		Status:        StatusFull,
	}
}

// score starts from the base confidence, adds a tiered time-proximity bonus
// and a user-agent equality bonus, and clamps to 100.
func score(cfg config.CorrelationConfig, we WalletEvent, vr VisitorRecord, timeDiffMS int64) int {
	confidence := cfg.BaseConfidence

	switch {
	case timeDiffMS < cfg.NearWindow.Milliseconds():
		confidence += cfg.NearBonus
	case timeDiffMS < cfg.MidWindow.Milliseconds():
		confidence += cfg.MidBonus
	default:
		confidence += cfg.FarBonus
	}

	if we.UserAgent != "" && vr.UserAgent != "" && we.UserAgent == vr.UserAgent {
		confidence += cfg.UserAgentBonus
	}

	if confidence > 100 {
		confidence = 100
	}
	return confidence
}

// isoMillis renders an epoch-millisecond timestamp the way Date.toISOString
// does, millisecond precision with a Z suffix.
func isoMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}
