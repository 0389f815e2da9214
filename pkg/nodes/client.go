// Package nodes talks to the deployed BADSEED web properties: the Voice Node
// (terminal site), the Value Node (token site), and the visitor tracker.
// Each status call fans out to the node's serverless endpoints in parallel
// and returns whatever JSON they serve, opaque to this process.
package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/badseed-agent/pkg/config"
	"github.com/badseed-agent/pkg/correlator"
)

type Client struct {
	voiceURL   string
	valueURL   string
	visitorURL string
	client     *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		voiceURL:   cfg.VoiceNodeURL,
		valueURL:   cfg.ValueNodeURL,
		visitorURL: cfg.VisitorNodeURL,
		client:     &http.Client{Timeout: cfg.FetchTimeout},
	}
}

// VoiceStatus aggregates the Voice Node's sentiment, prophecy, and wallet
// endpoints. One failed endpoint fails the whole status.
type VoiceStatus struct {
	Sentiment json.RawMessage `json:"sentiment"`
	Prophecy  json.RawMessage `json:"prophecy"`
	Wallet    json.RawMessage `json:"wallet"`
}

func (c *Client) VoiceStatus(ctx context.Context) (*VoiceStatus, error) {
	var status VoiceStatus
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.getJSON(gctx, c.voiceURL+"/sentiment-get", &status.Sentiment) })
	g.Go(func() error { return c.getJSON(gctx, c.voiceURL+"/prophecy-get", &status.Prophecy) })
	g.Go(func() error { return c.getJSON(gctx, c.voiceURL+"/wallet-status", &status.Wallet) })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &status, nil
}

// ValueStatus aggregates the Value Node's summary and metrics endpoints.
type ValueStatus struct {
	Summary json.RawMessage `json:"summary"`
	Metrics json.RawMessage `json:"metrics"`
}

func (c *Client) ValueStatus(ctx context.Context) (*ValueStatus, error) {
	var status ValueStatus
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.getJSON(gctx, c.valueURL+"/summary", &status.Summary) })
	g.Go(func() error { return c.getJSON(gctx, c.valueURL+"/metrics", &status.Metrics) })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &status, nil
}

// SystemActivity bundles the Voice Node's transmission log, AI activity log,
// and heartbeat.
type SystemActivity struct {
	TransmissionLogs json.RawMessage `json:"transmissionLogs"`
	AIActivity       json.RawMessage `json:"aiActivity"`
	SystemHealth     json.RawMessage `json:"systemHealth"`
}

func (c *Client) SystemActivity(ctx context.Context) (*SystemActivity, error) {
	var transmissions struct {
		Logs json.RawMessage `json:"logs"`
	}
	var activity SystemActivity
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.getJSON(gctx, c.voiceURL+"/transmission-log-get", &transmissions) })
	g.Go(func() error { return c.getJSON(gctx, c.voiceURL+"/ai-logs-get", &activity.AIActivity) })
	g.Go(func() error { return c.getJSON(gctx, c.voiceURL+"/heartbeat-get", &activity.SystemHealth) })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	activity.TransmissionLogs = transmissions.Logs
	if activity.TransmissionLogs == nil {
		activity.TransmissionLogs = json.RawMessage("[]")
	}
	return &activity, nil
}

// WalletEvents is the Voice Node's wallet-connection analytics feed. This is
// the mandatory half of a correlation: a failure here propagates.
type WalletEvents struct {
	RecentEvents  []correlator.WalletEvent `json:"recentEvents"`
	UniqueWallets int                      `json:"uniqueWallets"`
}

func (c *Client) FetchWalletEvents(ctx context.Context) (*WalletEvents, error) {
	var events WalletEvents
	if err := c.getJSON(ctx, c.voiceURL+"/analytics-get", &events); err != nil {
		return nil, err
	}
	return &events, nil
}

// Visitors is the tracker's visitor feed. The tracker may not be deployed
// yet, so a fetch failure returns an empty feed instead of an error and the
// correlation degrades to partial.
type Visitors struct {
	RecentVisitors []correlator.VisitorRecord `json:"recentVisitors"`
	UniqueIPs      int                        `json:"uniqueIPs"`
}

func (c *Client) FetchVisitors(ctx context.Context) Visitors {
	var visitors Visitors
	if err := c.getJSON(ctx, c.visitorURL+"/visitor-get", &visitors); err != nil {
		log.Debug().Err(err).Msg("visitor tracker not available")
		return Visitors{}
	}
	return visitors
}

func (c *Client) getJSON(ctx context.Context, rawURL string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dst)
}
