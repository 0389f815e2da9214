package agent

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/badseed-agent/pkg/config"
	"github.com/badseed-agent/pkg/correlator"
	"github.com/badseed-agent/pkg/nodes"
	"github.com/badseed-agent/pkg/profiler"
	"github.com/badseed-agent/pkg/solana"
)

// Tool is one entry in the chat completion tools array.
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

type Function struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

var noParams = json.RawMessage(`{"type":"object","properties":{},"required":[]}`)

var toolDefinitions = []Tool{
	{Type: "function", Function: Function{
		Name:        "getVoiceNodeStatus",
		Description: "Fetches current status from the Voice Node (badseed-exposed): sentiment data, latest prophecy, and wallet status",
		Parameters:  noParams,
	}},
	{Type: "function", Function: Function{
		Name:        "getValueNodeStatus",
		Description: "Fetches current status from the Value Node (badseed-token): token metrics, price, market cap, liquidity, and summary data",
		Parameters:  noParams,
	}},
	{Type: "function", Function: Function{
		Name:        "getSystemActivity",
		Description: "Fetches recent system activity and user interactions: transmission logs from donations, AI narrative generation logs, and system health metrics.",
		Parameters:  noParams,
	}},
	{Type: "function", Function: Function{
		Name:        "getUserIdentity",
		Description: "Correlates user activity across Voice and Value nodes to identify the same user visiting both pages. Returns wallet addresses, IP addresses, locations, and confidence scores.",
		Parameters:  noParams,
	}},
	{Type: "function", Function: Function{
		Name:        "analyzeWallet",
		Description: "Analyzes a Solana wallet address to provide detailed information about: transaction history, token holdings, BADSEED token balance, interaction patterns, wallet profile/sentiment, and trading behavior.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"walletAddress": {
					"type": "string",
					"description": "The Solana wallet address to analyze (base58 encoded public key)"
				}
			},
			"required": ["walletAddress"]
		}`),
	}},
}

// Toolset executes tool calls against the live services. Tool failures never
// error: they serialize to {"error": ...} payloads the model can read.
type Toolset struct {
	nodes       *nodes.Client
	chain       *solana.Client
	analyzer    *profiler.Analyzer
	correlation config.CorrelationConfig
}

func NewToolset(nodeClient *nodes.Client, chainClient *solana.Client, analyzer *profiler.Analyzer, correlation config.CorrelationConfig) *Toolset {
	return &Toolset{
		nodes:       nodeClient,
		chain:       chainClient,
		analyzer:    analyzer,
		correlation: correlation,
	}
}

func (t *Toolset) Definitions() []Tool {
	return toolDefinitions
}

// Dispatch runs one named tool and returns its JSON result.
func (t *Toolset) Dispatch(ctx context.Context, name, arguments string) json.RawMessage {
	switch name {
	case "getVoiceNodeStatus":
		status, err := t.nodes.VoiceStatus(ctx)
		if err != nil {
			return unavailable("Voice Node unavailable", err)
		}
		return marshal(status)

	case "getValueNodeStatus":
		status, err := t.nodes.ValueStatus(ctx)
		if err != nil {
			return unavailable("Value Node unavailable", err)
		}
		return marshal(status)

	case "getSystemActivity":
		act, err := t.nodes.SystemActivity(ctx)
		if err != nil {
			return unavailable("Activity data unavailable", err)
		}
		return marshal(act)

	case "getUserIdentity":
		return t.userIdentity(ctx)

	case "analyzeWallet":
		var args struct {
			WalletAddress string `json:"walletAddress"`
		}
		if arguments != "" {
			if err := json.Unmarshal([]byte(arguments), &args); err != nil {
				return unavailable("Wallet analysis failed", err)
			}
		}
		return t.analyzeWallet(ctx, args.WalletAddress)
	}

	return json.RawMessage(`{"error":"Unknown function"}`)
}

// userIdentity runs the cross-node correlation. Wallet events are the
// mandatory input; the visitor feed is best-effort and its absence yields a
// partial result.
func (t *Toolset) userIdentity(ctx context.Context) json.RawMessage {
	events, err := t.nodes.FetchWalletEvents(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("wallet event fetch failed")
		return json.RawMessage(`{"error":"Correlation service unavailable","correlations":[]}`)
	}

	visitors := t.nodes.FetchVisitors(ctx)

	result := correlator.Correlate(t.correlation,
		events.RecentEvents, visitors.RecentVisitors,
		events.UniqueWallets, visitors.UniqueIPs)
	return marshal(result)
}

func (t *Toolset) analyzeWallet(ctx context.Context, address string) json.RawMessage {
	// Validate before spending network calls on a hopeless address.
	if len(address) < 32 || len(address) > 44 {
		return marshal(map[string]string{"error": profiler.ErrInvalidAddress.Error()})
	}

	data := t.chain.FetchWalletData(ctx, address)
	analysis, err := t.analyzer.Analyze(address, data.Transactions, data.Balances, data.Source)
	if err != nil {
		return marshal(map[string]string{"error": err.Error()})
	}
	return marshal(analysis)
}

func unavailable(label string, err error) json.RawMessage {
	return marshal(map[string]string{"error": label, "details": err.Error()})
}

func marshal(v interface{}) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("tool result marshal failed")
		return json.RawMessage(`{"error":"internal serialization error"}`)
	}
	return raw
}
