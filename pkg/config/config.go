package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// KnownWallet is one of the fixed BADSEED system wallets.
type KnownWallet struct {
	Address string `yaml:"address" json:"-"`
	Name    string `yaml:"name" json:"name"`
	Role    string `yaml:"role" json:"role"` // creator | donations | token
}

// Default system wallets. Overridable via the optional wallets file.
const (
	CreatorWallet  = "9TyzcephhXEw67piYNc72EJtgVmbq3AZhyPFSvdfXWdr"
	DonationWallet = "CZ7Lv3QNVxbBivGPBhJG7m1HpCtfEDjEusBjjZ3qmVz5"
	TokenMint      = "3HPpMLK7LjKFqSnCsBYNiijhNTo7dkkx3FCSAHKSpump"
)

// CorrelationConfig holds the cross-node matching heuristic. The window and
// tier bonuses are policy numbers carried over from the original deployment,
// not derived from data. Downstream consumers expect the exact confidence
// values these defaults produce.
type CorrelationConfig struct {
	Window         time.Duration // pairs further apart than this never match
	NearWindow     time.Duration // tier 1 proximity
	MidWindow      time.Duration // tier 2 proximity
	BaseConfidence int
	NearBonus      int
	MidBonus       int
	FarBonus       int
	UserAgentBonus int
	MaxResults     int
	WalletOnlyMax  int
}

// ProfilerConfig holds the wallet-profiling thresholds.
type ProfilerConfig struct {
	MajorHolderMin       float64 // whole tokens
	SignificantHolderMin float64
	HolderMin            float64
	DefaultDecimals      int
	SpeculativeSwapMin   int // SWAP count above which sentiment turns speculative
	VeryHighDayMin       int // txs in last 24h
	HighWeekMin          int // txs in last 7d
	ModerateMonthMin     int // txs in last 30d
}

type Config struct {
	// LLM (x.ai chat completions)
	XAIAPIKey         string
	GrokAPIURL        string
	GrokModel         string
	Temperature       float64
	MaxTokens         int
	MaxToolIterations int
	LLMTimeout        time.Duration

	// Solana
	HeliusAPIKey string
	HeliusAPIURL string
	SolanaRPCURL string
	TxFetchLimit int

	// BADSEED nodes
	VoiceNodeURL   string // badseed-exposed functions base
	ValueNodeURL   string // badseed-token functions base
	VisitorNodeURL string // visitor tracker functions base
	FetchTimeout   time.Duration

	// Activity log
	UpstashURL   string
	UpstashToken string
	AdminToken   string
	DBPath       string

	// Server
	Port int

	// Known wallets, keyed by address
	KnownWallets     map[string]KnownWallet
	TokenMintAddress string

	Correlation CorrelationConfig
	Profiler    ProfilerConfig
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		XAIAPIKey:         os.Getenv("XAI_API_KEY"),
		GrokAPIURL:        envOr("GROK_API_URL", "https://api.x.ai/v1/chat/completions"),
		GrokModel:         envOr("GROK_MODEL", "grok-3"),
		Temperature:       envFloat("GROK_TEMPERATURE", 0.3),
		MaxTokens:         envInt("GROK_MAX_TOKENS", 500),
		MaxToolIterations: envInt("MAX_TOOL_ITERATIONS", 3),
		LLMTimeout:        time.Duration(envInt("LLM_TIMEOUT_SECONDS", 60)) * time.Second,

		HeliusAPIKey: os.Getenv("HELIUS_API_KEY"),
		HeliusAPIURL: envOr("HELIUS_API_URL", "https://api.helius.xyz"),
		SolanaRPCURL: envOr("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		TxFetchLimit: envInt("TX_FETCH_LIMIT", 50),

		VoiceNodeURL:   envOr("VOICE_NODE_URL", "https://badseed.netlify.app/.netlify/functions"),
		ValueNodeURL:   envOr("VALUE_NODE_URL", "https://badseed-token.netlify.app/.netlify/functions"),
		VisitorNodeURL: envOr("VISITOR_NODE_URL", "https://badseedtoken.netlify.app/.netlify/functions"),
		FetchTimeout:   time.Duration(envInt("NODE_FETCH_TIMEOUT_SECONDS", 10)) * time.Second,

		UpstashURL:   os.Getenv("UPSTASH_REDIS_REST_URL"),
		UpstashToken: os.Getenv("UPSTASH_REDIS_REST_TOKEN"),
		AdminToken:   envOr("AGENT_ADMIN_TOKEN", "badseed-agent-admin"),
		DBPath:       envOr("DB_PATH", "badseed_agent.db"),

		Port: envInt("PORT", 8887),

		TokenMintAddress: envOr("BADSEED_MINT", TokenMint),

		Correlation: CorrelationConfig{
			Window:         time.Duration(envInt("CORRELATION_WINDOW_MINUTES", 30)) * time.Minute,
			NearWindow:     5 * time.Minute,
			MidWindow:      15 * time.Minute,
			BaseConfidence: 50,
			NearBonus:      30,
			MidBonus:       20,
			FarBonus:       10,
			UserAgentBonus: 20,
			MaxResults:     20,
			WalletOnlyMax:  10,
		},
		Profiler: ProfilerConfig{
			MajorHolderMin:       10_000_000,
			SignificantHolderMin: 1_000_000,
			HolderMin:            100_000,
			DefaultDecimals:      6,
			SpeculativeSwapMin:   20,
			VeryHighDayMin:       5,
			HighWeekMin:          10,
			ModerateMonthMin:     5,
		},
	}

	cfg.KnownWallets = map[string]KnownWallet{
		CreatorWallet:  {Address: CreatorWallet, Name: "BADSEED Creator Wallet", Role: "creator"},
		DonationWallet: {Address: DonationWallet, Name: "BADSEED Donation Wallet", Role: "donations"},
		TokenMint:      {Address: TokenMint, Name: "BADSEED Token Mint", Role: "token"},
	}

	if path := os.Getenv("WALLETS_FILE"); path != "" {
		if err := cfg.loadWalletsFile(path); err != nil {
			return nil, fmt.Errorf("load wallets file: %w", err)
		}
	}

	return cfg, nil
}

// loadWalletsFile overlays known wallets and the token mint from a YAML file:
//
//	token_mint: <address>
//	known_wallets:
//	  - address: <address>
//	    name: <display name>
//	    role: creator|donations|token
func (c *Config) loadWalletsFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file struct {
		TokenMint    string        `yaml:"token_mint"`
		KnownWallets []KnownWallet `yaml:"known_wallets"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return err
	}
	if file.TokenMint != "" {
		c.TokenMintAddress = file.TokenMint
	}
	if len(file.KnownWallets) > 0 {
		c.KnownWallets = map[string]KnownWallet{}
		for _, kw := range file.KnownWallets {
			if kw.Address == "" {
				continue
			}
			c.KnownWallets[kw.Address] = kw
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c.XAIAPIKey == "" {
		return fmt.Errorf("XAI_API_KEY not configured")
	}
	return nil
}

// HeliusConfigured reports whether full transaction history is available.
func (c *Config) HeliusConfigured() bool {
	return c.HeliusAPIKey != ""
}

// UpstashConfigured reports whether the hosted activity log is available.
func (c *Config) UpstashConfigured() bool {
	return c.UpstashURL != "" && c.UpstashToken != ""
}

// helpers

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
