// Package profiler derives a behavioral profile for a Solana wallet from its
// recent transaction history and token balances. Heuristic classification
// over already-fetched data; the network fetches live in pkg/solana.
package profiler

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/badseed-agent/pkg/config"
)

// ErrInvalidAddress carries the exact message returned across the tool
// boundary, so the text is user-facing rather than Go-style.
var ErrInvalidAddress = errors.New("Invalid wallet address format. Please provide a valid Solana address.")

// Transaction is a Helius enhanced transaction, reduced to the fields the
// profiler reads. Timestamp is epoch seconds.
type Transaction struct {
	Signature   string        `json:"signature,omitempty"`
	Timestamp   int64         `json:"timestamp"`
	Type        string        `json:"type,omitempty"`
	Source      string        `json:"source,omitempty"`
	AccountData []AccountData `json:"accountData,omitempty"`
}

type AccountData struct {
	Account string `json:"account"`
}

// TokenBalance is one SPL token position. Amount is in raw base units.
type TokenBalance struct {
	Mint     string `json:"mint"`
	Amount   int64  `json:"amount"`
	Decimals int    `json:"decimals"`
}

// Balances mirrors the indexer's balances response. NativeBalance is lamports.
type Balances struct {
	Tokens        []TokenBalance `json:"tokens"`
	NativeBalance int64          `json:"nativeBalance"`
}

// TransactionAnalysis summarizes recent activity. A wallet with no recent
// transactions gets only Activity/Pattern ("dormant" short circuit).
type TransactionAnalysis struct {
	Activity         string         `json:"activity,omitempty"`
	Pattern          string         `json:"pattern,omitempty"`
	ActivityLevel    string         `json:"activityLevel,omitempty"`
	PrimaryActivity  string         `json:"primaryActivity,omitempty"`
	Last24h          int            `json:"last24h"`
	LastWeek         int            `json:"lastWeek"`
	LastMonth        int            `json:"lastMonth"`
	TotalAnalyzed    int            `json:"totalAnalyzed"`
	TransactionTypes map[string]int `json:"transactionTypes,omitempty"`
	FirstSeen        string         `json:"firstSeen,omitempty"`
	LastSeen         string         `json:"lastSeen,omitempty"`
}

// Profile is the derived descriptive classification.
type Profile struct {
	Type              string   `json:"type"`
	Role              string   `json:"role,omitempty"`
	Name              string   `json:"name,omitempty"`
	ActivityLevel     string   `json:"activityLevel,omitempty"`
	Sentiment         string   `json:"sentiment"`
	Traits            []string `json:"traits"`
	BadseedEngagement string   `json:"badseedEngagement,omitempty"`
}

// Holdings reports the BADSEED token position, if any.
type Holdings struct {
	Amount    int64  `json:"amount"`
	Decimals  int    `json:"decimals"`
	Formatted string `json:"formatted"`
}

// Interactions counts transactions touching the known system wallets.
type Interactions struct {
	Count int      `json:"count"`
	Types []string `json:"types"`
}

// Analysis is the full wallet analysis returned to the tool caller.
type Analysis struct {
	Address              string               `json:"address"`
	DataSource           string               `json:"dataSource"`
	DataLimitations      string               `json:"dataLimitations,omitempty"`
	IsKnownBadseedWallet bool                 `json:"isKnownBadseedWallet"`
	KnownWalletInfo      *config.KnownWallet  `json:"knownWalletInfo,omitempty"`
	SolBalance           float64              `json:"solBalance"`
	TokenCount           int                  `json:"tokenCount"`
	BadseedHoldings      *Holdings            `json:"badseedHoldings,omitempty"`
	TransactionCount     int                  `json:"transactionCount"`
	TransactionAnalysis  TransactionAnalysis  `json:"transactionAnalysis"`
	BadseedInteractions  Interactions         `json:"badseedInteractions"`
	WalletProfile        Profile              `json:"walletProfile"`
	Suggestions          []string             `json:"suggestions"`
}

// Data source labels, fixed once per request by the caller.
const (
	SourceHelius    = "helius"
	SourcePublicRPC = "public_rpc"
	SourceNone      = "none"
)

const publicRPCLimitations = "Limited data: SOL balance only. Full transaction history requires Helius API."

type Analyzer struct {
	cfg          config.ProfilerConfig
	knownWallets map[string]config.KnownWallet
	mint         string

	// Now is the clock used for activity-recency bucketing. Tests freeze it.
	Now func() time.Time
}

func New(cfg config.ProfilerConfig, knownWallets map[string]config.KnownWallet, mint string) *Analyzer {
	return &Analyzer{
		cfg:          cfg,
		knownWallets: knownWallets,
		mint:         mint,
		Now:          time.Now,
	}
}

// Analyze profiles a wallet from already-fetched data. The only failure mode
// is address validation; everything else degrades to a sparser Analysis.
func (a *Analyzer) Analyze(address string, transactions []Transaction, balances Balances, dataSource string) (*Analysis, error) {
	if len(address) < 32 || len(address) > 44 {
		return nil, ErrInvalidAddress
	}

	var knownInfo *config.KnownWallet
	if kw, ok := a.knownWallets[address]; ok {
		knownInfo = &kw
	}

	txAnalysis := a.analyzeTransactionPatterns(transactions)
	badseedToken := a.findBadseedToken(balances.Tokens)
	interactions := a.findInteractions(transactions)
	profile := a.generateProfile(txAnalysis, badseedToken, interactions, knownInfo)

	analysis := &Analysis{
		Address:              address,
		DataSource:           dataSource,
		IsKnownBadseedWallet: knownInfo != nil,
		KnownWalletInfo:      knownInfo,
		SolBalance:           float64(balances.NativeBalance) / 1e9,
		TokenCount:           len(balances.Tokens),
		TransactionCount:     len(transactions),
		TransactionAnalysis:  txAnalysis,
		BadseedInteractions:  interactions,
		WalletProfile:        profile,
		Suggestions:          a.generateSuggestions(txAnalysis, badseedToken, interactions),
	}
	if dataSource == SourcePublicRPC {
		analysis.DataLimitations = publicRPCLimitations
	}
	if badseedToken != nil {
		analysis.BadseedHoldings = &Holdings{
			Amount:    badseedToken.Amount,
			Decimals:  badseedToken.Decimals,
			Formatted: formatTokenAmount(badseedToken.Amount, a.decimalsOf(badseedToken)),
		}
	}
	return analysis, nil
}

func (a *Analyzer) analyzeTransactionPatterns(transactions []Transaction) TransactionAnalysis {
	if len(transactions) == 0 {
		return TransactionAnalysis{
			Activity: "dormant",
			Pattern:  "No recent activity detected",
		}
	}

	now := a.Now().UnixMilli()
	const day = 24 * 60 * 60 * 1000
	const week = 7 * day
	const month = 30 * day

	var last24h, lastWeek, lastMonth int
	types := map[string]int{}
	for _, tx := range transactions {
		age := now - tx.Timestamp*1000
		if age < day {
			last24h++
		}
		if age < week {
			lastWeek++
		}
		if age < month {
			lastMonth++
		}
		t := tx.Type
		if t == "" {
			t = "UNKNOWN"
		}
		types[t]++
	}

	activityLevel := "low"
	switch {
	case last24h > a.cfg.VeryHighDayMin:
		activityLevel = "very_high"
	case lastWeek > a.cfg.HighWeekMin:
		activityLevel = "high"
	case lastMonth > a.cfg.ModerateMonthMin:
		activityLevel = "moderate"
	}

	swaps := types["SWAP"]
	transfers := types["TRANSFER"]
	nftActivity := types["NFT_SALE"] + types["NFT_MINT"] + types["NFT_LISTING"]

	primaryActivity := "holder"
	switch {
	case swaps > transfers && swaps > nftActivity:
		primaryActivity = "trader"
	case nftActivity > swaps && nftActivity > transfers:
		primaryActivity = "nft_collector"
	case transfers > swaps:
		primaryActivity = "transactor"
	}

	// The indexer returns newest first: firstSeen comes from the tail,
	// lastSeen from the head.
	return TransactionAnalysis{
		ActivityLevel:    activityLevel,
		PrimaryActivity:  primaryActivity,
		Last24h:          last24h,
		LastWeek:         lastWeek,
		LastMonth:        lastMonth,
		TotalAnalyzed:    len(transactions),
		TransactionTypes: types,
		FirstSeen:        isoSeconds(transactions[len(transactions)-1].Timestamp),
		LastSeen:         isoSeconds(transactions[0].Timestamp),
	}
}

func (a *Analyzer) findBadseedToken(tokens []TokenBalance) *TokenBalance {
	for i := range tokens {
		if tokens[i].Mint == a.mint {
			return &tokens[i]
		}
	}
	return nil
}

func (a *Analyzer) findInteractions(transactions []Transaction) Interactions {
	result := Interactions{Types: []string{}}
	seen := map[string]bool{}
	for _, tx := range transactions {
		touches := false
		for _, ad := range tx.AccountData {
			if _, ok := a.knownWallets[ad.Account]; ok {
				touches = true
				break
			}
		}
		if !touches {
			continue
		}
		result.Count++
		t := tx.Type
		if t == "" {
			t = "UNKNOWN"
		}
		if !seen[t] {
			seen[t] = true
			result.Types = append(result.Types, t)
		}
	}
	return result
}

func (a *Analyzer) generateProfile(txAnalysis TransactionAnalysis, badseedToken *TokenBalance, interactions Interactions, known *config.KnownWallet) Profile {
	if known != nil {
		return Profile{
			Type:      "system_wallet",
			Role:      known.Role,
			Name:      known.Name,
			Sentiment: "core_infrastructure",
			Traits:    []string{"Official BADSEED wallet", "Role: " + known.Role},
		}
	}

	traits := []string{}
	sentiment := "neutral"

	switch txAnalysis.ActivityLevel {
	case "very_high":
		traits = append(traits, "Highly active trader")
	case "high":
		traits = append(traits, "Active participant")
	case "low":
		traits = append(traits, "Passive holder")
	}

	if badseedToken != nil && badseedToken.Amount > 0 {
		amount := uiAmount(badseedToken.Amount, a.decimalsOf(badseedToken))
		switch {
		case amount.GreaterThan(decimal.NewFromFloat(a.cfg.MajorHolderMin)):
			traits = append(traits, "Major BADSEED holder")
		case amount.GreaterThan(decimal.NewFromFloat(a.cfg.SignificantHolderMin)):
			traits = append(traits, "Significant BADSEED holder")
		case amount.GreaterThan(decimal.NewFromFloat(a.cfg.HolderMin)):
			traits = append(traits, "BADSEED holder")
		default:
			traits = append(traits, "Minor BADSEED holder")
		}
		sentiment = "invested"
	}

	if interactions.Count > 0 {
		traits = append(traits, fmt.Sprintf("%d BADSEED system interactions", interactions.Count))
		sentiment = "engaged"
	}

	switch txAnalysis.PrimaryActivity {
	case "trader":
		traits = append(traits, "Active swap activity")
		if txAnalysis.TransactionTypes["SWAP"] > a.cfg.SpeculativeSwapMin {
			sentiment = "speculative"
		}
	case "nft_collector":
		traits = append(traits, "NFT collector")
	}

	profileType := txAnalysis.PrimaryActivity
	if profileType == "" {
		// Dormant wallets have no activity breakdown; holder is the default.
		profileType = "holder"
	}

	engagement := "none"
	if interactions.Count > 0 {
		engagement = "active"
	} else if badseedToken != nil {
		engagement = "holder"
	}

	return Profile{
		Type:              profileType,
		ActivityLevel:     txAnalysis.ActivityLevel,
		Sentiment:         sentiment,
		Traits:            traits,
		BadseedEngagement: engagement,
	}
}

// generateSuggestions keeps a fixed emission order so identical inputs yield
// byte-identical output.
func (a *Analyzer) generateSuggestions(txAnalysis TransactionAnalysis, badseedToken *TokenBalance, interactions Interactions) []string {
	suggestions := []string{
		"Transaction signature lookup available for detailed tx analysis",
		"Token transfer history can be tracked",
	}

	if badseedToken == nil {
		suggestions = append(suggestions, "Wallet has no BADSEED holdings - could analyze acquisition patterns if tokens are added")
	} else {
		suggestions = append(suggestions, "BADSEED holdings detected - can track entry price and holding duration")
	}

	if interactions.Count > 0 {
		suggestions = append(suggestions, "Cross-reference with Voice Node donation logs for correlation")
	}

	if txAnalysis.ActivityLevel == "very_high" || txAnalysis.PrimaryActivity == "trader" {
		suggestions = append(suggestions, "High trading frequency - consider analyzing swap patterns and DEX preferences")
	}

	return suggestions
}

func (a *Analyzer) decimalsOf(t *TokenBalance) int {
	if t.Decimals == 0 {
		return a.cfg.DefaultDecimals
	}
	return t.Decimals
}

// uiAmount converts raw base units to whole tokens without float drift.
func uiAmount(raw int64, decimals int) decimal.Decimal {
	return decimal.NewFromInt(raw).Shift(int32(-decimals))
}

// formatTokenAmount renders whole tokens with thousands separators and at
// most three fraction digits, matching locale formatting.
func formatTokenAmount(raw int64, decimals int) string {
	f, _ := uiAmount(raw, decimals).Float64()
	p := message.NewPrinter(language.English)
	return p.Sprint(number.Decimal(f, number.MaxFractionDigits(3)))
}

// isoSeconds renders an epoch-second timestamp as an ISO-8601 string with
// millisecond precision, matching the upstream services' timestamps.
func isoSeconds(sec int64) string {
	return time.Unix(sec, 0).UTC().Format("2006-01-02T15:04:05.000Z")
}
