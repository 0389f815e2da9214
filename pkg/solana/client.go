// Package solana fetches on-chain wallet data. Enhanced transaction history
// and token balances come from the Helius indexer; when no Helius key is
// configured the client degrades to a plain RPC balance lookup.
package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/badseed-agent/pkg/config"
	"github.com/badseed-agent/pkg/profiler"
)

// WalletData is everything the profiler needs for one wallet, plus the
// source the data actually came from.
type WalletData struct {
	Transactions []profiler.Transaction
	Balances     profiler.Balances
	Source       string
}

type Client struct {
	heliusKey string
	heliusURL string
	txLimit   int

	client *http.Client
	rpc    *rpc.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		heliusKey: cfg.HeliusAPIKey,
		heliusURL: cfg.HeliusAPIURL,
		txLimit:   cfg.TxFetchLimit,
		client:    &http.Client{Timeout: cfg.FetchTimeout},
		rpc:       rpc.New(cfg.SolanaRPCURL),
	}
}

// FetchWalletData pulls transactions and balances for the wallet. Helius is
// used when configured, with both fetches in flight at once; otherwise the
// public RPC provides the SOL balance only. Fetch failures degrade the
// source rather than erroring: the profiler handles sparse data.
func (c *Client) FetchWalletData(ctx context.Context, address string) WalletData {
	if c.heliusKey == "" {
		return c.fetchPublicRPC(ctx, address)
	}

	data := WalletData{Source: profiler.SourceHelius}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data.Transactions = c.fetchTransactions(gctx, address)
		return nil
	})
	g.Go(func() error {
		data.Balances = c.fetchBalances(gctx, address)
		return nil
	})
	_ = g.Wait()
	return data
}

// fetchTransactions returns the wallet's recent enhanced transactions.
// Any failure yields an empty history, same as a wallet with no activity.
func (c *Client) fetchTransactions(ctx context.Context, address string) []profiler.Transaction {
	u := fmt.Sprintf("%s/v0/addresses/%s/transactions?api-key=%s&limit=%d",
		c.heliusURL, url.PathEscape(address), url.QueryEscape(c.heliusKey), c.txLimit)

	var txs []profiler.Transaction
	if err := c.getJSON(ctx, u, &txs); err != nil {
		log.Warn().Err(err).Str("wallet", address).Msg("helius transaction fetch failed")
		return nil
	}
	return txs
}

func (c *Client) fetchBalances(ctx context.Context, address string) profiler.Balances {
	u := fmt.Sprintf("%s/v0/addresses/%s/balances?api-key=%s",
		c.heliusURL, url.PathEscape(address), url.QueryEscape(c.heliusKey))

	var bal profiler.Balances
	if err := c.getJSON(ctx, u, &bal); err != nil {
		log.Warn().Err(err).Str("wallet", address).Msg("helius balance fetch failed")
		return profiler.Balances{}
	}
	return bal
}

func (c *Client) fetchPublicRPC(ctx context.Context, address string) WalletData {
	pubkey, err := solanago.PublicKeyFromBase58(address)
	if err != nil {
		log.Warn().Err(err).Str("wallet", address).Msg("address is not valid base58")
		return WalletData{Source: profiler.SourceNone}
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := c.rpc.GetBalance(ctx, pubkey, rpc.CommitmentFinalized)
	if err != nil {
		log.Warn().Err(err).Str("wallet", address).Msg("public rpc balance fetch failed")
		return WalletData{Source: profiler.SourceNone}
	}

	return WalletData{
		Balances: profiler.Balances{NativeBalance: int64(out.Value)},
		Source:   profiler.SourcePublicRPC,
	}
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
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dst)
}
