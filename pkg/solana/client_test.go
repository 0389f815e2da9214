package solana

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/badseed-agent/pkg/config"
	"github.com/badseed-agent/pkg/profiler"
)

func clientWith(t *testing.T, heliusKey, heliusURL, rpcURL string) *Client {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.HeliusAPIKey = heliusKey
	if heliusURL != "" {
		cfg.HeliusAPIURL = heliusURL
	}
	if rpcURL != "" {
		cfg.SolanaRPCURL = rpcURL
	}
	cfg.FetchTimeout = 2 * time.Second
	return NewClient(cfg)
}

const addr = "So11111111111111111111111111111111111111112"

func TestFetchWalletDataHelius(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api-key") != "test-key" {
			t.Errorf("missing api key on %s", r.URL.Path)
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/transactions"):
			if r.URL.Query().Get("limit") != "50" {
				t.Errorf("limit = %s", r.URL.Query().Get("limit"))
			}
			w.Write([]byte(`[{"signature":"sig1","timestamp":1700000000,"type":"SWAP"}]`))
		case strings.HasSuffix(r.URL.Path, "/balances"):
			w.Write([]byte(`{"tokens":[{"mint":"m1","amount":5,"decimals":6}],"nativeBalance":1000000000}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	data := clientWith(t, "test-key", srv.URL, "").FetchWalletData(context.Background(), addr)
	if data.Source != profiler.SourceHelius {
		t.Errorf("source = %q", data.Source)
	}
	if len(data.Transactions) != 1 || data.Transactions[0].Type != "SWAP" {
		t.Errorf("transactions = %+v", data.Transactions)
	}
	if data.Balances.NativeBalance != 1000000000 || len(data.Balances.Tokens) != 1 {
		t.Errorf("balances = %+v", data.Balances)
	}
}

func TestFetchWalletDataHeliusFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	data := clientWith(t, "test-key", srv.URL, "").FetchWalletData(context.Background(), addr)
	// Source stays helius: the profiler sees sparse data, not a different mode.
	if data.Source != profiler.SourceHelius {
		t.Errorf("source = %q", data.Source)
	}
	if len(data.Transactions) != 0 || data.Balances.NativeBalance != 0 {
		t.Errorf("data = %+v", data)
	}
}

func TestFetchWalletDataPublicRPCFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","result":{"context":{"slot":1},"value":2500000000},"id":1}`))
	}))
	defer srv.Close()

	data := clientWith(t, "", "", srv.URL).FetchWalletData(context.Background(), addr)
	if data.Source != profiler.SourcePublicRPC {
		t.Fatalf("source = %q", data.Source)
	}
	if data.Balances.NativeBalance != 2500000000 {
		t.Errorf("nativeBalance = %d", data.Balances.NativeBalance)
	}
	if len(data.Transactions) != 0 {
		t.Errorf("transactions = %+v", data.Transactions)
	}
}

func TestFetchWalletDataRPCFailureIsSourceNone(t *testing.T) {
	data := clientWith(t, "", "", "http://127.0.0.1:1").FetchWalletData(context.Background(), addr)
	if data.Source != profiler.SourceNone {
		t.Errorf("source = %q", data.Source)
	}
}

func TestFetchWalletDataBadBase58IsSourceNone(t *testing.T) {
	data := clientWith(t, "", "", "http://127.0.0.1:1").FetchWalletData(context.Background(), strings.Repeat("0", 40))
	if data.Source != profiler.SourceNone {
		t.Errorf("source = %q", data.Source)
	}
}
