package nodes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/badseed-agent/pkg/config"
)

func clientFor(t *testing.T, url string) *Client {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.VoiceNodeURL = url
	cfg.ValueNodeURL = url
	cfg.VisitorNodeURL = url
	cfg.FetchTimeout = 2 * time.Second
	return NewClient(cfg)
}

func TestVoiceStatusAggregates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sentiment-get":
			w.Write([]byte(`{"score":0.7}`))
		case "/prophecy-get":
			w.Write([]byte(`{"text":"the seed grows"}`))
		case "/wallet-status":
			w.Write([]byte(`{"balance":12}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	status, err := clientFor(t, srv.URL).VoiceStatus(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if string(status.Sentiment) != `{"score":0.7}` {
		t.Errorf("sentiment = %s", status.Sentiment)
	}
	if string(status.Prophecy) != `{"text":"the seed grows"}` {
		t.Errorf("prophecy = %s", status.Prophecy)
	}
	if string(status.Wallet) != `{"balance":12}` {
		t.Errorf("wallet = %s", status.Wallet)
	}
}

func TestVoiceStatusOneEndpointDownFailsAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/prophecy-get" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := clientFor(t, srv.URL).VoiceStatus(context.Background()); err == nil {
		t.Fatal("expected error when one endpoint fails")
	}
}

func TestSystemActivityDefaultsLogs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/transmission-log-get":
			// No logs field at all.
			w.Write([]byte(`{}`))
		default:
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	act, err := clientFor(t, srv.URL).SystemActivity(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if string(act.TransmissionLogs) != "[]" {
		t.Errorf("transmissionLogs = %s, want []", act.TransmissionLogs)
	}
}

func TestFetchWalletEventsPropagatesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := clientFor(t, srv.URL).FetchWalletEvents(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestFetchWalletEventsDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analytics-get" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"recentEvents":[{"walletAddress":"w1","timestamp":5,"userAgent":"ua"}],"uniqueWallets":3}`))
	}))
	defer srv.Close()

	events, err := clientFor(t, srv.URL).FetchWalletEvents(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if events.UniqueWallets != 3 || len(events.RecentEvents) != 1 {
		t.Fatalf("events = %+v", events)
	}
	if events.RecentEvents[0].WalletAddress != "w1" || events.RecentEvents[0].UserAgent != "ua" {
		t.Errorf("event = %+v", events.RecentEvents[0])
	}
}

func TestFetchVisitorsDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	visitors := clientFor(t, srv.URL).FetchVisitors(context.Background())
	if len(visitors.RecentVisitors) != 0 || visitors.UniqueIPs != 0 {
		t.Errorf("visitors = %+v", visitors)
	}
}
