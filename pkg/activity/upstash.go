package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	activityKey = "badseed:agent:activity"
	statsPrefix = "badseed:agent:stats:"
)

// Upstash logs activity to Upstash Redis through its single-command REST
// endpoint. Every call POSTs one command as a JSON array.
type Upstash struct {
	url    string
	token  string
	client *http.Client
}

func NewUpstash(url, token string) *Upstash {
	return &Upstash{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (u *Upstash) Log(ctx context.Context, e Entry) error {
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}
	if e.FunctionsUsed == nil {
		e.FunctionsUsed = []string{}
	}

	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	if _, err := u.command(ctx, "LPUSH", activityKey, string(raw)); err != nil {
		return err
	}
	if _, err := u.command(ctx, "LTRIM", activityKey, "0", strconv.Itoa(MaxEntries-1)); err != nil {
		return err
	}

	statsKey := statsPrefix + DateKey(time.UnixMilli(e.Timestamp))
	if _, err := u.command(ctx, "HINCRBY", statsKey, "queries", "1"); err != nil {
		return err
	}
	if e.Category != "" {
		if _, err := u.command(ctx, "HINCRBY", statsKey, "cat:"+e.Category, "1"); err != nil {
			return err
		}
	}
	return nil
}

func (u *Upstash) Recent(ctx context.Context, offset, limit int) ([]Entry, error) {
	result, err := u.command(ctx, "LRANGE", activityKey, strconv.Itoa(offset), strconv.Itoa(offset+limit-1))
	if err != nil {
		return nil, err
	}

	var raw []string
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, fmt.Errorf("lrange result: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			log.Warn().Err(err).Msg("skipping malformed activity entry")
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (u *Upstash) Total(ctx context.Context) (int, error) {
	result, err := u.command(ctx, "LLEN", activityKey)
	if err != nil {
		return 0, err
	}
	var n int
	if err := json.Unmarshal(result, &n); err != nil {
		return 0, fmt.Errorf("llen result: %w", err)
	}
	return n, nil
}

// DayStats returns the raw hash for one day: "queries" plus "cat:*" fields.
func (u *Upstash) DayStats(ctx context.Context, date string) (map[string]int, error) {
	result, err := u.command(ctx, "HGETALL", statsPrefix+date)
	if err != nil {
		return nil, err
	}

	// Upstash returns HGETALL as a flat [field, value, ...] array.
	var flat []string
	if err := json.Unmarshal(result, &flat); err != nil {
		return nil, fmt.Errorf("hgetall result: %w", err)
	}

	stats := map[string]int{}
	for i := 0; i+1 < len(flat); i += 2 {
		n, err := strconv.Atoi(flat[i+1])
		if err != nil {
			continue
		}
		stats[flat[i]] = n
	}
	return stats, nil
}

func (u *Upstash) Close() error { return nil }

func (u *Upstash) command(ctx context.Context, args ...string) (json.RawMessage, error) {
	body, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", u.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+u.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("redis error: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Result json.RawMessage `json:"result"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("redis error: %s", parsed.Error)
	}
	return parsed.Result, nil
}
