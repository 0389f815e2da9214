package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS agent_activity (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp INTEGER NOT NULL,
    type TEXT NOT NULL DEFAULT 'query',
    user_ip TEXT,
    user_agent TEXT,
    category TEXT,
    query TEXT,
    response_length INTEGER DEFAULT 0,
    functions_used TEXT DEFAULT '[]',
    conversation_length INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS daily_stats (
    date TEXT NOT NULL,
    field TEXT NOT NULL,
    count INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (date, field)
);

CREATE INDEX IF NOT EXISTS idx_activity_timestamp ON agent_activity(timestamp DESC);
`

// SQLite is the local fallback store, used when Upstash is not configured.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Log(ctx context.Context, e Entry) error {
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}
	if e.FunctionsUsed == nil {
		e.FunctionsUsed = []string{}
	}
	funcs, err := json.Marshal(e.FunctionsUsed)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO agent_activity
			(timestamp, type, user_ip, user_agent, category, query, response_length, functions_used, conversation_length)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Timestamp, e.Type, e.UserIP, e.UserAgent, e.Category, e.Query, e.ResponseLength, string(funcs), e.ConversationLength)
	if err != nil {
		return err
	}

	// Keep the retained window bounded, same cap as the Redis list.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM agent_activity WHERE id NOT IN
			(SELECT id FROM agent_activity ORDER BY id DESC LIMIT ?)`, MaxEntries)
	if err != nil {
		return err
	}

	date := DateKey(time.UnixMilli(e.Timestamp))
	if err := s.bump(ctx, tx, date, "queries"); err != nil {
		return err
	}
	if e.Category != "" {
		if err := s.bump(ctx, tx, date, "cat:"+e.Category); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLite) bump(ctx context.Context, tx *sql.Tx, date, field string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO daily_stats (date, field, count) VALUES (?, ?, 1)
		ON CONFLICT(date, field) DO UPDATE SET count = count + 1`, date, field)
	return err
}

func (s *SQLite) Recent(ctx context.Context, offset, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, type, user_ip, user_agent, category, query, response_length, functions_used, conversation_length
		FROM agent_activity ORDER BY id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var funcs string
		if err := rows.Scan(&e.Timestamp, &e.Type, &e.UserIP, &e.UserAgent, &e.Category, &e.Query, &e.ResponseLength, &funcs, &e.ConversationLength); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(funcs), &e.FunctionsUsed); err != nil {
			e.FunctionsUsed = []string{}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLite) Total(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM agent_activity`).Scan(&n)
	return n, err
}

func (s *SQLite) DayStats(ctx context.Context, date string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT field, count FROM daily_stats WHERE date = ?`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{}
	for rows.Next() {
		var field string
		var count int
		if err := rows.Scan(&field, &count); err != nil {
			return nil, err
		}
		stats[field] = count
	}
	return stats, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
