// Package server exposes the agent over HTTP: the chat endpoint, the public
// live feed, the authed activity log, and the status badge.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/badseed-agent/pkg/activity"
	"github.com/badseed-agent/pkg/agent"
	"github.com/badseed-agent/pkg/config"
)

type Server struct {
	cfg    *config.Config
	engine *agent.Engine
	store  activity.Store
	port   int
}

func New(cfg *config.Config, engine *agent.Engine, store activity.Store) *Server {
	return &Server{cfg: cfg, engine: engine, store: store, port: cfg.Port}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/grok-chat", cors(s.handleChat))
	mux.HandleFunc("/live-feed", cors(s.handleLiveFeed))
	mux.HandleFunc("/activity-log", cors(s.handleActivityLog))
	mux.HandleFunc("/agent-badge", s.handleBadge)
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Int("port", s.port).Msg("🌐 agent server started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func cors(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

type chatRequest struct {
	Message string          `json:"message"`
	History []agent.Message `json:"history"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "Method Not Allowed"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Message is required"})
		return
	}

	if s.cfg.XAIAPIKey == "" {
		log.Error().Msg("XAI_API_KEY not configured")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "API key not configured"})
		return
	}

	requestID := uuid.NewString()
	userIP := clientIP(r)
	userAgent := r.Header.Get("User-Agent")
	if userAgent == "" {
		userAgent = "unknown"
	}
	category := activity.Categorize(req.Message)

	log.Info().
		Str("request_id", requestID).
		Str("ip", userIP).
		Str("category", category).
		Msg("chat request")

	reply, err := s.engine.Chat(r.Context(), req.Message, req.History)
	if err != nil {
		log.Error().Str("request_id", requestID).Err(err).Msg("chat failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}

	s.logInteraction(r.Context(), userIP, userAgent, category, req.Message, reply, len(req.History))

	writeJSON(w, http.StatusOK, map[string]string{"response": reply.Response})
}

func (s *Server) logInteraction(ctx context.Context, userIP, userAgent, category, message string, reply *agent.Reply, historyLen int) {
	if s.store == nil {
		return
	}

	functionsUsed := reply.FunctionsUsed
	if functionsUsed == nil {
		functionsUsed = []string{}
	}
	err := s.store.Log(ctx, activity.Entry{
		Type:               "query",
		UserIP:             userIP,
		UserAgent:          userAgent,
		Category:           category,
		Query:              truncate(message, 500),
		ResponseLength:     len(reply.Response),
		FunctionsUsed:      functionsUsed,
		ConversationLength: historyLen,
	})
	if err != nil {
		log.Warn().Err(err).Msg("activity log write failed")
	}
}

// feedItem is the redacted public view of one activity entry.
type feedItem struct {
	Timestamp     int64    `json:"timestamp"`
	Time          string   `json:"time"`
	Category      string   `json:"category"`
	Query         string   `json:"query"`
	Response      *string  `json:"response"`
	FunctionsUsed []string `json:"functionsUsed"`
	UserIP        string   `json:"userIP"`
}

func (s *Server) handleLiveFeed(w http.ResponseWriter, r *http.Request) {
	limit := clampQueryInt(r, "limit", 20, 50)

	entries, err := s.store.Recent(r.Context(), 0, limit)
	if err != nil {
		log.Error().Err(err).Msg("live feed fetch failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch live feed"})
		return
	}

	items := make([]feedItem, 0, len(entries))
	for _, e := range entries {
		category := e.Category
		if category == "" {
			category = "general"
		}
		funcs := e.FunctionsUsed
		if funcs == nil {
			funcs = []string{}
		}
		items = append(items, feedItem{
			Timestamp:     e.Timestamp,
			Time:          time.UnixMilli(e.Timestamp).UTC().Format("3:04:05 PM"),
			Category:      category,
			Query:         truncate(e.Query, 150),
			FunctionsUsed: funcs,
			UserIP:        redactIP(e.UserIP),
		})
	}

	today, err := s.store.DayStats(r.Context(), activity.DateKey(time.Now()))
	if err != nil {
		log.Warn().Err(err).Msg("today stats fetch failed")
		today = map[string]int{}
	}
	total, err := s.store.Total(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("total count fetch failed")
	}

	categories := map[string]int{}
	for field, count := range today {
		if strings.HasPrefix(field, "cat:") {
			categories[strings.TrimPrefix(field, "cat:")] = count
		}
	}

	var lastUpdate *string
	if len(items) > 0 {
		iso := time.UnixMilli(items[0].Timestamp).UTC().Format("2006-01-02T15:04:05.000Z")
		lastUpdate = &iso
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"activities": items,
		"todayStats": map[string]interface{}{
			"totalQueries": today["queries"],
			"categories":   categories,
		},
		"totalAllTime": total,
		"lastUpdate":   lastUpdate,
	})
}

func (s *Server) handleActivityLog(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	expected := s.cfg.AdminToken
	if token != expected && token != "Bearer "+expected {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Activity logging not configured"})
		return
	}

	limit := clampQueryInt(r, "limit", 50, 200)
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	entries, err := s.store.Recent(r.Context(), offset, limit)
	if err != nil {
		log.Error().Err(err).Msg("activity log fetch failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve activity logs"})
		return
	}

	stats := map[string]map[string]int{}
	for i := 0; i < 7; i++ {
		date := activity.DateKey(time.Now().AddDate(0, 0, -i))
		dayStats, err := s.store.DayStats(r.Context(), date)
		if err != nil {
			log.Warn().Err(err).Str("date", date).Msg("day stats fetch failed")
			continue
		}
		if len(dayStats) > 0 {
			stats[date] = dayStats
		}
	}

	total, err := s.store.Total(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("total count fetch failed")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"activities": entries,
		"stats":      stats,
		"pagination": map[string]interface{}{
			"total":   total,
			"limit":   limit,
			"offset":  offset,
			"hasMore": offset+limit < total,
		},
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "unknown"
	}
	return host
}

func redactIP(ip string) string {
	if ip == "" {
		return "unknown"
	}
	if len(ip) > 10 {
		ip = ip[:10]
	}
	return ip + "..."
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func clampQueryInt(r *http.Request, key string, def, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
