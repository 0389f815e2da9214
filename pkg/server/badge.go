package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/badseed-agent/pkg/activity"
)

// Badge colors, shields.io palette.
const (
	colorOnline  = "#4c1"
	colorError   = "#e05d44"
	colorOffline = "#9f9f9f"
)

// handleBadge renders a shields-style SVG with today's query count.
func (s *Server) handleBadge(w http.ResponseWriter, r *http.Request) {
	status := "online"
	color := colorOnline
	todayQueries := 0

	if s.store == nil {
		status = "offline"
		color = colorOffline
	} else {
		stats, err := s.store.DayStats(r.Context(), activity.DateKey(time.Now()))
		if err != nil {
			log.Warn().Err(err).Msg("badge stats fetch failed")
			status = "error"
			color = colorError
		} else {
			todayQueries = stats["queries"]
		}
	}

	message := status
	if status == "online" {
		message = strconv.Itoa(todayQueries) + " today"
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	fmt.Fprint(w, renderBadge("GROK Agent", message, color))
}

func renderBadge(label, message, color string) string {
	labelWidth := float64(len(label))*6.5 + 10
	messageWidth := float64(len(message))*6.5 + 10
	totalWidth := labelWidth + messageWidth

	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%[1]g" height="20">
  <linearGradient id="b" x2="0" y2="100%%">
    <stop offset="0" stop-color="#bbb" stop-opacity=".1"/>
    <stop offset="1" stop-opacity=".1"/>
  </linearGradient>
  <clipPath id="a">
    <rect width="%[1]g" height="20" rx="3" fill="#fff"/>
  </clipPath>
  <g clip-path="url(#a)">
    <path fill="#555" d="M0 0h%[2]gv20H0z"/>
    <path fill="%[3]s" d="M%[2]g 0h%[4]gv20H%[2]gz"/>
    <path fill="url(#b)" d="M0 0h%[1]gv20H0z"/>
  </g>
  <g fill="#fff" text-anchor="middle" font-family="DejaVu Sans,Verdana,Geneva,sans-serif" font-size="11">
    <text x="%[5]g" y="15" fill="#010101" fill-opacity=".3">%[6]s</text>
    <text x="%[5]g" y="14">%[6]s</text>
    <text x="%[7]g" y="15" fill="#010101" fill-opacity=".3">%[8]s</text>
    <text x="%[7]g" y="14">%[8]s</text>
  </g>
</svg>`,
		totalWidth, labelWidth, color, messageWidth,
		labelWidth/2, label,
		labelWidth+messageWidth/2, message)
}
