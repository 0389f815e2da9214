// agentctl is the operator console for the BADSEED agent. It pulls the
// authed activity log from a running agent and renders usage stats and
// query patterns in the terminal.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/badseed-agent/pkg/activity"
)

var bannerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("10")).
	BorderStyle(lipgloss.RoundedBorder()).
	Padding(0, 2)

type logResponse struct {
	Activities []activity.Entry          `json:"activities"`
	Stats      map[string]map[string]int `json:"stats"`
	Pagination struct {
		Total   int  `json:"total"`
		Limit   int  `json:"limit"`
		Offset  int  `json:"offset"`
		HasMore bool `json:"hasMore"`
	} `json:"pagination"`
}

func main() {
	url := flag.String("url", "http://localhost:8887", "agent base URL")
	token := flag.String("token", os.Getenv("AGENT_ADMIN_TOKEN"), "admin token")
	limit := flag.Int("limit", 50, "number of activity entries to fetch")
	offset := flag.Int("offset", 0, "entry offset")
	flag.Parse()

	if *token == "" {
		*token = "badseed-agent-admin"
	}

	fmt.Println(bannerStyle.Render("BADSEED AGENT · operator console"))

	resp, err := fetchLog(*url, *token, *limit, *offset)
	if err != nil {
		color.Red("fetch failed: %v", err)
		os.Exit(1)
	}

	printStats(resp)
	printActivity(resp)
	printPatterns(resp)
}

func fetchLog(baseURL, token string, limit, offset int) (*logResponse, error) {
	url := fmt.Sprintf("%s/activity-log?limit=%d&offset=%d", baseURL, limit, offset)
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 15 * time.Second}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("unauthorized: check --token")
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent returned %d", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	var parsed logResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func printStats(resp *logResponse) {
	fmt.Println()
	color.Cyan("── 7-day stats ──")

	dates := make([]string, 0, len(resp.Stats))
	for d := range resp.Stats {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Date", "Queries", "Top Category"})
	for _, d := range dates {
		day := resp.Stats[d]
		table.Append([]string{d, strconv.Itoa(day["queries"]), topCategory(day)})
	}
	table.Render()

	fmt.Printf("total logged all-time: %s\n", color.GreenString("%d", resp.Pagination.Total))
}

func topCategory(day map[string]int) string {
	best, bestCount := "-", 0
	for field, count := range day {
		if len(field) > 4 && field[:4] == "cat:" && count > bestCount {
			best, bestCount = field[4:], count
		}
	}
	return best
}

func printActivity(resp *logResponse) {
	fmt.Println()
	color.Cyan("── recent activity ──")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Category", "Query", "Functions", "IP"})
	for _, e := range resp.Activities {
		table.Append([]string{
			time.UnixMilli(e.Timestamp).Local().Format("Jan 02 15:04"),
			e.Category,
			clip(e.Query, 40),
			fmt.Sprintf("%d", len(e.FunctionsUsed)),
			e.UserIP,
		})
	}
	table.Render()
}

func printPatterns(resp *logResponse) {
	fmt.Println()
	color.Cyan("── query patterns ──")

	categories := map[string]int{}
	functions := map[string]int{}
	ips := map[string]bool{}
	hours := map[int]int{}

	for _, e := range resp.Activities {
		categories[e.Category]++
		for _, f := range e.FunctionsUsed {
			functions[f]++
		}
		if e.UserIP != "" {
			ips[e.UserIP] = true
		}
		hours[time.UnixMilli(e.Timestamp).UTC().Hour()]++
	}

	fmt.Printf("categories:   %s\n", formatCounts(categories))
	fmt.Printf("functions:    %s\n", formatCounts(functions))
	fmt.Printf("unique IPs:   %s\n", color.YellowString("%d", len(ips)))

	peakHour, peakCount := 0, 0
	for h, n := range hours {
		if n > peakCount {
			peakHour, peakCount = h, n
		}
	}
	if peakCount > 0 {
		fmt.Printf("peak hour:    %s (%d queries)\n", color.YellowString("%02d:00 UTC", peakHour), peakCount)
	}
}

func formatCounts(counts map[string]int) string {
	type kv struct {
		key   string
		count int
	}
	sorted := make([]kv, 0, len(counts))
	for k, v := range counts {
		sorted = append(sorted, kv{k, v})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].count > sorted[j].count })

	out := ""
	for i, item := range sorted {
		if i > 0 {
			out += "  "
		}
		out += fmt.Sprintf("%s=%d", item.key, item.count)
	}
	if out == "" {
		return "-"
	}
	return out
}

func clip(s string, max int) string {
	if len(s) > max {
		return s[:max-1] + "…"
	}
	return s
}
