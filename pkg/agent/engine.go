// Package agent drives the LLM conversation loop. The model is an
// OpenAI-compatible chat completions endpoint (x.ai Grok) with function
// calling enabled; tool results feed back into the conversation until the
// model produces a final answer or the iteration cap is hit.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/badseed-agent/pkg/config"
)

// FallbackResponse is returned when the model is still calling tools after
// the iteration cap.
const FallbackResponse = "Processing completed. Query the agent for results."

// Message is one chat turn in wire format.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Reply is the outcome of one user message.
type Reply struct {
	Response      string
	FunctionsUsed []string
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Tools       []Tool    `json:"tools,omitempty"`
	ToolChoice  string    `json:"tool_choice,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type Engine struct {
	cfg    *config.Config
	client *http.Client
	tools  *Toolset
}

func NewEngine(cfg *config.Config, tools *Toolset) *Engine {
	return &Engine{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.LLMTimeout},
		tools:  tools,
	}
}

// Chat runs the tool-calling loop for one user message. History is replayed
// as-is minus any system turns; the canonical system prompt always leads.
func (e *Engine) Chat(ctx context.Context, message string, history []Message) (*Reply, error) {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	for _, m := range history {
		if m.Role == "system" {
			continue
		}
		messages = append(messages, Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, Message{Role: "user", Content: message})

	var functionsUsed []string

	for iteration := 0; iteration < e.cfg.MaxToolIterations; iteration++ {
		assistant, err := e.complete(ctx, messages)
		if err != nil {
			return nil, err
		}

		if len(assistant.ToolCalls) == 0 {
			response := assistant.Content
			if response == "" {
				response = "No response from agent"
			}
			return &Reply{Response: response, FunctionsUsed: functionsUsed}, nil
		}

		messages = append(messages, *assistant)

		for _, call := range assistant.ToolCalls {
			functionsUsed = append(functionsUsed, call.Function.Name)

			log.Debug().
				Str("function", call.Function.Name).
				Int("iteration", iteration+1).
				Msg("executing tool call")

			result := e.tools.Dispatch(ctx, call.Function.Name, call.Function.Arguments)
			messages = append(messages, Message{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    string(result),
			})
		}
	}

	return &Reply{Response: FallbackResponse, FunctionsUsed: functionsUsed}, nil
}

func (e *Engine) complete(ctx context.Context, messages []Message) (*Message, error) {
	body, err := json.Marshal(chatRequest{
		Model:       e.cfg.GrokModel,
		Messages:    messages,
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
		Tools:       e.tools.Definitions(),
		ToolChoice:  "auto",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.cfg.GrokAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.cfg.XAIAPIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().Int("status", resp.StatusCode).Bytes("body", raw).Msg("chat completion failed")
		return nil, fmt.Errorf("chat api returned %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("chat response had no choices")
	}
	return &parsed.Choices[0].Message, nil
}
