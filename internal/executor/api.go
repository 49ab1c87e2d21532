package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/futureCreator/docgen/internal/config"
	"github.com/futureCreator/docgen/internal/cost"
	vlog "github.com/futureCreator/docgen/internal/log"
)

// APIExecutor calls an OpenAI-compatible chat completions endpoint.
type APIExecutor struct {
	Config     *config.Config
	APIKey     string // overrides Config.APIKey() when set
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (e *APIExecutor) Execute(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = e.Config.Model
	}

	payload := chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: req.Prompt}},
	}
	if req.JSON {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := strings.TrimRight(e.Config.Provider.Endpoint, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	apiKey := e.APIKey
	if apiKey == "" {
		apiKey = e.Config.APIKey()
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	client := e.HTTPClient
	if client == nil {
		timeout := 300 * time.Second
		if e.Config.Provider.APITimeout != "" {
			if d, err := time.ParseDuration(e.Config.Provider.APITimeout); err == nil {
				timeout = d
			}
		}
		client = &http.Client{Timeout: timeout}
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("API request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("empty choices in API response")
	}

	output := chatResp.Choices[0].Message.Content

	// Cost extraction: header > usage > 0+warn
	var apiCost float64
	if c, ok := cost.FromHeader(resp.Header.Get(cost.Header)); ok {
		apiCost = c
	} else if chatResp.Usage.PromptTokens > 0 {
		apiCost = cost.FromUsage(model, cost.Usage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
		})
	} else {
		vlog.OrDiscard(e.Logger).Warn("could not determine cost for call", "model", model)
	}

	return &Result{
		Output:    output,
		Cost:      apiCost,
		Duration:  time.Since(start),
		TokensIn:  chatResp.Usage.PromptTokens,
		TokensOut: chatResp.Usage.CompletionTokens,
	}, nil
}
