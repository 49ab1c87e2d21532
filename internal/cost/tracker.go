package cost

import (
	"strconv"
	"strings"
)

// Header is the response header some providers use to report call cost in USD.
const Header = "x-openrouter-cost"

// Usage holds token counts from an API response.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// ModelPricing holds per-token pricing for a model (in USD per token).
type ModelPricing struct {
	InputPerToken  float64
	OutputPerToken float64
}

// defaultPricing provides fallback pricing for common models.
var defaultPricing = map[string]ModelPricing{
	"gemini-2.5-flash":      {InputPerToken: 0.30 / 1_000_000, OutputPerToken: 2.50 / 1_000_000},
	"gemini-2.5-flash-lite": {InputPerToken: 0.10 / 1_000_000, OutputPerToken: 0.40 / 1_000_000},
	"gemini-2.5-pro":        {InputPerToken: 1.25 / 1_000_000, OutputPerToken: 10.0 / 1_000_000},
	"gemini-2.0-flash":      {InputPerToken: 0.10 / 1_000_000, OutputPerToken: 0.40 / 1_000_000},
}

// FromHeader extracts cost from the provider cost header value.
// Returns 0, false if the header is absent or unparseable.
func FromHeader(headerValue string) (float64, bool) {
	if headerValue == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(headerValue), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// FromUsage calculates cost from token usage and model pricing.
// Provider-prefixed names ("google/gemini-2.5-flash", "models/gemini-2.5-flash") match too.
func FromUsage(model string, usage Usage) float64 {
	pricing, ok := defaultPricing[model]
	if !ok {
		if i := strings.LastIndex(model, "/"); i >= 0 {
			pricing, ok = defaultPricing[model[i+1:]]
		}
	}
	if !ok {
		return 0
	}
	return float64(usage.PromptTokens)*pricing.InputPerToken +
		float64(usage.CompletionTokens)*pricing.OutputPerToken
}
