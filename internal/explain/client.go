package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"company-verify/internal/verify"
)

// Explainer produces narratives for verification reports. Narratives never
// change the score or verdict.
type Explainer interface {
	Enabled() bool
	Explain(ctx context.Context, report verify.Report) (Explanation, error)
}

// Config holds OpenAI configuration parameters.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	HTTPClient  *http.Client
}

// Client implements the Explainer interface against the OpenAI API.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

var ErrDisabled = errors.New("explainer disabled")

// NewClient constructs a Client if the supplied configuration is valid.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrDisabled
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = "gpt-4.1-mini"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	temp := cfg.Temperature
	if temp <= 0 {
		temp = 0.2
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 400
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient:  httpClient,
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       cfg.Model,
		baseURL:     cfg.BaseURL,
		temperature: temp,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Enabled reports whether the client can make outbound calls.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Explain requests a short analyst narrative for a finished report.
func (c *Client) Explain(ctx context.Context, report verify.Report) (Explanation, error) {
	if c == nil || !c.Enabled() {
		return Explanation{}, ErrDisabled
	}

	body, err := json.Marshal(c.buildPayload(report))
	if err != nil {
		return Explanation{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Explanation{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Explanation{}, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return Explanation{}, fmt.Errorf("openai status %d: %v", resp.StatusCode, apiErr)
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Explanation{}, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return Explanation{}, errors.New("openai empty response")
	}

	content := normalizeJSONBlock(decoded.Choices[0].Message.Content)
	if content == "" {
		return Explanation{}, errors.New("openai empty narrative")
	}

	var out Explanation
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return Explanation{}, fmt.Errorf("parse ai response: %w", err)
	}
	out.Narrative = strings.TrimSpace(out.Narrative)
	if out.Narrative == "" {
		return Explanation{}, errors.New("ai narrative missing")
	}
	out.Source = sourceOpenAI
	return out, nil
}

func normalizeJSONBlock(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.IndexRune(trimmed, '\n'); idx >= 0 {
			trimmed = trimmed[idx+1:]
		}
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	trimmed = strings.TrimSpace(trimmed)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end >= start {
		return strings.TrimSpace(trimmed[start : end+1])
	}
	return trimmed
}

func (c *Client) buildPayload(report verify.Report) map[string]any {
	messages := []map[string]string{
		{
			"role":    "system",
			"content": "You are a KYC analyst reviewing Indian companies. Reply with a strict JSON object containing keys narrative and highlights. narrative is at most three sentences explaining the verdict from the supplied checks. highlights is a list of short phrases naming the decisive checks. Never change or dispute the verdict or score. Emit nothing outside the JSON object.",
		},
		{
			"role":    "user",
			"content": buildUserPrompt(report),
		},
	}
	payload := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": c.temperature,
	}
	if c.maxTokens > 0 {
		payload["max_tokens"] = c.maxTokens
	}
	return payload
}

func buildUserPrompt(report verify.Report) string {
	builder := &strings.Builder{}
	fmt.Fprintf(builder, "Company: %s\n", report.CompanyName)
	fmt.Fprintf(builder, "Verdict: %s\n", report.Verdict.Label())
	fmt.Fprintf(builder, "Composite score: %.1f / 100\n", report.CompositeScore)
	builder.WriteString("Checks:\n")
	for _, rec := range report.Checks {
		weight := report.Weights[rec.Source]
		if rec.Failed() {
			fmt.Fprintf(builder, "- %s (weight %.2f): unavailable, %s\n", rec.Source.Label(), weight, rec.Error)
			continue
		}
		details, _ := json.Marshal(rec.Details)
		fmt.Fprintf(builder, "- %s (weight %.2f): confidence %.0f, details %s\n", rec.Source.Label(), weight, rec.Confidence, details)
	}
	builder.WriteString("Unavailable checks count as zero confidence but keep their weight.\n")
	return builder.String()
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
