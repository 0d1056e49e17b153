package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// openAIClient talks to any OpenAI-compatible chat-completions endpoint
// (Groq, GLM, OpenAI proper). Calls go through a rate limiter and a circuit
// breaker so a struggling free-tier API degrades to the fallback path fast
// instead of stalling the analysis job.
type openAIClient struct {
	cfg     Config
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

func newOpenAIClient(cfg Config, apiKey string) *openAIClient {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 20
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	settings := gobreaker.Settings{Name: "synth-" + cfg.Provider}
	settings.Interval = 60 * time.Second
	settings.Timeout = 60 * time.Second
	settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 3
	}

	return &openAIClient{
		cfg:     cfg,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (c *openAIClient) Name() string { return c.cfg.Provider }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	MaxTokens      int           `json:"max_tokens"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *openAIClient) GenerateJSON(ctx context.Context, prompt string, opts Options, out any) error {
	prompt += "\n\nIMPORTANT: Respond with ONLY valid JSON. No markdown code blocks, no explanations, just the raw JSON object."

	text, err := c.complete(ctx, prompt, opts)
	if err != nil {
		return err
	}
	payload, err := extractJSON(text)
	if err != nil {
		return fmt.Errorf("%s response not parseable as JSON: %w", c.cfg.Provider, err)
	}
	return json.Unmarshal(payload, out)
}

func (c *openAIClient) complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	temperature := opts.Temperature
	if temperature == 0 {
		temperature = c.cfg.Temperature
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}

	req := chatRequest{
		Model:       c.cfg.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		ResponseFormat: &struct {
			Type string `json:"type"`
		}{Type: "json_object"},
	}
	if opts.SystemPrompt != "" {
		req.Messages = append(req.Messages, chatMessage{Role: "system", Content: opts.SystemPrompt})
	}
	req.Messages = append(req.Messages, chatMessage{Role: "user", Content: prompt})

	result, err := c.breaker.Execute(func() (any, error) {
		return c.post(ctx, req)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *openAIClient) post(ctx context.Context, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", c.cfg.Provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s API error %d: %s", c.cfg.Provider, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode %s response: %w", c.cfg.Provider, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", c.cfg.Provider)
	}
	return parsed.Choices[0].Message.Content, nil
}

var fenceRe = regexp.MustCompile("^```(?:json)?\\s*\\n?|\\n?```\\s*$")

// extractJSON tolerates models that wrap JSON in markdown fences or prose.
func extractJSON(text string) ([]byte, error) {
	cleaned := strings.TrimSpace(text)
	if json.Valid([]byte(cleaned)) {
		return []byte(cleaned), nil
	}

	cleaned = fenceRe.ReplaceAllString(cleaned, "")
	if json.Valid([]byte(cleaned)) {
		return []byte(cleaned), nil
	}

	start := strings.IndexAny(cleaned, "{[")
	if start >= 0 {
		var end int
		if cleaned[start] == '{' {
			end = strings.LastIndex(cleaned, "}")
		} else {
			end = strings.LastIndex(cleaned, "]")
		}
		if end > start {
			candidate := cleaned[start : end+1]
			if json.Valid([]byte(candidate)) {
				return []byte(candidate), nil
			}
		}
	}
	if len(cleaned) > 300 {
		cleaned = cleaned[:300]
	}
	return nil, fmt.Errorf("no JSON found in %q", cleaned)
}
