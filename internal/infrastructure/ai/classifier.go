package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/finflow/backend/internal/domain/crm"
)

const (
	defaultMaxRetries   = 3
	defaultInitialDelay = 1 * time.Second
)

// Classifier qualifies sales leads through an external chat-completion
// API. Each call is retried with exponential backoff; a response that is
// not valid JSON counts as a failure like a network error does.
type Classifier struct {
	baseURL      string
	apiKey       string
	model        string
	client       *http.Client
	logger       *zap.Logger
	maxRetries   int
	initialDelay time.Duration
}

// Config holds classifier settings
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// NewClassifier creates a Classifier
func NewClassifier(cfg Config, logger *zap.Logger) *Classifier {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Classifier{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		client:       &http.Client{Timeout: timeout},
		logger:       logger,
		maxRetries:   maxRetries,
		initialDelay: defaultInitialDelay,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const systemPrompt = `You qualify inbound sales leads for a Swiss IT services company.
Reply with a JSON object: {"tier":"hot"|"warm"|"cold","score":0-100,"rationale":"..."}.`

// Classify qualifies a lead, retrying up to the configured attempt count
// with doubling backoff starting at one second. The error after the last
// attempt is returned to the caller; recording the failure is the
// caller's responsibility so that exactly one ledger entry is written.
func (c *Classifier) Classify(ctx context.Context, lead *crm.Lead) (crm.Classification, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: leadPrompt(lead)},
		},
	})
	if err != nil {
		return crm.Classification{}, fmt.Errorf("marshal classification request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * c.initialDelay
			c.logger.Warn("lead classification retry",
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return crm.Classification{}, ctx.Err()
			}
		}

		result, err := c.attempt(ctx, payload)
		if err != nil {
			lastErr = err
			continue
		}
		return result, nil
	}

	return crm.Classification{}, fmt.Errorf("lead classification failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Classifier) attempt(ctx context.Context, payload []byte) (crm.Classification, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return crm.Classification{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return crm.Classification{}, fmt.Errorf("classification request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return crm.Classification{}, fmt.Errorf("read classification response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return crm.Classification{}, fmt.Errorf("classification API returned status %d: %s", resp.StatusCode, body)
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return crm.Classification{}, fmt.Errorf("decode classification envelope: %w", err)
	}
	if len(cr.Choices) == 0 {
		return crm.Classification{}, fmt.Errorf("classification response has no choices")
	}

	return ParseClassification(cr.Choices[0].Message.Content)
}

// ParseClassification extracts a structured result from model output. A
// direct parse is tried first, then the first {...} block in the text, so
// incidental prose around the JSON does not fail the call.
func ParseClassification(content string) (crm.Classification, error) {
	var result crm.Classification
	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return validate(result)
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return crm.Classification{}, fmt.Errorf("no JSON object in classification output")
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &result); err != nil {
		return crm.Classification{}, fmt.Errorf("malformed classification JSON: %w", err)
	}
	return validate(result)
}

func validate(result crm.Classification) (crm.Classification, error) {
	if !result.Tier.IsValid() {
		return crm.Classification{}, fmt.Errorf("unknown lead tier %q", result.Tier)
	}
	return result, nil
}

func leadPrompt(lead *crm.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", lead.Name)
	fmt.Fprintf(&b, "Email: %s\n", lead.Email)
	if lead.CompanyName != "" {
		fmt.Fprintf(&b, "Company: %s\n", lead.CompanyName)
	}
	fmt.Fprintf(&b, "Message: %s\n", lead.Message)
	return b.String()
}
