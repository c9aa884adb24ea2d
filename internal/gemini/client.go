// Package gemini implements the reply generator on top of Google's Gemini
// API. Generation never fails past this boundary: every outcome is either
// model text or one of three fixed fallback strings.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/kvasudev/sahayak/internal/config"
)

// Responder produces a displayable reply for an incoming message body.
type Responder interface {
	Generate(ctx context.Context, body string) string
}

// generateFunc issues one generation request. Swappable in tests.
type generateFunc func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error)

// Client is the Gemini-backed Responder. When no API key is configured the
// client is created without a connection and always answers with the
// unavailability fallback.
type Client struct {
	log         *slog.Logger
	msgs        config.MessagesConfig
	maxAttempts int
	baseDelay   time.Duration

	call  generateFunc
	sleep func(ctx context.Context, d time.Duration)
}

// NewClient creates a Gemini client. An empty API key is not an error: the
// returned client degrades to the fixed unavailability fallback without ever
// calling the API.
func NewClient(ctx context.Context, cfg config.GeminiConfig, msgs config.MessagesConfig, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	logger := log.With("component", "gemini_client")

	c := &Client{
		log:         logger,
		msgs:        msgs,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		sleep:       sleepWithContext,
	}

	if cfg.APIKey == "" {
		logger.Warn("No Gemini API key configured, replies will use the unavailability fallback")
		return c, nil
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	contentConfig := &genai.GenerateContentConfig{
		Temperature: &cfg.Temperature,
	}

	model := cfg.Model
	c.call = func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
		contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
		return gi.Models.GenerateContent(ctx, model, contents, contentConfig)
	}

	logger.Info("Gemini client initialized successfully", "model", cfg.Model)
	return c, nil
}

// Generate builds a single-turn prompt from the message body and calls the
// API with bounded exponential-backoff retry. Transport and API errors are
// retried; a well-formed response without candidate text is an empty success
// and answered with the "could not understand" fallback immediately.
func (c *Client) Generate(ctx context.Context, body string) string {
	if c.call == nil {
		return c.msgs.ReplyUnavailable
	}

	prompt := fmt.Sprintf(replyPromptTemplate, body)

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.call(ctx, prompt)
		if err == nil {
			text := firstCandidateText(resp)
			if text == "" {
				c.log.WarnContext(ctx, "Gemini response carried no candidate text, using fallback")
				return c.msgs.ReplyNotUnderstood
			}
			return text
		}

		c.log.WarnContext(ctx, "Gemini API call failed",
			"attempt", attempt, "max_attempts", c.maxAttempts, "error", err)

		if attempt < c.maxAttempts {
			c.sleep(ctx, BackoffDelay(c.baseDelay, attempt))
		}
	}

	c.log.ErrorContext(ctx, "Gemini API call failed after all attempts, using fallback",
		"max_attempts", c.maxAttempts)
	return c.msgs.ReplyTechnicalIssue
}

// BackoffDelay returns the delay after the given failed attempt (1-based):
// baseDelay * 2^(attempt-1). Delays are strictly increasing with the attempt
// number.
func BackoffDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base << (attempt - 1)
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// firstCandidateText extracts the first candidate's text from a response, or
// "" when the response carries no usable content.
func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return ""
	}
	return strings.TrimSpace(cand.Content.Parts[0].Text)
}
