// Package aicheck asks Gemini whether uploaded evidence plausibly shows the
// task being done.
package aicheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/dukerupert/happyloop/internal/config"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("ai check not configured")

const prompt = `You review photo evidence that a child completed a household task.
Answer on one line starting with YES or NO, then a colon and a short reason.
Answer YES only if the image plausibly shows the task done.`

// Verdict is the model's judgement on one piece of evidence.
type Verdict struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Checker struct {
	models  generator
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// New builds a Checker. Without an API key the Checker is disabled and Check
// returns ErrNotConfigured.
func New(ctx context.Context, cfg config.Gemini, logger *slog.Logger) (*Checker, error) {
	c := &Checker{
		model:   cfg.Model,
		timeout: 20 * time.Second,
		logger:  logger.With("component", "aicheck"),
	}
	if cfg.APIKey == "" {
		return c, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	c.models = client.Models
	return c, nil
}

func (c *Checker) Enabled() bool {
	return c.models != nil
}

// Check sends the image with the task name and description and parses the
// model's answer.
func (c *Checker) Check(ctx context.Context, taskName, taskDescription string, image []byte, mimeType string) (*Verdict, error) {
	if c.models == nil {
		return nil, ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromText(fmt.Sprintf("Task: %s\nDescription: %s", taskName, taskDescription)),
		genai.NewPartFromBytes(image, mimeType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	temp := float32(0)

	start := time.Now()
	res, err := c.models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature: &temp,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	text := res.Text()
	v, err := ParseVerdict(text)
	if err != nil {
		c.logger.Warn("unparseable verdict", "task", taskName, "text", truncate(text, 80))
		return nil, err
	}
	c.logger.Debug("evidence checked", "task", taskName, "valid", v.Valid, "ms", time.Since(start).Milliseconds())
	return v, nil
}

// ParseVerdict reads a "YES: reason" or "NO: reason" answer.
func ParseVerdict(text string) (*Verdict, error) {
	line := strings.TrimSpace(text)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	word, reason, _ := strings.Cut(line, ":")
	word = strings.ToUpper(strings.Trim(strings.TrimSpace(word), "*.! "))

	var v Verdict
	switch word {
	case "YES":
		v.Valid = true
	case "NO":
	default:
		return nil, fmt.Errorf("parse verdict %q: want YES or NO", truncate(line, 40))
	}
	v.Reason = strings.TrimSpace(reason)
	return &v, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
