package sentiment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/watercord/NigeriaGovhub-sub001/internal/config"
)

// ErrNotConfigured is returned by New when no provider or key is set.
var ErrNotConfigured = errors.New("sentiment summaries not configured")

// Summary is the aggregate reading of a batch of feedback messages.
type Summary struct {
	Sentiment string   `json:"sentiment"`
	Summary   string   `json:"summary"`
	Themes    []string `json:"themes"`
}

// Summarizer condenses feedback messages into a single Summary.
type Summarizer interface {
	Summarize(ctx context.Context, messages []string) (Summary, error)
}

const (
	maxThemes    = 4
	maxMessages  = 50
	maxThemeLen  = 60
	defaultLabel = "neutral"
)

var labels = map[string]bool{"positive": true, "neutral": true, "negative": true, "mixed": true}

// New builds the provider named in cfg.
func New(ctx context.Context, cfg config.AIConfig) (Summarizer, error) {
	if cfg.Provider == "" || cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	client := &http.Client{Timeout: 30 * time.Second}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	pick := func(def string) string {
		if baseURL == "" {
			return def
		}
		return baseURL
	}

	switch cfg.Provider {
	case "claude":
		model := cfg.Model
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		return &claudeProvider{apiKey: cfg.APIKey, model: model, client: client, baseURL: pick(claudeBaseURL)}, nil
	case "openai":
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return &openaiProvider{apiKey: cfg.APIKey, model: model, client: client, baseURL: pick(openaiBaseURL)}, nil
	case "gemini":
		return newGeminiProvider(ctx, cfg.APIKey, cfg.Model, baseURL)
	default:
		return nil, fmt.Errorf("unknown AI provider: %q (valid: claude, openai, gemini)", cfg.Provider)
	}
}

const summarizePrompt = `You review citizen feedback submitted to a government information portal.
Classify the overall sentiment of the %d messages below as one of: positive, neutral, negative, mixed.
Then summarize them in one sentence (max 200 chars) and list up to 4 recurring themes (each under 60 chars).

Format your response EXACTLY like this:
SENTIMENT: <label>
SUMMARY: <one sentence>
THEMES: theme one, theme two

Messages:
%s`

func buildPrompt(messages []string) string {
	if len(messages) > maxMessages {
		messages = messages[:maxMessages]
	}
	var sb strings.Builder
	for _, m := range messages {
		sb.WriteString("- ")
		sb.WriteString(strings.Join(strings.Fields(m), " "))
		sb.WriteString("\n")
	}
	return fmt.Sprintf(summarizePrompt, len(messages), sb.String())
}

// parseSummary reads the SENTIMENT/SUMMARY/THEMES lines. Unknown or missing
// labels fall back to neutral.
func parseSummary(text string) Summary {
	s := Summary{Sentiment: defaultLabel, Themes: []string{}}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "SENTIMENT":
			if l := strings.ToLower(strings.Trim(val, ".* ")); labels[l] {
				s.Sentiment = l
			}
		case "SUMMARY":
			s.Summary = val
		case "THEMES":
			for _, t := range strings.Split(val, ",") {
				t = strings.TrimSpace(t)
				if t == "" {
					continue
				}
				if r := []rune(t); len(r) > maxThemeLen {
					t = strings.TrimSpace(string(r[:maxThemeLen]))
				}
				s.Themes = append(s.Themes, t)
				if len(s.Themes) == maxThemes {
					break
				}
			}
		}
	}
	return s
}
