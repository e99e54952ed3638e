package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/genai"
)

const (
	claudeBaseURL = "https://api.anthropic.com"
	claudePath    = "/v1/messages"
	openaiBaseURL = "https://api.openai.com"
	openaiPath    = "/v1/chat/completions"
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any, headers map[string]string, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// --- Claude ---

type claudeProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type claudeRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *claudeProvider) Summarize(ctx context.Context, messages []string) (Summary, error) {
	var cr claudeResponse
	err := postJSON(ctx, c.client, c.baseURL+claudePath, claudeRequest{
		Model:     c.model,
		MaxTokens: 400,
		Messages:  []message{{Role: "user", Content: buildPrompt(messages)}},
	}, map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	}, &cr)
	if err != nil {
		return Summary{}, fmt.Errorf("claude API: %w", err)
	}
	if len(cr.Content) == 0 {
		return Summary{}, fmt.Errorf("empty claude response")
	}
	return parseSummary(cr.Content[0].Text), nil
}

// --- OpenAI ---

type openaiProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type openaiRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type openaiResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

func (o *openaiProvider) Summarize(ctx context.Context, messages []string) (Summary, error) {
	var or openaiResponse
	err := postJSON(ctx, o.client, o.baseURL+openaiPath, openaiRequest{
		Model:    o.model,
		Messages: []message{{Role: "user", Content: buildPrompt(messages)}},
	}, map[string]string{"Authorization": "Bearer " + o.apiKey}, &or)
	if err != nil {
		return Summary{}, fmt.Errorf("openai API: %w", err)
	}
	if len(or.Choices) == 0 {
		return Summary{}, fmt.Errorf("empty openai response")
	}
	return parseSummary(or.Choices[0].Message.Content), nil
}

// --- Gemini ---

type geminiProvider struct {
	client *genai.Client
	model  string
}

func newGeminiProvider(ctx context.Context, apiKey, model, baseURL string) (*geminiProvider, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &geminiProvider{client: client, model: model}, nil
}

func (g *geminiProvider) Summarize(ctx context.Context, messages []string) (Summary, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(buildPrompt(messages)), nil)
	if err != nil {
		return Summary{}, fmt.Errorf("gemini API: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return Summary{}, fmt.Errorf("empty gemini response")
	}
	return parseSummary(text), nil
}
