package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"blog-analyzer-backend/internal/blog"
	"blog-analyzer-backend/internal/provider"
	"blog-analyzer-backend/internal/report"
	"blog-analyzer-backend/internal/shared/telemetry"
)

const (
	defaultAPIURL  = "https://api.openai.com/v1/chat/completions"
	defaultTimeout = 120 * time.Second
)

// PostSource loads the readable content of a blog URL.
type PostSource interface {
	Fetch(ctx context.Context, rawURL string) (blog.Post, error)
}

// Client implements provider.Provider using OpenAI Chat Completions over the
// fetched post text.
type Client struct {
	apiKey     string
	model      string
	apiURL     string
	httpClient *http.Client
	posts      PostSource
}

// Option customizes a Client.
type Option func(*Client)

// WithAPIURL points the client at a compatible endpoint.
func WithAPIURL(u string) Option {
	return func(c *Client) {
		if strings.TrimSpace(u) != "" {
			c.apiURL = u
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, model string, posts PostSource, opts ...Option) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if posts == nil {
		return nil, fmt.Errorf("post source is required")
	}
	c := &Client{
		apiKey:     apiKey,
		model:      model,
		apiURL:     defaultAPIURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		posts:      posts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float32       `json:"temperature,omitempty"`
	ResponseFormat responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *chatUsage `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Analyze fetches the post, asks the model for a report and validates it.
// One repair round trip is attempted when the first answer is rejected.
func (c *Client) Analyze(ctx context.Context, blogURL string) (report.Result, error) {
	post, err := c.posts.Fetch(ctx, blogURL)
	if err != nil {
		return report.Result{}, fmt.Errorf("fetch blog: %w", err)
	}

	raw, usage, err := c.complete(ctx, BuildPrompt(post))
	if err != nil {
		return report.Result{}, err
	}
	c.logUsage(blogURL, usage)

	res, decodeErr := decodeReport(raw, post.URL)
	if decodeErr == nil {
		return res, nil
	}

	raw, usage, err = c.complete(ctx, buildFixPrompt(post, raw, decodeErr))
	if err != nil {
		return report.Result{}, err
	}
	c.logUsage(blogURL, usage)
	return decodeReport(raw, post.URL)
}

// decodeReport parses the model output. Quotes without a usable link point at
// the post itself.
func decodeReport(raw []byte, postURL string) (report.Result, error) {
	var res report.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return report.Result{}, fmt.Errorf("report parse: %w", err)
	}
	for i := range res.Quotes {
		if !isAbsolute(res.Quotes[i].SourceLink) {
			res.Quotes[i].SourceLink = postURL
		}
	}
	res.PersonalityCode = strings.ToUpper(strings.TrimSpace(res.PersonalityCode))
	if err := res.Validate(); err != nil {
		return report.Result{}, fmt.Errorf("report invalid: %w", err)
	}
	return res, nil
}

func (c *Client) complete(ctx context.Context, messages []Message) ([]byte, *chatUsage, error) {
	reqMessages := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		reqMessages = append(reqMessages, chatMessage{Role: m.Role, Content: m.Content})
	}
	reqBody := chatRequest{
		Model:          c.model,
		Messages:       reqMessages,
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	if !isGPT5(c.model) {
		temp := float32(0)
		reqBody.Temperature = &temp
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, nil, fmt.Errorf("openai request timeout: %w", err)
		}
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, nil, fmt.Errorf("openai http status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, nil, fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return nil, nil, fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, fmt.Errorf("openai http status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return nil, nil, fmt.Errorf("openai response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return nil, nil, fmt.Errorf("openai response empty content")
	}
	return []byte(content), parsed.Usage, nil
}

func (c *Client) logUsage(blogURL string, usage *chatUsage) {
	fields := map[string]any{
		"model":    c.model,
		"blog_url": blogURL,
	}
	if usage != nil {
		fields["prompt_tokens"] = usage.PromptTokens
		fields["completion_tokens"] = usage.CompletionTokens
		fields["total_tokens"] = usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

func isAbsolute(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	return err == nil && u.IsAbs() && u.Host != ""
}

var _ provider.Provider = (*Client)(nil)
