package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"blog-analyzer-backend/internal/provider"
	"blog-analyzer-backend/internal/report"
)

const (
	analyzePath     = "/api/analyze"
	maxResponseSize = 1 << 20
)

// ErrAnalysisFailed is returned for any non-2xx response.
var ErrAnalysisFailed = errors.New("analysis failed")

// Client calls a remote analysis backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Client for baseURL. A nil httpClient gets a 60s
// timeout.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("ANALYZE_API_URL is required for the http provider")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}, nil
}

type analyzeRequest struct {
	BlogURL string `json:"blogUrl"`
}

// Analyze implements provider.Provider.
func (c *Client) Analyze(ctx context.Context, blogURL string) (report.Result, error) {
	payload, err := json.Marshal(analyzeRequest{BlogURL: blogURL})
	if err != nil {
		return report.Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, bytes.NewReader(payload))
	if err != nil {
		return report.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return report.Result{}, fmt.Errorf("%w: %v", provider.ErrTimeout, err)
		}
		return report.Result{}, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return report.Result{}, fmt.Errorf("%w: read body: %v", ErrAnalysisFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return report.Result{}, fmt.Errorf("%w: http status %d", ErrAnalysisFailed, resp.StatusCode)
	}
	return report.Decode(body)
}

var _ provider.Provider = (*Client)(nil)
