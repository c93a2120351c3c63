package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmcgrail/riskindex-engine/pkg/config"
)

// RenderClient fetches commentary pages through a hosted rendering API.
// Some publishers only load their commentary with JavaScript; the API
// renders the page server-side and returns the final HTML.
type RenderClient struct {
	httpClient *http.Client
	username   string
	password   string
	endpoint   string
}

type renderRequest struct {
	Source    string `json:"source"`
	URL       string `json:"url"`
	UserAgent string `json:"user_agent,omitempty"`
	Render    string `json:"render,omitempty"`
}

type renderResponse struct {
	Results []renderResult `json:"results"`
}

type renderResult struct {
	Content    string `json:"content"`
	StatusCode int    `json:"status_code"`
	URL        string `json:"url"`
}

// NewRenderClient creates a client for the configured rendering API
func NewRenderClient(cfg *config.Config) *RenderClient {
	return &RenderClient{
		httpClient: &http.Client{
			Timeout: 180 * time.Second, // Rendered pages take much longer than direct fetches
		},
		username: cfg.RenderAPIUsername,
		password: cfg.RenderAPIPassword,
		endpoint: cfg.RenderAPIEndpoint,
	}
}

// Get fetches a page through the rendering API and returns the parsed document
func (c *RenderClient) Get(ctx context.Context, url string) (*goquery.Document, error) {
	requestBody, err := json.Marshal(renderRequest{
		Source:    "universal",
		URL:       url,
		UserAgent: "Mozilla/5.0 (compatible; RiskIndexBot/1.0)",
		Render:    "html",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(respBody))
	}

	var rendered renderResponse
	if err := json.Unmarshal(respBody, &rendered); err != nil {
		return nil, fmt.Errorf("failed to parse rendering API response: %w", err)
	}

	if len(rendered.Results) == 0 {
		return nil, fmt.Errorf("no results returned from rendering API")
	}

	result := rendered.Results[0]
	if result.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("target page returned status code: %d", result.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(result.Content)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendered HTML: %w", err)
	}

	return doc, nil
}

// Close cleans up client resources
func (c *RenderClient) Close() {
	c.httpClient.CloseIdleConnections()
}
