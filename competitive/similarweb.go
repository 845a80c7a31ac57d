package competitive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/use-agent/siteintel/config"
)

// TrafficClient estimates monthly visit volume through the SimilarWeb
// total-traffic endpoint. Every failure mode degrades to a reason
// string; the caller never sees an error.
type TrafficClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewTrafficClient returns a client, or nil when no API key is
// configured. Callers treat a nil client as "enrichment disabled".
func NewTrafficClient(cfg config.TrafficConfig) *TrafficClient {
	if cfg.APIKey == "" {
		return nil
	}
	return &TrafficClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type visitsResponse struct {
	Visits []struct {
		Date   string  `json:"date"`
		Visits float64 `json:"visits"`
	} `json:"visits"`
}

// EstimateMonthly returns the average monthly visits for the page's
// domain as a display string ("123K/month"), plus the source label. On
// any failure the estimate is nil and the source explains why.
func (c *TrafficClient) EstimateMonthly(ctx context.Context, pageURL string) (*string, string) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return nil, "Unavailable: could not derive domain from URL"
	}
	domain := strings.TrimPrefix(u.Hostname(), "www.")

	endpoint := fmt.Sprintf("%s/v1/website/%s/total-traffic-and-engagement/visits", c.baseURL, domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Sprintf("SimilarWeb API error: %v", err)
	}
	q := req.URL.Query()
	q.Set("api_key", c.apiKey)
	q.Set("start_date", "2024-01")
	q.Set("end_date", "2024-12")
	q.Set("granularity", "monthly")
	req.URL.RawQuery = q.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Warn("traffic lookup failed", "domain", domain, "error", err)
		return nil, fmt.Sprintf("SimilarWeb API error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("traffic lookup rejected", "domain", domain, "status", resp.StatusCode)
		return nil, fmt.Sprintf("SimilarWeb API error: status %d", resp.StatusCode)
	}

	var body visitsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Sprintf("SimilarWeb API error: %v", err)
	}
	if len(body.Visits) == 0 {
		return nil, "SimilarWeb API: no traffic data for domain"
	}

	var sum float64
	for _, v := range body.Visits {
		sum += v.Visits
	}
	avg := sum / float64(len(body.Visits))
	estimate := fmt.Sprintf("%dK/month", int(avg/1000))
	return &estimate, "SimilarWeb API"
}
