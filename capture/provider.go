package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/use-agent/siteintel/models"
)

// Provider acquires captures by trying its strategies strictly in order
// until one returns a document. The order is fixed at construction
// (preferred renderer first, plain fetch second); there is no concurrent
// racing between strategies.
type Provider struct {
	strategies       []Strategy
	requestTimeout   time.Duration
	sideFetchTimeout time.Duration
	sideClient       *http.Client
}

// NewProvider creates a Provider over the given ordered strategies.
func NewProvider(strategies []Strategy, requestTimeout, sideFetchTimeout time.Duration) *Provider {
	return &Provider{
		strategies:       strategies,
		requestTimeout:   requestTimeout,
		sideFetchTimeout: sideFetchTimeout,
		sideClient:       &http.Client{},
	}
}

// Acquire fetches the URL with the first strategy that succeeds, then
// attaches robots.txt and sitemap.xml. When every strategy fails, the
// last error is returned wrapped as a capture failure.
func (p *Provider) Acquire(ctx context.Context, rawURL string) (*models.Capture, error) {
	var lastErr error
	for _, strat := range p.strategies {
		attemptCtx, cancel := context.WithTimeout(ctx, p.requestTimeout)
		doc, err := strat.Capture(attemptCtx, rawURL)
		cancel()

		if err != nil {
			slog.Warn("capture strategy failed",
				"strategy", strat.Name(),
				"url", rawURL,
				"error", err,
			)
			lastErr = err
			continue
		}

		slog.Info("capture acquired",
			"strategy", strat.Name(),
			"url", rawURL,
			"status", doc.StatusCode,
		)
		p.attachSideFetches(ctx, doc)
		return doc, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no capture strategies configured")
	}
	return nil, models.NewAnalysisError(
		models.ErrCodeCaptureFailed,
		fmt.Sprintf("all capture strategies failed for %s", rawURL),
		lastErr,
	)
}

// attachSideFetches fetches /robots.txt and /sitemap.xml from the site
// root. Failures leave the fields nil; the audit treats nil as absent.
func (p *Provider) attachSideFetches(ctx context.Context, doc *models.Capture) {
	u, err := url.Parse(doc.FinalURL)
	if err != nil || u.Host == "" {
		return
	}
	base := u.Scheme + "://" + u.Host

	doc.Robots = p.fetchText(ctx, base+"/robots.txt")
	doc.Sitemap = p.fetchText(ctx, base+"/sitemap.xml")
}

// fetchText retrieves a small text resource, returning nil on any
// failure or non-200 status.
func (p *Provider) fetchText(ctx context.Context, rawURL string) *string {
	fetchCtx, cancel := context.WithTimeout(ctx, p.sideFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", "SiteIntelBot/1.0")

	resp, err := p.sideClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	const maxBody = 1 << 20
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil
	}
	text := string(body)
	return &text
}
