package capture

import (
	"context"

	"github.com/use-agent/siteintel/models"
)

// Strategy is one way of turning a URL into a Capture. Strategies are
// tried strictly in order by the Provider until one succeeds; they never
// race each other.
type Strategy interface {
	// Name returns the strategy identifier, recorded as the capture
	// method tag (e.g. "browser", "http").
	Name() string

	// Capture fetches the page and returns a populated document. A
	// non-2xx status is not an error: bot-protection responses must
	// surface as captures so the pipeline can classify them.
	Capture(ctx context.Context, rawURL string) (*models.Capture, error)
}
