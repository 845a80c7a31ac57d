// Package pipeline orchestrates one analysis run: capture acquisition,
// the three independent analyzers, narrative augmentation, and result
// persistence. Stages run strictly in sequence; the only blocking I/O
// boundaries are the capture and the narrative call.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/use-agent/siteintel/capture"
	"github.com/use-agent/siteintel/competitive"
	"github.com/use-agent/siteintel/models"
	"github.com/use-agent/siteintel/narrative"
	"github.com/use-agent/siteintel/seoaudit"
	"github.com/use-agent/siteintel/techdetect"
)

// Acquirer fetches a fresh capture on a cache miss.
type Acquirer interface {
	Acquire(ctx context.Context, rawURL string) (*models.Capture, error)
}

// Narrator generates the optional narrative for the analyzed URL. A nil
// Narrator skips the stage entirely.
type Narrator interface {
	Generate(ctx context.Context, pageURL string, seo *models.SeoReport, tech *models.TechProfile, comp *models.CompetitiveProfile) (*narrative.Narrative, narrative.Outcome, error)
}

// Notifier is told about finished runs. Delivery happens out-of-band;
// the pipeline does not wait for it.
type Notifier interface {
	NotifyAsync(result *models.AnalysisResult)
}

// Pipeline wires the stages together. Every collaborator except the
// store and acquirer is optional.
type Pipeline struct {
	store    capture.Store
	acquirer Acquirer
	detector *competitive.Detector
	narrator Narrator
	results  *ResultStore
	notifier Notifier
}

// New creates a Pipeline. detector must be non-nil; narrator, results
// and notifier may each be nil to disable that stage.
func New(store capture.Store, acquirer Acquirer, detector *competitive.Detector, narrator Narrator, results *ResultStore, notifier Notifier) *Pipeline {
	return &Pipeline{
		store:    store,
		acquirer: acquirer,
		detector: detector,
		narrator: narrator,
		results:  results,
		notifier: notifier,
	}
}

// Run executes one full analysis. A blocked site is a successful run
// with status "blocked"; only invalid input and capture failures return
// an error, and even then the returned result records the failure.
func (p *Pipeline) Run(ctx context.Context, rawURL string) (*models.AnalysisResult, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, models.NewAnalysisError(models.ErrCodeInvalidInput, err.Error(), nil)
	}

	result := &models.AnalysisResult{
		ID:                uuid.NewString()[:8],
		URL:               rawURL,
		AnalyzedAt:        time.Now().UTC(),
		AIRecommendations: []models.Recommendation{},
	}

	doc, ok := p.store.Get(rawURL)
	if ok {
		slog.Info("capture cache hit", "url", rawURL, "id", result.ID)
	} else {
		var err error
		doc, err = p.acquirer.Acquire(ctx, rawURL)
		if err != nil {
			result.Status = models.StatusError
			result.Error = err.Error()
			p.finish(result)
			return result, err
		}
		if err := p.store.Put(rawURL, doc); err != nil {
			slog.Warn("capture store write failed", "url", rawURL, "error", err)
		}
	}

	// Bot protection terminates the run before any analyzer touches the
	// document.
	if doc.StatusCode == 403 || doc.StatusCode == 503 {
		result.Status = models.StatusBlocked
		result.Error = fmt.Sprintf("Site blocks automated access (HTTP %d)", doc.StatusCode)
		slog.Info("analysis blocked", "url", rawURL, "id", result.ID, "status", doc.StatusCode)
		p.finish(result)
		return result, nil
	}

	tech := techdetect.Detect(doc)
	seo := seoaudit.Audit(doc)
	comp := p.detector.Detect(ctx, doc)

	result.TechStack = &tech
	result.Seo = &seo
	result.Competitive = &comp
	result.Architecture = &models.Architecture{
		Type:    architectureType(&tech),
		Diagram: narrative.Diagram(&tech, &seo),
	}
	result.Status = models.StatusDone

	p.augment(ctx, result)
	p.finish(result)
	return result, nil
}

// augment runs the narrative stage. Failures degrade to null fields and
// a log line; they never change the run status.
func (p *Pipeline) augment(ctx context.Context, result *models.AnalysisResult) {
	if p.narrator == nil {
		return
	}
	n, outcome, err := p.narrator.Generate(ctx, result.URL, result.Seo, result.TechStack, result.Competitive)
	switch outcome {
	case narrative.OutcomeOK:
		result.AISummary = &n.Summary
		result.AIRecommendations = n.Recommendations
		result.CompetitiveSummary = &n.CompetitiveSummary
	case narrative.OutcomeCredentialMissing:
		slog.Info("narrative skipped: credential not set", "id", result.ID)
	default:
		slog.Warn("narrative degraded", "id", result.ID, "outcome", string(outcome), "error", err)
	}
}

// finish persists the result and fires the completion notification.
func (p *Pipeline) finish(result *models.AnalysisResult) {
	if p.results != nil {
		if err := p.results.Save(result); err != nil {
			slog.Warn("result persistence failed", "id", result.ID, "error", err)
		}
	}
	if p.notifier != nil {
		p.notifier.NotifyAsync(result)
	}
}

// architectureType infers the architecture label from the resolved
// framework, falling back to the CMS.
func architectureType(tech *models.TechProfile) string {
	switch tech.Framework {
	case "Next.js", "Nuxt.js":
		return "SSR/SSG Hybrid"
	case "Gatsby":
		return "SSG"
	case "React", "Vue.js", "Angular":
		return "SPA"
	}
	switch tech.CMS {
	case "WordPress", "Drupal":
		return "MPA"
	}
	return "Unknown"
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("url has no host")
	}
	return nil
}
