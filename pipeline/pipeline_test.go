package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/use-agent/siteintel/capture"
	"github.com/use-agent/siteintel/competitive"
	"github.com/use-agent/siteintel/models"
	"github.com/use-agent/siteintel/narrative"
)

// fakeAcquirer returns a canned capture, or fails the test when it must
// not be reached.
type fakeAcquirer struct {
	doc   *models.Capture
	err   error
	calls int
}

func (f *fakeAcquirer) Acquire(_ context.Context, rawURL string) (*models.Capture, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

type fakeNarrator struct {
	narrative *narrative.Narrative
	outcome   narrative.Outcome
	gotURL    string
}

func (f *fakeNarrator) Generate(_ context.Context, pageURL string, _ *models.SeoReport, _ *models.TechProfile, _ *models.CompetitiveProfile) (*narrative.Narrative, narrative.Outcome, error) {
	f.gotURL = pageURL
	return f.narrative, f.outcome, nil
}

func okCapture(rawURL string, status int) *models.Capture {
	return &models.Capture{
		URL:        rawURL,
		FinalURL:   rawURL + "/",
		StatusCode: status,
		HTML:       `<html><head><title>A Reasonable Title For The Test Fixture Page</title></head><body><script>window.__NEXT_DATA__={}</script><h1>Hi</h1><h2>Sub</h2></body></html>`,
	}
}

func newTestPipeline(acq Acquirer, narrator Narrator) *Pipeline {
	return New(capture.NewMemoryStore(), acq, competitive.NewDetector(nil), narrator, nil, nil)
}

func TestRun_Done(t *testing.T) {
	rawURL := "https://example.com"
	p := newTestPipeline(&fakeAcquirer{doc: okCapture(rawURL, 200)}, nil)

	result, err := p.Run(context.Background(), rawURL)
	if err != nil {
		t.Fatal(err)
	}

	if result.Status != models.StatusDone {
		t.Errorf("status = %q, want done", result.Status)
	}
	if len(result.ID) != 8 {
		t.Errorf("id = %q, want 8 characters", result.ID)
	}
	if result.Seo == nil || result.TechStack == nil || result.Competitive == nil {
		t.Fatal("all three profiles should be populated")
	}
	if result.TechStack.Framework != "Next.js" {
		t.Errorf("framework = %q", result.TechStack.Framework)
	}
	if result.Architecture == nil || result.Architecture.Type != "SSR/SSG Hybrid" {
		t.Fatalf("architecture = %+v", result.Architecture)
	}
	if !strings.HasPrefix(result.Architecture.Diagram, "graph TD") {
		t.Errorf("diagram = %q", result.Architecture.Diagram)
	}
	// No narrator configured: narrative fields stay null.
	if result.AISummary != nil || result.CompetitiveSummary != nil {
		t.Error("narrative fields should be nil without a narrator")
	}
}

func TestRun_Blocked503(t *testing.T) {
	rawURL := "https://blocked.example.com"
	p := newTestPipeline(&fakeAcquirer{doc: okCapture(rawURL, 503)}, nil)

	result, err := p.Run(context.Background(), rawURL)
	if err != nil {
		t.Fatal(err)
	}

	if result.Status != models.StatusBlocked {
		t.Errorf("status = %q, want blocked", result.Status)
	}
	if result.Seo != nil || result.TechStack != nil || result.Competitive != nil {
		t.Error("blocked runs must not populate any profile")
	}
	if !strings.Contains(result.Error, "503") {
		t.Errorf("error = %q, want the status code in the reason", result.Error)
	}
}

func TestRun_CacheHitSkipsAcquire(t *testing.T) {
	rawURL := "https://cached.example.com"
	store := capture.NewMemoryStore()
	if err := store.Put(rawURL, okCapture(rawURL, 200)); err != nil {
		t.Fatal(err)
	}

	acq := &fakeAcquirer{err: errors.New("must not be called")}
	p := New(store, acq, competitive.NewDetector(nil), nil, nil, nil)

	result, err := p.Run(context.Background(), rawURL)
	if err != nil {
		t.Fatal(err)
	}
	if acq.calls != 0 {
		t.Errorf("acquirer called %d times on a cache hit", acq.calls)
	}
	if result.Status != models.StatusDone {
		t.Errorf("status = %q", result.Status)
	}
}

func TestRun_CaptureFailure(t *testing.T) {
	rawURL := "https://down.example.com"
	p := newTestPipeline(&fakeAcquirer{err: models.NewAnalysisError(models.ErrCodeCaptureFailed, "all strategies failed", nil)}, nil)

	result, err := p.Run(context.Background(), rawURL)
	if err == nil {
		t.Fatal("expected an error")
	}
	if result == nil || result.Status != models.StatusError {
		t.Fatalf("result = %+v", result)
	}
	if result.Error == "" {
		t.Error("result should carry the failure reason")
	}
}

func TestRun_InvalidURL(t *testing.T) {
	p := newTestPipeline(&fakeAcquirer{}, nil)

	for _, rawURL := range []string{"", "ftp://example.com", "https://", "not a url"} {
		if _, err := p.Run(context.Background(), rawURL); err == nil {
			t.Errorf("Run(%q) should fail", rawURL)
		}
	}
}

func TestRun_NarrativeApplied(t *testing.T) {
	rawURL := "https://example.com"
	narrator := &fakeNarrator{
		narrative: &narrative.Narrative{
			Summary:            "A fine site.",
			Recommendations:    []models.Recommendation{{Priority: "high", Category: "seo", Issue: "x", Fix: "y"}},
			CompetitiveSummary: "No ads.",
		},
		outcome: narrative.OutcomeOK,
	}
	p := newTestPipeline(&fakeAcquirer{doc: okCapture(rawURL, 200)}, narrator)

	result, err := p.Run(context.Background(), rawURL)
	if err != nil {
		t.Fatal(err)
	}
	if result.AISummary == nil || *result.AISummary != "A fine site." {
		t.Errorf("AISummary = %v", result.AISummary)
	}
	if len(result.AIRecommendations) != 1 {
		t.Errorf("AIRecommendations = %+v", result.AIRecommendations)
	}
	if result.CompetitiveSummary == nil || *result.CompetitiveSummary != "No ads." {
		t.Errorf("CompetitiveSummary = %v", result.CompetitiveSummary)
	}
	if narrator.gotURL != rawURL {
		t.Errorf("narrator received url %q, want %q", narrator.gotURL, rawURL)
	}
}

func TestRun_NarrativeDegradation(t *testing.T) {
	rawURL := "https://example.com"
	narrator := &fakeNarrator{outcome: narrative.OutcomeMalformedResponse}
	p := newTestPipeline(&fakeAcquirer{doc: okCapture(rawURL, 200)}, narrator)

	result, err := p.Run(context.Background(), rawURL)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != models.StatusDone {
		t.Errorf("status = %q; narrative failure must not change the run status", result.Status)
	}
	if result.AISummary != nil {
		t.Error("degraded narrative must leave AISummary nil")
	}
}

func TestArchitectureType(t *testing.T) {
	tests := []struct {
		framework string
		cms       string
		want      string
	}{
		{"Next.js", "None", "SSR/SSG Hybrid"},
		{"Nuxt.js", "None", "SSR/SSG Hybrid"},
		{"Gatsby", "None", "SSG"},
		{"React", "None", "SPA"},
		{"Vue.js", "None", "SPA"},
		{"Angular", "None", "SPA"},
		{"Unknown", "WordPress", "MPA"},
		{"Unknown", "Drupal", "MPA"},
		{"Unknown", "Shopify", "Unknown"},
		{"Unknown", "None", "Unknown"},
	}
	for _, tt := range tests {
		profile := &models.TechProfile{Framework: tt.framework, CMS: tt.cms}
		if got := architectureType(profile); got != tt.want {
			t.Errorf("architectureType(%s, %s) = %q, want %q", tt.framework, tt.cms, got, tt.want)
		}
	}
}

func TestResultStore(t *testing.T) {
	store, err := NewResultStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	result := &models.AnalysisResult{ID: "ab12cd34", URL: "https://example.com", Status: models.StatusDone}
	if err := store.Save(result); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load("ab12cd34")
	if err != nil {
		t.Fatal(err)
	}
	if got.URL != result.URL || got.Status != result.Status {
		t.Errorf("loaded = %+v", got)
	}

	if _, err := store.Load("deadbeef"); err == nil {
		t.Error("missing id should fail")
	} else {
		var analysisErr *models.AnalysisError
		if !errors.As(err, &analysisErr) || analysisErr.Code != models.ErrCodeNotFound {
			t.Errorf("err = %v, want NOT_FOUND", err)
		}
	}

	if _, err := store.Load("../escape"); err == nil {
		t.Error("path-traversal id should be rejected")
	}
}
