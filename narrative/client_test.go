package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/use-agent/siteintel/config"
	"github.com/use-agent/siteintel/models"
)

func testProfiles() (*models.SeoReport, *models.TechProfile, *models.CompetitiveProfile) {
	return &models.SeoReport{Score: 72, Grade: "C"},
		&models.TechProfile{Framework: "Next.js", CMS: models.TechNone, Confidence: 45},
		&models.CompetitiveProfile{AdNetworks: []string{}, TrackingPixels: []string{}}
}

// chatServer fakes an OpenAI-compatible endpoint, returning each body in
// sequence and recording the received requests.
func chatServer(t *testing.T, replies []string) (*httptest.Server, *[]chatRequest) {
	t.Helper()
	var requests []chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode chat request: %v", err)
		}
		requests = append(requests, req)

		idx := len(requests) - 1
		if idx >= len(replies) {
			t.Errorf("unexpected request %d", idx+1)
			idx = len(replies) - 1
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]string{"content": replies[idx]}},
			},
		})
	}))
	return srv, &requests
}

func clientFor(url string) *Client {
	return NewClient(config.NarrativeConfig{
		APIKey:  "test-key",
		Model:   "llama-3.3-70b-versatile",
		BaseURL: url,
	}, nil)
}

const validReply = `{"summary":"Solid Next.js site with fixable SEO gaps.","recommendations":[{"priority":"high","category":"seo","issue":"Short title","fix":"Lengthen the title"}],"competitive_summary":"No paid acquisition detected."}`

const testPageURL = "https://example.com"

func TestGenerate_CredentialMissing(t *testing.T) {
	c := NewClient(config.NarrativeConfig{}, nil)
	seo, tech, comp := testProfiles()

	n, outcome, err := c.Generate(context.Background(), testPageURL, seo, tech, comp)

	if outcome != OutcomeCredentialMissing {
		t.Errorf("outcome = %q, want credential-missing", outcome)
	}
	if n != nil || err != nil {
		t.Errorf("expected quiet no-op, got n=%v err=%v", n, err)
	}
}

func TestGenerate_OK(t *testing.T) {
	srv, requests := chatServer(t, []string{validReply})
	defer srv.Close()

	seo, tech, comp := testProfiles()
	n, outcome, err := clientFor(srv.URL).Generate(context.Background(), testPageURL, seo, tech, comp)

	if outcome != OutcomeOK || err != nil {
		t.Fatalf("outcome = %q, err = %v", outcome, err)
	}
	if n.Summary == "" || len(n.Recommendations) != 1 {
		t.Errorf("narrative = %+v", n)
	}

	if len(*requests) != 1 {
		t.Fatalf("request count = %d, want 1", len(*requests))
	}
	req := (*requests)[0]
	if req.Temperature != temperature || req.MaxTokens != maxTokens {
		t.Errorf("generation params = (%v, %d)", req.Temperature, req.MaxTokens)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
		t.Errorf("messages = %+v", req.Messages)
	}
	if !strings.Contains(req.Messages[1].Content, `"Next.js"`) {
		t.Error("user prompt should embed the tech profile")
	}
	if !strings.Contains(req.Messages[1].Content, "report for: "+testPageURL) {
		t.Error("user prompt should open with the analyzed URL")
	}
}

func TestGenerate_FencedReply(t *testing.T) {
	srv, _ := chatServer(t, []string{"```json\n" + validReply + "\n```"})
	defer srv.Close()

	seo, tech, comp := testProfiles()
	n, outcome, err := clientFor(srv.URL).Generate(context.Background(), testPageURL, seo, tech, comp)

	if outcome != OutcomeOK || err != nil {
		t.Fatalf("outcome = %q, err = %v", outcome, err)
	}
	if !strings.Contains(n.Summary, "Next.js") {
		t.Errorf("summary = %q", n.Summary)
	}
}

func TestGenerate_RetryRecovers(t *testing.T) {
	srv, requests := chatServer(t, []string{"Sure! Here is the analysis you asked for.", validReply})
	defer srv.Close()

	seo, tech, comp := testProfiles()
	n, outcome, err := clientFor(srv.URL).Generate(context.Background(), testPageURL, seo, tech, comp)

	if outcome != OutcomeOK || err != nil {
		t.Fatalf("outcome = %q, err = %v", outcome, err)
	}
	if n == nil || n.Summary == "" {
		t.Fatalf("narrative = %+v", n)
	}

	if len(*requests) != 2 {
		t.Fatalf("request count = %d, want 2", len(*requests))
	}
	// The retry replays the conversation plus the bad answer and a
	// JSON-only demand.
	retry := (*requests)[1]
	if len(retry.Messages) != 4 {
		t.Fatalf("retry message count = %d, want 4", len(retry.Messages))
	}
	if retry.Messages[2].Role != "assistant" {
		t.Errorf("message 3 role = %q, want assistant", retry.Messages[2].Role)
	}
	if !strings.Contains(retry.Messages[3].Content, "ONLY the JSON object") {
		t.Errorf("corrective message = %q", retry.Messages[3].Content)
	}
}

func TestGenerate_MalformedAfterRetry(t *testing.T) {
	srv, requests := chatServer(t, []string{"not json", "still not json"})
	defer srv.Close()

	seo, tech, comp := testProfiles()
	n, outcome, err := clientFor(srv.URL).Generate(context.Background(), testPageURL, seo, tech, comp)

	if outcome != OutcomeMalformedResponse {
		t.Errorf("outcome = %q, want malformed-response", outcome)
	}
	if n != nil {
		t.Errorf("narrative should be nil, got %+v", n)
	}
	if len(*requests) != 2 {
		t.Errorf("request count = %d, want exactly one retry", len(*requests))
	}
	var analysisErr *models.AnalysisError
	if !errors.As(err, &analysisErr) || analysisErr.Code != models.ErrCodeNarrativeFailure {
		t.Errorf("err = %v, want a NARRATIVE_FAILURE", err)
	}
}

func TestGenerate_AuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	seo, tech, comp := testProfiles()
	_, outcome, err := clientFor(srv.URL).Generate(context.Background(), testPageURL, seo, tech, comp)

	if outcome != OutcomeTransportFailure {
		t.Errorf("outcome = %q, want transport-failure", outcome)
	}
	var analysisErr *models.AnalysisError
	if !errors.As(err, &analysisErr) || analysisErr.Code != models.ErrCodeNarrativeAuthFailure {
		t.Errorf("err = %v, want NARRATIVE_AUTH_FAILURE", err)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"padded", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDiagram(t *testing.T) {
	tech := &models.TechProfile{
		Framework: "Next.js",
		CMS:       models.TechNone,
		Hosting:   "Vercel",
		CDN:       "Cloudflare",
	}
	seo := &models.SeoReport{HTTPSEnabled: true}

	d := Diagram(tech, seo)

	if !strings.HasPrefix(d, "graph TD") {
		t.Errorf("diagram should be a mermaid graph, got %q", d)
	}
	for _, want := range []string{"Cloudflare CDN", "Next.js Application", "Hosted on Vercel"} {
		if !strings.Contains(d, want) {
			t.Errorf("diagram missing %q:\n%s", want, d)
		}
	}
	if strings.Contains(d, "No HTTPS") {
		t.Error("HTTPS warning should be absent for an https site")
	}

	// Degenerate profile still yields a diagram.
	empty := Diagram(&models.TechProfile{Framework: models.TechUnknown, CMS: models.TechNone, Hosting: models.TechUnknown, CDN: models.TechNone}, nil)
	if !strings.Contains(empty, "Web Application") {
		t.Errorf("fallback diagram = %q", empty)
	}
}
