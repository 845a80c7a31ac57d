package competitive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/use-agent/siteintel/config"
)

func newTestClient(baseURL string) *TrafficClient {
	return NewTrafficClient(config.TrafficConfig{APIKey: "test-key", BaseURL: baseURL})
}

func TestNewTrafficClient_NoKey(t *testing.T) {
	if c := NewTrafficClient(config.TrafficConfig{}); c != nil {
		t.Error("expected nil client without an API key")
	}
}

func TestEstimateMonthly_Success(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("api_key")
		w.Header().Set("Content-Type", "application/json")
		// Mean of 100k/200k/300k = 200k visits.
		w.Write([]byte(`{"visits":[
			{"date":"2024-01-01","visits":100000},
			{"date":"2024-02-01","visits":200000},
			{"date":"2024-03-01","visits":300000}
		]}`))
	}))
	defer srv.Close()

	estimate, source := newTestClient(srv.URL).EstimateMonthly(context.Background(), "https://www.example.com/page")

	if estimate == nil {
		t.Fatalf("estimate is nil, source = %q", source)
	}
	if *estimate != "200K/month" {
		t.Errorf("estimate = %q, want 200K/month", *estimate)
	}
	if source != "SimilarWeb API" {
		t.Errorf("source = %q, want SimilarWeb API", source)
	}
	if gotPath != "/v1/website/example.com/total-traffic-and-engagement/visits" {
		t.Errorf("path = %q (www. prefix should be stripped from the domain)", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api_key = %q", gotKey)
	}
}

func TestEstimateMonthly_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	estimate, source := newTestClient(srv.URL).EstimateMonthly(context.Background(), "https://example.com")

	if estimate != nil {
		t.Errorf("estimate should be nil on a non-200, got %q", *estimate)
	}
	if !strings.Contains(source, "403") {
		t.Errorf("source = %q, want the status code in the reason", source)
	}
}

func TestEstimateMonthly_EmptySeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"visits":[]}`))
	}))
	defer srv.Close()

	estimate, source := newTestClient(srv.URL).EstimateMonthly(context.Background(), "https://example.com")

	if estimate != nil {
		t.Errorf("estimate should be nil for an empty series, got %q", *estimate)
	}
	if !strings.Contains(source, "no traffic data") {
		t.Errorf("source = %q", source)
	}
}
