package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/use-agent/siteintel/config"
	"github.com/use-agent/siteintel/models"
)

func TestDeliver_SignsPayload(t *testing.T) {
	secret := "hunter2"
	var gotSig string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-SiteIntel-Signature")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	event := &Event{
		Type:       EventCompleted,
		AnalysisID: "ab12cd34",
		Timestamp:  1700000000,
		Data:       &models.AnalysisResult{ID: "ab12cd34", Status: models.StatusDone},
	}
	if err := Deliver(context.Background(), srv.URL, secret, event); err != nil {
		t.Fatal(err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if gotSig != want {
		t.Errorf("signature = %q, want %q", gotSig, want)
	}
}

func TestDeliver_NoSecretNoSignature(t *testing.T) {
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-SiteIntel-Signature")
	}))
	defer srv.Close()

	if err := Deliver(context.Background(), srv.URL, "", &Event{Type: EventBlocked}); err != nil {
		t.Fatal(err)
	}
	if gotSig != "" {
		t.Errorf("unexpected signature %q without a secret", gotSig)
	}
}

func TestDeliver_EndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := Deliver(context.Background(), srv.URL, "", &Event{Type: EventFailed}); err == nil {
		t.Error("4xx/5xx endpoint response should be an error")
	}
}

func TestNew_DisabledWithoutURL(t *testing.T) {
	if n := New(config.WebhookConfig{}); n != nil {
		t.Error("expected nil notifier without an endpoint URL")
	}
	if n := New(config.WebhookConfig{URL: "https://hooks.example.com/x"}); n == nil {
		t.Error("expected a notifier when an endpoint is configured")
	}
}
