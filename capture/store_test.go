package capture

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/use-agent/siteintel/models"
)

func TestKey(t *testing.T) {
	tests := []struct {
		rawURL string
		want   string
	}{
		{"https://example.com/page", "example_com"},
		{"https://sub.example.co.uk", "sub_example_co_uk"},
		{"http://localhost:8080/x", "localhost_8080"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		t.Run(tt.rawURL, func(t *testing.T) {
			if got := Key(tt.rawURL); got != tt.want {
				t.Errorf("Key(%q) = %q, want %q", tt.rawURL, got, tt.want)
			}
		})
	}
}

func sampleCapture(rawURL string) *models.Capture {
	return &models.Capture{
		URL:           rawURL,
		FinalURL:      rawURL + "/",
		StatusCode:    200,
		HTML:          "<html><body>hello</body></html>",
		Headers:       map[string]string{"Server": "nginx"},
		Timestamp:     time.Now().UTC().Truncate(time.Second),
		CaptureMethod: "http",
	}
}

func TestDiskStore_RoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	rawURL := "https://example.com/some/path"
	doc := sampleCapture(rawURL)

	if _, ok := store.Get(rawURL); ok {
		t.Fatal("empty store should miss")
	}
	if err := store.Put(rawURL, doc); err != nil {
		t.Fatal(err)
	}

	// A different path on the same domain hits the same entry.
	got, ok := store.Get("https://example.com/other")
	if !ok {
		t.Fatal("expected a hit for the same domain")
	}
	if !reflect.DeepEqual(got, doc) {
		t.Errorf("round-trip mismatch:\ngot  %+v\nwant %+v", got, doc)
	}

	// Two reads with no intervening write return identical content.
	again, ok := store.Get(rawURL)
	if !ok || !reflect.DeepEqual(got, again) {
		t.Error("repeated reads within TTL should return identical content")
	}
}

func TestDiskStore_TTLExpiry(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	rawURL := "https://stale.example.com"
	if err := store.Put(rawURL, sampleCapture(rawURL)); err != nil {
		t.Fatal(err)
	}

	// Age the entry past the TTL via its mtime.
	path := filepath.Join(dir, Key(rawURL)+"_capture.json")
	old := time.Now().Add(-TTL - time.Minute)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	if _, ok := store.Get(rawURL); ok {
		t.Error("entry older than TTL should be a miss")
	}
}

func TestDiskStore_CorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	rawURL := "https://corrupt.example.com"
	path := filepath.Join(dir, Key(rawURL)+"_capture.json")
	if err := os.WriteFile(path, []byte("{truncated"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok := store.Get(rawURL); ok {
		t.Error("corrupt entry should be a miss, not an error")
	}
}

func TestDiskStore_PutOverwrites(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	rawURL := "https://example.com"
	first := sampleCapture(rawURL)
	second := sampleCapture(rawURL)
	second.HTML = "<html><body>updated</body></html>"

	if err := store.Put(rawURL, first); err != nil {
		t.Fatal(err)
	}
	if err := store.Put(rawURL, second); err != nil {
		t.Fatal(err)
	}

	got, ok := store.Get(rawURL)
	if !ok {
		t.Fatal("expected a hit")
	}
	if got.HTML != second.HTML {
		t.Errorf("HTML = %q, want the overwritten value", got.HTML)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	rawURL := "https://example.com"

	if _, ok := store.Get(rawURL); ok {
		t.Fatal("empty store should miss")
	}

	doc := sampleCapture(rawURL)
	if err := store.Put(rawURL, doc); err != nil {
		t.Fatal(err)
	}

	got, ok := store.Get("https://example.com/deep/link")
	if !ok {
		t.Fatal("expected a domain-keyed hit")
	}
	if got != doc {
		t.Error("memory store should return the stored instance")
	}
}
