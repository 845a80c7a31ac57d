package capture

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/siteintel/models"
)

// TTL is the capture validity window. An entry older than this is a cache
// miss. Fixed by design, not externally configurable.
const TTL = time.Hour

// Store is the capture cache contract. Keys are derived from the URL's
// host; a concurrent writer to the same key silently wins last-write.
type Store interface {
	// Get returns a still-valid capture for the URL's domain, if any.
	Get(rawURL string) (*models.Capture, bool)

	// Put stores a capture under the URL's domain key, replacing any
	// previous entry wholesale.
	Put(rawURL string, doc *models.Capture) error
}

// Key derives the cache key from a URL: the scheme-stripped host with
// '.' and ':' normalized to '_'.
func Key(rawURL string) string {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.ReplaceAll(host, ".", "_")
	host = strings.ReplaceAll(host, ":", "_")
	return host
}

// DiskStore persists captures as one JSON file per domain under a
// directory. Entry validity is judged from the file's modification time,
// so a refresh is a plain overwrite.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the backing directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) path(rawURL string) string {
	return filepath.Join(s.dir, Key(rawURL)+"_capture.json")
}

// Get returns the stored capture when the file exists and is younger
// than TTL. A corrupt file is treated as a miss.
func (s *DiskStore) Get(rawURL string) (*models.Capture, bool) {
	path := s.path(rawURL)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) >= TTL {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var doc models.Capture
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("capture store: discarding corrupt entry", "path", path, "error", err)
		return nil, false
	}
	return &doc, true
}

// Put writes the capture, replacing any previous entry for the domain.
func (s *DiskStore) Put(rawURL string, doc *models.Capture) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(rawURL), data, 0o644)
}

// MemoryStore is an in-memory Store used in tests and for single-shot
// CLI runs that should not touch the filesystem.
type MemoryStore struct {
	mu    sync.RWMutex
	store map[string]memoryEntry
}

type memoryEntry struct {
	doc     *models.Capture
	written time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{store: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Get(rawURL string) (*models.Capture, bool) {
	s.mu.RLock()
	e, ok := s.store[Key(rawURL)]
	s.mu.RUnlock()
	if !ok || time.Since(e.written) >= TTL {
		return nil, false
	}
	return e.doc, true
}

func (s *MemoryStore) Put(rawURL string, doc *models.Capture) error {
	s.mu.Lock()
	s.store[Key(rawURL)] = memoryEntry{doc: doc, written: time.Now()}
	s.mu.Unlock()
	return nil
}
