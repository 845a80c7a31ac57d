package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/use-agent/siteintel/models"
)

// Result identifiers are short hex-ish tokens; anything else is
// rejected before it can touch the filesystem.
var validResultID = regexp.MustCompile(`^[a-f0-9-]{1,36}$`)

// ResultStore persists one JSON record per analysis run, keyed by the
// run identifier. Records are write-once; there is no update-in-place.
type ResultStore struct {
	dir string
}

// NewResultStore creates the backing directory if needed.
func NewResultStore(dir string) (*ResultStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ResultStore{dir: dir}, nil
}

func (s *ResultStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes the result record.
func (s *ResultStore) Save(result *models.AnalysisResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(result.ID), data, 0o644)
}

// Load returns the record for an identifier, or a typed not-found error.
func (s *ResultStore) Load(id string) (*models.AnalysisResult, error) {
	if !validResultID.MatchString(id) {
		return nil, models.NewAnalysisError(models.ErrCodeInvalidInput, "invalid analysis id", nil)
	}
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.NewAnalysisError(models.ErrCodeNotFound,
				fmt.Sprintf("no analysis with id %s", id), nil)
		}
		return nil, err
	}
	var result models.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, models.NewAnalysisError(models.ErrCodeInternal, "stored result is corrupt", err)
	}
	return &result, nil
}
