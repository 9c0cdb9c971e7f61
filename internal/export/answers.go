package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-scripts/examreview/internal/model"
)

// AnswersFile persists answer records as JSON so an interrupted run can be
// resumed
type AnswersFile struct {
	path string
	mu   sync.Mutex
}

// NewAnswersFile returns an AnswersFile at path
func NewAnswersFile(path string) *AnswersFile {
	return &AnswersFile{path: path}
}

// Path returns the file location
func (f *AnswersFile) Path() string {
	return f.path
}

// Load reads the records. A missing file yields an error wrapping
// os.ErrNotExist.
func (f *AnswersFile) Load() ([]model.AnswerRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answers: %w", err)
	}

	var records []model.AnswerRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode answers %s: %w", f.path, err)
	}
	return records, nil
}

// Save replaces the file contents with records
func (f *AnswersFile) Save(records []model.AnswerRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if records == nil {
		records = []model.AnswerRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create answers directory: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write answers: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace answers: %w", err)
	}
	return nil
}
