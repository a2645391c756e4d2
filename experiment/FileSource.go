package experiment

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/samuelfneumann/goppo/rollout"
)

// FileSource is a Source of rollout batches stored one per JSON file.
// Each file holds an object with the keys obs, act, adv, ret, and
// logProb mapping to the arrays of a rollout.Batch. Files are read in
// lexical order of their names.
type FileSource struct {
	files []string
	next  int
}

// NewFileSource returns a FileSource reading the files matched by the
// glob pattern
func NewFileSource(pattern string) (*FileSource, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("newFileSource: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("newFileSource: no files match %q", pattern)
	}
	sort.Strings(files)

	return &FileSource{files: files}, nil
}

// Len returns the total number of batches of the source
func (f *FileSource) Len() int {
	return len(f.files)
}

// Next reads and returns the next batch
func (f *FileSource) Next() (rollout.Batch, error) {
	if f.next >= len(f.files) {
		return rollout.Batch{}, io.EOF
	}
	filename := f.files[f.next]
	f.next++

	file, err := os.Open(filename)
	if err != nil {
		return rollout.Batch{}, fmt.Errorf("next: %w", err)
	}
	defer file.Close()

	var b rollout.Batch
	if err := json.NewDecoder(file).Decode(&b); err != nil {
		return rollout.Batch{}, fmt.Errorf("next: could not decode %v: %w",
			filename, err)
	}
	return b, nil
}

// WriteBatch writes b to filename in the format read by FileSource
func WriteBatch(filename string, b rollout.Batch) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("writeBatch: %w", err)
	}
	if err := json.NewEncoder(file).Encode(b); err != nil {
		file.Close()
		return fmt.Errorf("writeBatch: could not encode batch: %w", err)
	}
	return file.Close()
}
