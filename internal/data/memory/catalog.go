package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/retail-pos-engine/internal/domain/reference"
)

// FileSnapshotLoader reads reference data from a JSON file
type FileSnapshotLoader struct {
	path string
}

func NewFileSnapshotLoader(path string) *FileSnapshotLoader {
	return &FileSnapshotLoader{path: path}
}

func (l *FileSnapshotLoader) LoadSnapshot(_ context.Context) (*reference.Snapshot, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", l.path, err)
	}
	var s reference.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", l.path, err)
	}
	return &s, nil
}

// StaticSnapshotLoader serves a fixed snapshot
type StaticSnapshotLoader struct {
	Snapshot *reference.Snapshot
}

func (l StaticSnapshotLoader) LoadSnapshot(_ context.Context) (*reference.Snapshot, error) {
	if l.Snapshot == nil {
		return &reference.Snapshot{}, nil
	}
	return l.Snapshot, nil
}
