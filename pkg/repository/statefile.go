package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/harvestloop/tallysync/pkg/model"
	"github.com/harvestloop/tallysync/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// stateFile persists the watermark as a small human-inspectable JSON file.
type stateFile struct {
	path string
}

// NewStateFile creates a StateStore backed by a JSON file at path.
func NewStateFile(path string) StateStore {
	return &stateFile{path: path}
}

func (s *stateFile) Load(ctx context.Context) (*model.Watermark, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.From(ctx).Warn("state file unreadable, starting from empty watermark",
				"path", s.path, "error", err)
		}
		return &model.Watermark{}, nil
	}

	var wm model.Watermark
	if err := json.Unmarshal(data, &wm); err != nil {
		// Malformed state means a full resync, not a failed run.
		logging.From(ctx).Warn("state file malformed, starting from empty watermark",
			"path", s.path, "error", err)
		return &model.Watermark{}, nil
	}

	return &wm, nil
}

func (s *stateFile) Save(ctx context.Context, wm *model.Watermark) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return goerr.Wrap(err, "failed to create state directory", goerr.V("dir", dir))
	}

	data, err := json.MarshalIndent(wm, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to marshal watermark")
	}
	data = append(data, '\n')

	// Write-then-rename keeps the state file whole even if the process
	// dies mid-write.
	tmp, err := os.CreateTemp(dir, ".tally_state-*.json")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary state file", goerr.V("dir", dir))
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return goerr.Wrap(err, "failed to write state file", goerr.V("path", tmpPath))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return goerr.Wrap(err, "failed to close state file", goerr.V("path", tmpPath))
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return goerr.Wrap(err, "failed to replace state file", goerr.V("path", s.path))
	}

	return nil
}

func (s *stateFile) Reset(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return goerr.Wrap(err, "failed to remove state file", goerr.V("path", s.path))
	}
	return nil
}
