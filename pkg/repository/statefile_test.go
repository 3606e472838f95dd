package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/harvestloop/tallysync/pkg/model"
	"github.com/harvestloop/tallysync/pkg/repository"
	"github.com/m-mizutani/gt"
)

func TestStateFileLoadMissing(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStateFile(filepath.Join(t.TempDir(), "missing.json"))

	wm, err := store.Load(ctx)
	gt.NoError(t, err)
	gt.True(t, wm.IsZero())
}

func TestStateFileLoadMalformed(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	gt.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	store := repository.NewStateFile(path)

	// Malformed state recovers as a full resync, never an error
	wm, err := store.Load(ctx)
	gt.NoError(t, err)
	gt.True(t, wm.IsZero())
}

func TestStateFileSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")
	store := repository.NewStateFile(path)

	wm := &model.Watermark{
		LastResponseID: "resp-42",
		LastSubmission: "2024-01-01T00:00:00Z",
	}
	gt.NoError(t, store.Save(ctx, wm))

	loaded, err := store.Load(ctx)
	gt.NoError(t, err)
	gt.Equal(t, loaded, wm)
}

func TestStateFileLoadsLegacyFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	// Format written by the previous sync tooling
	legacy := `{
  "last_response_id": "abc123",
  "last_submission": "2024-06-01T12:00:00.000Z"
}
`
	gt.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	wm, err := repository.NewStateFile(path).Load(ctx)
	gt.NoError(t, err)
	gt.Equal(t, wm.LastResponseID, "abc123")
	gt.Equal(t, wm.LastSubmission, "2024-06-01T12:00:00.000Z")
}

func TestStateFileSaveEndsWithNewline(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	store := repository.NewStateFile(path)

	gt.NoError(t, store.Save(ctx, &model.Watermark{
		LastResponseID: "x",
		LastSubmission: "2024-01-01T00:00:00Z",
	}))

	data, err := os.ReadFile(path)
	gt.NoError(t, err)
	gt.S(t, string(data)).Contains("\"last_response_id\": \"x\"")
	gt.True(t, data[len(data)-1] == '\n')
}

func TestStateFileReset(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	store := repository.NewStateFile(path)

	gt.NoError(t, store.Save(ctx, &model.Watermark{
		LastResponseID: "x",
		LastSubmission: "2024-01-01T00:00:00Z",
	}))
	gt.NoError(t, store.Reset(ctx))

	_, err := os.Stat(path)
	gt.True(t, os.IsNotExist(err))

	// Resetting missing state is fine
	gt.NoError(t, store.Reset(ctx))
}
