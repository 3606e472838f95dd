package adapter

import (
	"context"
	"encoding/json"
	"os"

	"github.com/harvestloop/tallysync/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// ErrUnsupportedPayload signals a responses file whose JSON structure is
// neither a {"data": [...]} document nor a bare array. This is a
// configuration error and aborts the run.
var ErrUnsupportedPayload = goerr.New("unsupported responses JSON structure")

// localFile is a Source reading pre-fetched responses from a JSON file,
// used for local development and tests instead of the live API.
type localFile struct {
	path string
}

// NewLocalFile creates a Source backed by a local JSON file.
func NewLocalFile(path string) Source {
	return &localFile{path: path}
}

func (l *localFile) Responses(ctx context.Context) ([]*model.Response, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read responses file", goerr.V("path", l.path))
	}

	var wrapped struct {
		Data []*model.Response `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data, nil
	}

	var bare []*model.Response
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}

	return nil, goerr.Wrap(ErrUnsupportedPayload, "failed to parse responses file",
		goerr.V("path", l.path))
}
