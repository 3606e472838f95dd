package sync_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harvestloop/tallysync/pkg/model"
	"github.com/harvestloop/tallysync/pkg/repository"
	"github.com/harvestloop/tallysync/pkg/service/mapper"
	"github.com/harvestloop/tallysync/pkg/usecase/sync"
	"github.com/m-mizutani/gt"
)

// mockSource is a mock implementation of adapter.Source for testing
type mockSource struct {
	responses []*model.Response
	err       error
}

func (m *mockSource) Responses(ctx context.Context) ([]*model.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.responses, nil
}

func reviewResponse(id, submittedAt, product, rating string) *model.Response {
	return &model.Response{
		ID:          model.ResponseID(id),
		SubmittedAt: submittedAt,
		Answers: []model.Answer{
			{Question: model.Question{Label: "Product"}, Value: json.RawMessage(`"` + product + `"`)},
			{Question: model.Question{Label: "Rating"}, Value: json.RawMessage(rating)},
		},
	}
}

func newTestUseCase(t *testing.T, source *mockSource, out *bytes.Buffer) (*sync.UseCase, string, string) {
	t.Helper()

	tmpDir := t.TempDir()
	csvPath := filepath.Join(tmpDir, "reviews.csv")
	statePath := filepath.Join(tmpDir, "state", "tally_state.json")

	m, err := mapper.New(model.Headers)
	gt.NoError(t, err)

	uc := sync.New(
		source,
		repository.NewCSV(csvPath, model.Headers),
		repository.NewStateFile(statePath),
		m,
		sync.WithOutput(out),
	)

	return uc, csvPath, statePath
}

func TestRunAppendsAndAdvances(t *testing.T) {
	ctx := context.Background()
	source := &mockSource{responses: []*model.Response{
		reviewResponse("r2", "2024-01-02T00:00:00Z", "Kettle", "4"),
		reviewResponse("r1", "2024-01-01T00:00:00Z", "Mixer", "5"),
	}}

	uc, csvPath, statePath := newTestUseCase(t, source, &bytes.Buffer{})

	result, err := uc.Run(ctx, sync.RunOptions{})
	gt.NoError(t, err)
	gt.Equal(t, result.Fetched, 2)
	gt.Equal(t, result.Appended, 2)
	gt.Equal(t, result.Watermark.LastResponseID, "r2")
	gt.Equal(t, result.Watermark.LastSubmission, "2024-01-02T00:00:00Z")

	data, err := os.ReadFile(csvPath)
	gt.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	gt.A(t, lines).Length(3)
	gt.Equal(t, lines[0], "Product,Brand,Rating,Comment,Category,Recommended,Code")
	// Responses are appended in ascending submission order
	gt.S(t, lines[1]).Contains("Mixer")
	gt.S(t, lines[2]).Contains("Kettle")

	stateData, err := os.ReadFile(statePath)
	gt.NoError(t, err)
	gt.S(t, string(stateData)).Contains(`"last_response_id": "r2"`)
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	source := &mockSource{responses: []*model.Response{
		reviewResponse("r1", "2024-01-01T00:00:00Z", "Mixer", "5"),
		reviewResponse("r2", "2024-01-01T00:00:00Z", "Kettle", "4"),
	}}

	uc, csvPath, _ := newTestUseCase(t, source, &bytes.Buffer{})

	first, err := uc.Run(ctx, sync.RunOptions{})
	gt.NoError(t, err)
	gt.Equal(t, first.Appended, 2)

	second, err := uc.Run(ctx, sync.RunOptions{})
	gt.NoError(t, err)
	gt.Equal(t, second.Appended, 0)

	data, err := os.ReadFile(csvPath)
	gt.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	gt.A(t, lines).Length(3) // header + 2 rows, nothing duplicated
}

func TestRunEmptyFetch(t *testing.T) {
	ctx := context.Background()
	source := &mockSource{}

	uc, csvPath, statePath := newTestUseCase(t, source, &bytes.Buffer{})

	result, err := uc.Run(ctx, sync.RunOptions{})
	gt.NoError(t, err)
	gt.Equal(t, result.Fetched, 0)
	gt.Equal(t, result.Appended, 0)

	// Neither the store nor the watermark is touched
	_, err = os.Stat(csvPath)
	gt.True(t, os.IsNotExist(err))
	_, err = os.Stat(statePath)
	gt.True(t, os.IsNotExist(err))
}

func TestRunDryRun(t *testing.T) {
	ctx := context.Background()
	source := &mockSource{responses: []*model.Response{
		reviewResponse("r1", "2024-01-01T00:00:00Z", "Mixer", "5"),
	}}

	out := &bytes.Buffer{}
	uc, csvPath, statePath := newTestUseCase(t, source, out)

	result, err := uc.Run(ctx, sync.RunOptions{DryRun: true})
	gt.NoError(t, err)
	gt.Equal(t, result.Fetched, 1)
	gt.Equal(t, result.Appended, 0)

	var rows []model.Row
	gt.NoError(t, json.Unmarshal(out.Bytes(), &rows))
	gt.A(t, rows).Length(1)
	gt.Equal(t, rows[0]["Product"], "Mixer")

	_, err = os.Stat(csvPath)
	gt.True(t, os.IsNotExist(err))
	_, err = os.Stat(statePath)
	gt.True(t, os.IsNotExist(err))
}

func TestRunFetchFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	source := &mockSource{err: errors.New("upstream unavailable")}

	uc, csvPath, statePath := newTestUseCase(t, source, &bytes.Buffer{})

	_, err := uc.Run(ctx, sync.RunOptions{})
	gt.Error(t, err)

	_, err = os.Stat(csvPath)
	gt.True(t, os.IsNotExist(err))
	_, err = os.Stat(statePath)
	gt.True(t, os.IsNotExist(err))
}

func TestRunResumesFromWatermark(t *testing.T) {
	ctx := context.Background()
	source := &mockSource{responses: []*model.Response{
		reviewResponse("r1", "2024-01-01T00:00:00Z", "Mixer", "5"),
	}}

	uc, csvPath, _ := newTestUseCase(t, source, &bytes.Buffer{})

	first, err := uc.Run(ctx, sync.RunOptions{})
	gt.NoError(t, err)
	gt.Equal(t, first.Appended, 1)

	// A later fetch returns the old response plus a new one
	source.responses = []*model.Response{
		reviewResponse("r1", "2024-01-01T00:00:00Z", "Mixer", "5"),
		reviewResponse("r2", "2024-01-02T00:00:00Z", "Kettle", "4"),
	}

	second, err := uc.Run(ctx, sync.RunOptions{})
	gt.NoError(t, err)
	gt.Equal(t, second.Appended, 1)
	gt.Equal(t, second.Watermark.LastResponseID, "r2")

	data, err := os.ReadFile(csvPath)
	gt.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	gt.A(t, lines).Length(3)
}
