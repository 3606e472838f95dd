package sync

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sort"

	"github.com/harvestloop/tallysync/pkg/adapter"
	"github.com/harvestloop/tallysync/pkg/model"
	"github.com/harvestloop/tallysync/pkg/repository"
	"github.com/harvestloop/tallysync/pkg/service/mapper"
	"github.com/harvestloop/tallysync/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// UseCase runs one incremental sync: fetch, filter against the watermark,
// map, append, advance.
type UseCase struct {
	source adapter.Source
	rows   repository.RowStore
	state  repository.StateStore
	mapper *mapper.Mapper
	output io.Writer
}

// Option is a functional option for UseCase.
type Option func(*UseCase)

// WithOutput sets the writer used for dry-run output.
func WithOutput(w io.Writer) Option {
	return func(uc *UseCase) {
		uc.output = w
	}
}

// New creates a sync UseCase instance.
func New(
	source adapter.Source,
	rows repository.RowStore,
	state repository.StateStore,
	m *mapper.Mapper,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		source: source,
		rows:   rows,
		state:  state,
		mapper: m,
		output: os.Stdout,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// RunOptions contains options for a sync run.
type RunOptions struct {
	// DryRun maps the new responses and prints them without touching the
	// row store or the watermark.
	DryRun bool
}

// Result summarizes a completed sync run.
type Result struct {
	Fetched   int
	Appended  int
	Watermark *model.Watermark
}

// Run executes one sync. The row store append and the watermark save are the
// only side effects; the save happens strictly after a successful append, so
// the store and the watermark either advance together or not at all.
func (u *UseCase) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	logger := logging.From(ctx)

	responses, err := u.source.Responses(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load responses")
	}

	sortResponses(responses)

	wm, err := u.state.Load(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load sync state")
	}

	fresh := FilterNew(responses, wm)
	logger.Info("classified responses",
		"fetched", len(responses), "new", len(fresh))

	mapped := make([]model.Row, len(fresh))
	for i, resp := range fresh {
		mapped[i] = u.mapper.Row(resp)
	}

	if opts.DryRun {
		encoder := json.NewEncoder(u.output)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(mapped); err != nil {
			return nil, goerr.Wrap(err, "failed to encode dry-run output")
		}
		return &Result{Fetched: len(responses), Watermark: wm}, nil
	}

	if err := u.rows.Append(ctx, mapped); err != nil {
		return nil, goerr.Wrap(err, "failed to append rows")
	}

	if len(fresh) > 0 {
		wm = Advance(wm, fresh)
		if err := u.state.Save(ctx, wm); err != nil {
			return nil, goerr.Wrap(err, "failed to save sync state")
		}
		logger.Info("advanced watermark",
			"last_response_id", wm.LastResponseID,
			"last_submission", wm.LastSubmission)
	}

	return &Result{
		Fetched:   len(responses),
		Appended:  len(mapped),
		Watermark: wm,
	}, nil
}

// sortResponses orders responses by their raw submission string, ascending.
// ISO 8601 strings with a uniform offset sort chronologically; anything else
// still sorts deterministically. The sort is stable so upstream order breaks
// ties.
func sortResponses(responses []*model.Response) {
	sort.SliceStable(responses, func(i, j int) bool {
		return responses[i].SubmissionRaw() < responses[j].SubmissionRaw()
	})
}
