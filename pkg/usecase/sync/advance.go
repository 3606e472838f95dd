package sync

import (
	"time"

	"github.com/harvestloop/tallysync/pkg/model"
)

// Advance computes the watermark after a batch of newly accepted responses.
// The latest response is the maximum (timestamp, id) pair among those with a
// parsable timestamp; the id tie-break makes the result deterministic when
// submissions share an instant. Responses without a parsable timestamp never
// advance the watermark. The chosen response's raw submission string is
// persisted as-is to preserve its original precision and formatting.
//
// An empty batch, or one with no parsable timestamps at all, returns the
// current watermark unchanged.
func Advance(current *model.Watermark, accepted []*model.Response) *model.Watermark {
	var latest *model.Response
	var latestTS time.Time

	for _, resp := range accepted {
		ts, ok := model.ParseTimestamp(resp.SubmissionRaw())
		if !ok {
			continue
		}

		if latest == nil || ts.After(latestTS) ||
			(ts.Equal(latestTS) && string(resp.ID) > string(latest.ID)) {
			latest = resp
			latestTS = ts
		}
	}

	if latest == nil {
		return current
	}

	return &model.Watermark{
		LastResponseID: string(latest.ID),
		LastSubmission: latest.SubmissionRaw(),
	}
}
