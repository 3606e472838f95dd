package sync

import (
	"github.com/harvestloop/tallysync/pkg/model"
)

// FilterNew returns the responses that have not been processed yet, given
// the persisted watermark. Input order is preserved.
//
// Classification per response:
//   - watermark uninitialized or unparseable: everything is new
//   - response timestamp unparseable: new (fail-open, a malformed-but-real
//     response must not be dropped silently)
//   - strictly after the baseline: new
//   - equal to the baseline: new only if the id differs from the last
//     processed one, which keeps the boundary response from being re-emitted
//     on every run when submissions share a second-granularity timestamp
//   - strictly before the baseline: already processed
func FilterNew(responses []*model.Response, wm *model.Watermark) []*model.Response {
	baseline, ok := wm.Baseline()
	if !ok {
		return responses
	}

	fresh := make([]*model.Response, 0, len(responses))
	for _, resp := range responses {
		submitted, ok := model.ParseTimestamp(resp.SubmissionRaw())
		if !ok {
			fresh = append(fresh, resp)
			continue
		}

		switch {
		case submitted.After(baseline):
			fresh = append(fresh, resp)
		case submitted.Equal(baseline):
			if string(resp.ID) != wm.LastResponseID {
				fresh = append(fresh, resp)
			}
		}
	}

	return fresh
}
