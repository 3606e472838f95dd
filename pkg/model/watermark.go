package model

import "time"

// Watermark marks the most recently processed response. Everything at or
// before this point has already been appended to the row store. The JSON
// field names match the state files written by earlier tooling, so an
// existing state file loads unchanged.
type Watermark struct {
	LastResponseID string `json:"last_response_id,omitempty"`
	LastSubmission string `json:"last_submission,omitempty"`
}

// IsZero reports whether the watermark is uninitialized. With no recorded
// submission time the store is considered empty and every fetched response
// is new.
func (w *Watermark) IsZero() bool {
	return w == nil || w.LastSubmission == ""
}

// Baseline parses the recorded submission time. The second return value is
// false for an uninitialized or unparseable watermark.
func (w *Watermark) Baseline() (time.Time, bool) {
	if w == nil {
		return time.Time{}, false
	}
	return ParseTimestamp(w.LastSubmission)
}
