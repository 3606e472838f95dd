package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ResponseID is the upstream identifier of a single form submission.
type ResponseID string

// Response is one form submission as returned by the Tally API. It is
// immutable once fetched: the sync pipeline only reads it.
type Response struct {
	ID          ResponseID `json:"id"`
	SubmittedAt string     `json:"submittedAt,omitempty"`
	CreatedAt   string     `json:"createdAt,omitempty"`
	Answers     []Answer   `json:"answers,omitempty"`
}

// SubmissionRaw returns the raw submission timestamp string, preferring
// submittedAt and falling back to createdAt. Empty when neither is set.
func (r *Response) SubmissionRaw() string {
	if r.SubmittedAt != "" {
		return r.SubmittedAt
	}
	return r.CreatedAt
}

// Answer is a single question/answer pair within a response.
type Answer struct {
	Question Question        `json:"question"`
	Value    json.RawMessage `json:"value,omitempty"`
}

// Question carries the human-readable label shown on the form.
type Question struct {
	Label string `json:"label"`
}

// Text flattens the heterogeneous Tally answer value into a plain string.
// Lists become comma-joined items with empty entries dropped. Select-style
// objects expose "label", "labels" or "text". Null and unknown shapes
// become the empty string.
func (a Answer) Text() string {
	if len(a.Value) == 0 {
		return ""
	}

	var value any
	if err := json.Unmarshal(a.Value, &value); err != nil {
		return ""
	}

	return flattenValue(value)
}

func flattenValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			if s := flattenValue(item); s != "" {
				items = append(items, s)
			}
		}
		return strings.Join(items, ", ")
	case map[string]any:
		if label, ok := v["label"]; ok {
			return flattenValue(label)
		}
		if labels, ok := v["labels"]; ok {
			return flattenValue(labels)
		}
		if text, ok := v["text"]; ok {
			return flattenValue(text)
		}
		return ""
	default:
		return ""
	}
}
