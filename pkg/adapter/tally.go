package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/harvestloop/tallysync/pkg/model"
	"github.com/harvestloop/tallysync/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

const (
	tallyBaseURL = "https://api.tally.so"
	pageLimit    = 100
)

// Source supplies the full, best-effort-ordered set of form responses for a
// run. Implementations must return everything in one call; the pipeline
// re-sorts before filtering and does not depend on page boundaries.
type Source interface {
	Responses(ctx context.Context) ([]*model.Response, error)
}

// Tally is a client for the Tally forms API.
type tally struct {
	apiKey     string
	formID     string
	baseURL    string
	httpClient *http.Client
}

// TallyOption configures the Tally client.
type TallyOption func(*tally)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(baseURL string) TallyOption {
	return func(t *tally) {
		t.baseURL = baseURL
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) TallyOption {
	return func(t *tally) {
		t.httpClient = client
	}
}

// NewTally creates a Source that pages through all responses of a form.
func NewTally(apiKey, formID string, opts ...TallyOption) Source {
	t := &tally{
		apiKey:  apiKey,
		formID:  formID,
		baseURL: tallyBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// responsePage is one page of the responses listing.
type responsePage struct {
	Data       []*model.Response `json:"data"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
}

func (t *tally) Responses(ctx context.Context) ([]*model.Response, error) {
	var all []*model.Response

	for page := 1; ; page++ {
		result, err := t.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(result.Data) == 0 {
			break
		}

		all = append(all, result.Data...)

		logging.From(ctx).Debug("fetched responses page",
			"page", page, "count", len(result.Data), "total_pages", result.TotalPages)

		if result.TotalPages > 0 && page >= result.TotalPages {
			break
		}
	}

	return all, nil
}

func (t *tally) fetchPage(ctx context.Context, page int) (*responsePage, error) {
	endpoint := fmt.Sprintf("%s/forms/%s/responses", t.baseURL, url.PathEscape(t.formID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request", goerr.V("endpoint", endpoint))
	}

	q := req.URL.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(pageLimit))
	q.Set("sort", "asc")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch responses", goerr.V("page", page))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, goerr.New("Tally API returned error",
			goerr.V("status", resp.StatusCode),
			goerr.V("page", page),
			goerr.V("body", string(body)))
	}

	var result responsePage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, goerr.Wrap(err, "failed to decode responses page", goerr.V("page", page))
	}

	return &result, nil
}
