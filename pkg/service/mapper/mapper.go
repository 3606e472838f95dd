package mapper

import (
	"os"
	"strings"

	"github.com/harvestloop/tallysync/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// defaultAliases maps question labels to canonical column names. Aliases let
// the form wording drift (e.g. "Rate it out of 5" vs "Rating") without code
// changes. Unrecognized labels are dropped silently.
var defaultAliases = map[string]string{
	"Product":                         "Product",
	"Product name":                    "Product",
	"Product Name":                    "Product",
	"What product are you reviewing?": "Product",
	"Brand":                           "Brand",
	"Brand name":                      "Brand",
	"Brand Name":                      "Brand",
	"Rating":                          "Rating",
	"Rate it out of 5":                "Rating",
	"How would you rate it out of 5?": "Rating",
	"Comment":                         "Comment",
	"Quick comment":                   "Comment",
	"Tell us why":                     "Comment",
	"Category":                        "Category",
	"Product category":                "Category",
	"Would you recommend it?":         "Recommended",
	"Recommend":                       "Recommended",
	"Recommendation":                  "Recommended",
	"Do you recommend this product?":  "Recommended",
	"Postcode":                        "Code",
	"Postal code":                     "Code",
	"Post code":                       "Code",
	"Code":                            "Code",
}

// Mapper translates a response's question/answer pairs into output columns.
type Mapper struct {
	aliases map[string]string
	headers []string
}

// Option is a functional option for Mapper.
type Option func(*Mapper) error

// WithAliasFile merges label aliases from a YAML file (label: column) over
// the built-in table. An alias targeting an unknown column is a
// configuration error.
func WithAliasFile(path string) Option {
	return func(m *Mapper) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return goerr.Wrap(err, "failed to read alias file", goerr.V("path", path))
		}

		var overrides map[string]string
		if err := yaml.Unmarshal(data, &overrides); err != nil {
			return goerr.Wrap(err, "failed to parse alias file", goerr.V("path", path))
		}

		known := make(map[string]bool, len(m.headers))
		for _, h := range m.headers {
			known[h] = true
		}

		for label, column := range overrides {
			if !known[column] {
				return goerr.New("alias targets unknown column",
					goerr.V("label", label), goerr.V("column", column))
			}
			m.aliases[label] = column
		}

		return nil
	}
}

// New creates a Mapper for the given column layout with the built-in alias
// table, optionally extended by options.
func New(headers []string, opts ...Option) (*Mapper, error) {
	aliases := make(map[string]string, len(defaultAliases))
	for label, column := range defaultAliases {
		aliases[label] = column
	}

	m := &Mapper{
		aliases: aliases,
		headers: headers,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Canonical resolves a question label to its canonical column name. The
// second return value is false for unrecognized labels.
func (m *Mapper) Canonical(label string) (string, bool) {
	column, ok := m.aliases[strings.TrimSpace(label)]
	return column, ok
}

// Row maps a response onto the column layout. Every header key is present in
// the result; columns with no matching answer stay empty.
func (m *Mapper) Row(resp *model.Response) model.Row {
	row := make(model.Row, len(m.headers))
	for _, h := range m.headers {
		row[h] = ""
	}

	for _, answer := range resp.Answers {
		column, ok := m.Canonical(answer.Question.Label)
		if !ok {
			continue
		}
		row[column] = answer.Text()
	}

	return row
}
