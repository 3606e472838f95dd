package repository

import (
	"context"
	"encoding/csv"
	"os"

	"github.com/harvestloop/tallysync/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// csvStore appends mapped rows to a CSV file, writing the header line only
// when the file is first created.
type csvStore struct {
	path    string
	headers []string
}

// NewCSV creates a RowStore backed by an append-only CSV file at path with
// the given column order.
func NewCSV(path string, headers []string) RowStore {
	return &csvStore{path: path, headers: headers}
}

func (s *csvStore) Append(ctx context.Context, rows []model.Row) error {
	if len(rows) == 0 {
		return nil
	}

	_, statErr := os.Stat(s.path)
	needHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return goerr.Wrap(err, "failed to open CSV file", goerr.V("path", s.path))
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(s.headers); err != nil {
			return goerr.Wrap(err, "failed to write CSV header", goerr.V("path", s.path))
		}
	}

	record := make([]string, len(s.headers))
	for _, row := range rows {
		for i, h := range s.headers {
			record[i] = row[h]
		}
		if err := w.Write(record); err != nil {
			return goerr.Wrap(err, "failed to write CSV row", goerr.V("path", s.path))
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return goerr.Wrap(err, "failed to flush CSV file", goerr.V("path", s.path))
	}

	return nil
}
