package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/harvestloop/tallysync/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	_ "github.com/mattn/go-sqlite3"
)

// sqliteStore appends mapped rows to a local SQLite database. The reviews
// table is created on first use with one TEXT column per header.
type sqliteStore struct {
	path    string
	headers []string
}

// NewSQLite creates a RowStore backed by a SQLite database at path with the
// given column order.
func NewSQLite(path string, headers []string) RowStore {
	return &sqliteStore{path: path, headers: headers}
}

func (s *sqliteStore) Append(ctx context.Context, rows []model.Row) error {
	if len(rows) == 0 {
		return nil
	}

	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return goerr.Wrap(err, "failed to open SQLite database", goerr.V("path", s.path))
	}
	defer db.Close()

	cols := make([]string, len(s.headers))
	placeholders := make([]string, len(s.headers))
	for i, h := range s.headers {
		cols[i] = fmt.Sprintf("%q TEXT", h)
		placeholders[i] = "?"
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS reviews (%s)", strings.Join(cols, ", "))
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return goerr.Wrap(err, "failed to create reviews table", goerr.V("path", s.path))
	}

	quoted := make([]string, len(s.headers))
	for i, h := range s.headers {
		quoted[i] = fmt.Sprintf("%q", h)
	}
	insert := fmt.Sprintf("INSERT INTO reviews (%s) VALUES (%s)",
		strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return goerr.Wrap(err, "failed to prepare insert statement")
	}
	defer stmt.Close()

	args := make([]any, len(s.headers))
	for _, row := range rows {
		for i, h := range s.headers {
			args[i] = row[h]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return goerr.Wrap(err, "failed to insert row")
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit transaction")
	}

	return nil
}
