package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/harvestloop/tallysync/pkg/adapter"
	"github.com/harvestloop/tallysync/pkg/model"
	"github.com/harvestloop/tallysync/pkg/repository"
	"github.com/harvestloop/tallysync/pkg/service/mapper"
	"github.com/harvestloop/tallysync/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// config holds configuration values shared across commands
type config struct {
	// Upstream
	apiKey string
	formID string

	// Storage
	outputPath string
	storeKind  string
	stateFile  string

	// Mapper
	aliasFile string

	// Logging
	logLevel string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "state-file",
			Usage:       "File used to store the last processed response metadata",
			Value:       ".github/tally_state.json",
			Sources:     cli.EnvVars("TALLYSYNC_STATE_FILE"),
			Destination: &cfg.stateFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("TALLYSYNC_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// tallyFlags returns flags for the upstream Tally API with destination config
func tallyFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "api-key",
			Usage:       "Tally API key",
			Sources:     cli.EnvVars("TALLY_API_KEY"),
			Destination: &cfg.apiKey,
		},
		&cli.StringFlag{
			Name:        "form-id",
			Usage:       "Tally form ID",
			Sources:     cli.EnvVars("TALLY_FORM_ID"),
			Destination: &cfg.formID,
		},
	}
}

// storeFlags returns flags for the tabular output store with destination config
func storeFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "csv-path",
			Aliases:     []string{"o"},
			Usage:       "Path to the review store that should be updated",
			Value:       "reviews.csv",
			Sources:     cli.EnvVars("TALLYSYNC_CSV_PATH"),
			Destination: &cfg.outputPath,
		},
		&cli.StringFlag{
			Name:        "store",
			Usage:       "Store backend: csv or sqlite (default: inferred from path)",
			Sources:     cli.EnvVars("TALLYSYNC_STORE"),
			Destination: &cfg.storeKind,
		},
	}
}

// loggingContext builds the run logger and attaches it to the context. Each
// run gets a unique run_id for correlating log lines.
func (cfg *config) loggingContext(ctx context.Context) context.Context {
	logger := logging.New(cfg.logLevel, os.Stderr).With("run_id", uuid.New().String())
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// newSource creates the upstream source. A responses file takes precedence
// over the live API and removes the api-key/form-id requirement.
func (cfg *config) newSource(responsesFile string) (adapter.Source, error) {
	if responsesFile != "" {
		return adapter.NewLocalFile(responsesFile), nil
	}

	if cfg.apiKey == "" || cfg.formID == "" {
		return nil, goerr.New("api-key and form-id are required unless --responses-file is used")
	}

	return adapter.NewTally(cfg.apiKey, cfg.formID), nil
}

// newRowStore creates the tabular store for mapped rows
func (cfg *config) newRowStore() (repository.RowStore, error) {
	kind := cfg.storeKind
	if kind == "" {
		switch strings.ToLower(filepath.Ext(cfg.outputPath)) {
		case ".db", ".sqlite", ".sqlite3":
			kind = "sqlite"
		default:
			kind = "csv"
		}
	}

	switch kind {
	case "csv":
		return repository.NewCSV(cfg.outputPath, model.Headers), nil
	case "sqlite":
		return repository.NewSQLite(cfg.outputPath, model.Headers), nil
	default:
		return nil, goerr.New("unknown store backend", goerr.V("store", kind))
	}
}

// newStateStore creates the watermark store
func (cfg *config) newStateStore() (repository.StateStore, error) {
	if cfg.stateFile == "" {
		return nil, goerr.New("state-file is required")
	}
	return repository.NewStateFile(cfg.stateFile), nil
}

// newMapper creates the field mapper, applying alias overrides when set
func (cfg *config) newMapper() (*mapper.Mapper, error) {
	var opts []mapper.Option
	if cfg.aliasFile != "" {
		opts = append(opts, mapper.WithAliasFile(cfg.aliasFile))
	}

	m, err := mapper.New(model.Headers, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create field mapper")
	}
	return m, nil
}
