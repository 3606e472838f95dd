package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/harvestloop/tallysync/pkg/adapter"
	"github.com/harvestloop/tallysync/pkg/model"
	syncuc "github.com/harvestloop/tallysync/pkg/usecase/sync"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

func syncCommand() *cli.Command {
	var (
		cfg           config
		responsesFile string
		dryRun        bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "responses-file",
			Usage:       "Local JSON file containing pre-fetched Tally responses (for testing)",
			Sources:     cli.EnvVars("TALLYSYNC_RESPONSES_FILE"),
			Destination: &responsesFile,
		},
		&cli.StringFlag{
			Name:        "aliases",
			Usage:       "YAML file with extra question label aliases (label: column)",
			Sources:     cli.EnvVars("TALLYSYNC_ALIASES"),
			Destination: &cfg.aliasFile,
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Fetch and map responses without writing to disk",
			Destination: &dryRun,
		},
	}
	flags = append(flags, tallyFlags(&cfg)...)
	flags = append(flags, storeFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "sync",
		Usage: "Fetch new form responses and append them to the review store",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggingContext(ctx)

			source, err := cfg.newSource(responsesFile)
			if err != nil {
				return err
			}
			if responsesFile == "" && isatty.IsTerminal(os.Stderr.Fd()) {
				source = withProgress(source)
			}

			rows, err := cfg.newRowStore()
			if err != nil {
				return err
			}

			state, err := cfg.newStateStore()
			if err != nil {
				return err
			}

			m, err := cfg.newMapper()
			if err != nil {
				return err
			}

			uc := syncuc.New(source, rows, state, m,
				syncuc.WithOutput(c.Root().Writer))

			result, err := uc.Run(ctx, syncuc.RunOptions{DryRun: dryRun})
			if err != nil {
				return goerr.Wrap(err, "sync failed")
			}

			if !dryRun {
				fmt.Fprintf(c.Root().Writer, "fetched %d responses, appended %d new rows\n",
					result.Fetched, result.Appended)
			}

			return nil
		},
	}
}

// progressSource wraps a Source with a terminal spinner while the paginated
// fetch is in flight.
type progressSource struct {
	inner adapter.Source
	sp    *spinner.Spinner
}

func withProgress(inner adapter.Source) adapter.Source {
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithWriter(os.Stderr),
		spinner.WithSuffix(" fetching responses"))
	return &progressSource{inner: inner, sp: sp}
}

func (p *progressSource) Responses(ctx context.Context) ([]*model.Response, error) {
	p.sp.Start()
	defer p.sp.Stop()
	return p.inner.Responses(ctx)
}
