package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func resetCommand() *cli.Command {
	var (
		cfg   config
		force bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "force",
			Aliases:     []string{"f"},
			Usage:       "Actually remove the state file",
			Destination: &force,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "reset",
		Usage: "Remove the sync watermark so the next run is a full resync",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggingContext(ctx)

			if !force {
				return goerr.New("reset re-appends every response on the next run; use --force to confirm")
			}

			state, err := cfg.newStateStore()
			if err != nil {
				return err
			}

			if err := state.Reset(ctx); err != nil {
				return goerr.Wrap(err, "failed to reset sync state")
			}

			fmt.Fprintf(c.Root().Writer, "removed state file %s\n", cfg.stateFile)
			return nil
		},
	}
}
