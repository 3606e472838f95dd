package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func stateCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "state",
		Usage: "Print the persisted sync watermark",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggingContext(ctx)

			state, err := cfg.newStateStore()
			if err != nil {
				return err
			}

			wm, err := state.Load(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to load sync state")
			}

			data, err := json.MarshalIndent(wm, "", "  ")
			if err != nil {
				return goerr.Wrap(err, "failed to encode watermark")
			}

			fmt.Fprintln(c.Root().Writer, string(data))
			return nil
		},
	}
}
