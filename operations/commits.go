package operations

import (
	"context"

	"github.com/evergreen-ci/commitbench/runner"
	"github.com/evergreen-ci/commitbench/util"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Commits returns the command that prints the commits a run would
// benchmark, without running anything.
func Commits() cli.Command {
	return cli.Command{
		Name:   "commits",
		Usage:  "list the commits selected for benchmarking as json",
		Flags:  mergeFlags(configFlags(), worktreeFlags(), runFlags()),
		Before: requireFileExistsIfSet(configFlag),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			conf, err := loadConfiguration(c)
			if err != nil {
				return errors.WithStack(err)
			}
			env, err := setupEnv(ctx, c, conf)
			if err != nil {
				return errors.WithStack(err)
			}
			defer func() {
				grip.Warning(message.WrapError(env.Close(ctx), "problem closing environment"))
			}()

			_, selection, err := runner.Prepare(ctx, env)
			if err != nil {
				return errors.WithStack(err)
			}
			if conf.Randomize && conf.Seed != 0 {
				runner.Shuffle(selection.Commits, conf.Seed)
			}

			return errors.WithStack(util.FprintJSON(c.App.Writer, selection.Commits))
		},
	}
}
