package operations

import (
	"context"
	"os"

	"github.com/evergreen-ci/commitbench/runner"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Run returns the command that benchmarks a range of commits.
func Run() cli.Command {
	return cli.Command{
		Name:   "run",
		Usage:  "run the benchmark harness at every commit of a range and upload the results",
		Flags:  mergeFlags(configFlags(), worktreeFlags(), runFlags(), uploadFlags()),
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

			report, err := runner.Run(ctx, env)
			if err != nil {
				return errors.Wrap(err, "problem running benchmarks")
			}

			grip.Info(message.Fields{
				"message": "completed benchmark run",
				"commits": len(report.Commits),
				"failed":  len(report.Failed),
				"files":   len(report.Files),
				"seed":    report.Seed,
			})

			if err = printFailures(os.Stdout, report); err != nil {
				return errors.WithStack(err)
			}
			if report.HasFailures() {
				return errors.Errorf("%d of %d commit(s) failed", len(report.Failed), len(report.Commits))
			}

			return nil
		},
	}
}
