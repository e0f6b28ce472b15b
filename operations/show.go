package operations

import (
	"context"

	"github.com/evergreen-ci/commitbench"
	"github.com/evergreen-ci/commitbench/model"
	"github.com/evergreen-ci/commitbench/util"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Show returns the command that prints the stored results of a commit.
func Show() cli.Command {
	return cli.Command{
		Name:      "show",
		Usage:     "print the results stored in mongodb for a commit",
		ArgsUsage: "SHA",
		Flags: dbFlags(cli.StringFlag{
			Name:  commitFlag,
			Usage: "full sha of the commit",
		}),
		Before: mergeBeforeFuncs(setFlagOrFirstPositional(commitFlag), requireStringFlag(dbURIFlag)),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			conf := commitbench.NewConfiguration()
			conf.Worktree = "."
			conf.Mongo.URI = c.String(dbURIFlag)
			conf.Mongo.Database = c.String(dbNameFlag)
			conf.Mongo.CredsFile = c.String(dbCredsFileFlag)

			env, err := setupEnv(ctx, c, conf)
			if err != nil {
				return errors.WithStack(err)
			}
			defer func() {
				grip.Warning(message.WrapError(env.Close(ctx), "problem closing environment"))
			}()
			if err = commitbench.CheckDB(ctx, env); err != nil {
				return errors.WithStack(err)
			}

			sha := c.String(commitFlag)
			doc := &model.CommitDocument{SHA: sha}
			doc.Setup(env)
			if err = doc.Find(ctx); err != nil {
				return errors.WithStack(err)
			}

			results := &model.BenchmarkResults{}
			results.Setup(env)
			if err = results.FindByCommit(ctx, sha); err != nil {
				return errors.WithStack(err)
			}

			return errors.WithStack(util.FprintJSON(c.App.Writer, struct {
				Commit  *model.CommitDocument   `json:"commit"`
				SHA     string                  `json:"sha"`
				Results []model.BenchmarkResult `json:"results"`
			}{
				Commit:  doc,
				SHA:     sha,
				Results: results.Results,
			}))
		},
	}
}
