package operations

import (
	"context"

	"github.com/evergreen-ci/commitbench"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// loadConfiguration reads the configuration file, if any, and applies the
// flags that were set on top of it.
func loadConfiguration(c *cli.Context) (*commitbench.Configuration, error) {
	conf := commitbench.NewConfiguration()
	if path := c.String(configFlag); path != "" {
		var err error
		conf, err = commitbench.LoadConfiguration(path)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}

	setString := func(target *string, name string) {
		if val := c.String(name); val != "" {
			*target = val
		}
	}

	setString(&conf.Worktree, worktreeFlag)
	setString(&conf.StartCommit, startCommitFlag)
	setString(&conf.EndCommit, endCommitFlag)
	setString(&conf.CloneURL, cloneURLFlag)
	setString(&conf.Harness.OutputDir, outputDirFlag)

	setString(&conf.Elastic.URL, esURLFlag)
	setString(&conf.Elastic.User, esUserFlag)
	setString(&conf.Elastic.Password, esPasswordFlag)

	setString(&conf.Mongo.URI, dbURIFlag)
	setString(&conf.Mongo.CredsFile, dbCredsFileFlag)
	if c.IsSet(dbNameFlag) || conf.Mongo.Database == "" {
		setString(&conf.Mongo.Database, dbNameFlag)
	}

	setString(&conf.Report.Dir, reportDirFlag)

	setString(&conf.Archive.Bucket, bucketNameFlag)
	setString(&conf.Archive.Type, bucketTypeFlag)
	setString(&conf.Archive.Prefix, bucketPrefixFlag)

	if c.Bool(deleteOutputFilesFlag) {
		conf.DeleteOutputFiles = true
	}
	if c.Bool(deleteRepoFlag) {
		conf.DeleteRepo = true
	}
	if c.Bool(noRandomizeFlag) {
		conf.Randomize = false
	}
	if seed := c.Int64(seedFlag); seed != 0 {
		conf.Seed = seed
	}

	return conf, nil
}

// setupEnv builds and registers the process environment for a command.
func setupEnv(ctx context.Context, c *cli.Context, conf *commitbench.Configuration) (commitbench.Environment, error) {
	env, err := commitbench.NewEnvironment(ctx, c.Command.Name, conf)
	if err != nil {
		return nil, errors.Wrap(err, "problem setting up environment")
	}
	commitbench.SetEnvironment(env)

	return env, nil
}
