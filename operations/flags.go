package operations

import (
	"strings"

	"github.com/evergreen-ci/commitbench"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

////////////////////////////////////////////////////////////////////////
//
// Flag Name Constants

const (
	configFlag = "config"

	worktreeFlag    = "worktree"
	startCommitFlag = "start-commit"
	endCommitFlag   = "end-commit"
	cloneURLFlag    = "clone-url"
	commitFlag      = "commit"
	modeFlag        = "mode"
	outputDirFlag   = "output-dir"

	deleteOutputFilesFlag = "delete-output-files"
	deleteRepoFlag        = "delete-repo"
	noRandomizeFlag       = "no-randomize"
	seedFlag              = "seed"

	esURLFlag      = "es-url"
	esUserFlag     = "es-user"
	esPasswordFlag = "es-password"

	dbURIFlag       = "dbUri"
	dbNameFlag      = "dbName"
	dbCredsFileFlag = "dbCreds"

	reportDirFlag = "report-dir"

	bucketNameFlag   = "bucket"
	bucketTypeFlag   = "bucket-type"
	bucketPrefixFlag = "bucket-prefix"

	esPasswordEnv = "ES_PASSWORD"
	dbURIEnv      = "COMMITBENCH_MONGODB_URL"
	credsFileEnv  = "COMMITBENCH_DB_CREDS_FILE"
)

////////////////////////////////////////////////////////////////////////
//
// Utility Functions

func joinFlagNames(ids ...string) string { return strings.Join(ids, ", ") }

func mergeFlags(in ...[]cli.Flag) []cli.Flag {
	out := []cli.Flag{}

	for idx := range in {
		out = append(out, in[idx]...)
	}

	return out
}

////////////////////////////////////////////////////////////////////////
//
// Flag Groups

func configFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  joinFlagNames(configFlag, "c"),
		Usage: "path to a yaml configuration file, flags override its values",
	})
}

func worktreeFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:  worktreeFlag,
			Usage: "worktree of the project to run benchmarks in",
		},
		cli.StringFlag{
			Name:  startCommitFlag,
			Usage: "first commit to benchmark. If left empty, the current worktree state is benchmarked",
		},
		cli.StringFlag{
			Name:  endCommitFlag,
			Usage: "last commit to benchmark. If left empty, only the start commit is benchmarked",
		},
		cli.StringFlag{
			Name:  cloneURLFlag,
			Usage: "git url to clone into the worktree when it does not exist",
		})
}

func runFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.BoolFlag{
			Name:  deleteOutputFilesFlag,
			Usage: "delete benchmark output files after the run",
		},
		cli.BoolFlag{
			Name:  deleteRepoFlag,
			Usage: "delete the worktree after the run",
		},
		cli.BoolFlag{
			Name:  noRandomizeFlag,
			Usage: "benchmark commits in history order instead of a random order",
		},
		cli.Int64Flag{
			Name:  seedFlag,
			Usage: "seed for the commit order, random when unset",
		},
		cli.StringFlag{
			Name:  outputDirFlag,
			Usage: "directory the harness writes its output files to",
		})
}

func elasticFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:  esURLFlag,
			Usage: "elasticsearch url to upload results to",
		},
		cli.StringFlag{
			Name:  esUserFlag,
			Usage: "elasticsearch user",
		},
		cli.StringFlag{
			Name:   esPasswordFlag,
			Usage:  "elasticsearch password",
			EnvVar: esPasswordEnv,
		})
}

func dbFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:   dbURIFlag,
			Usage:  "specify a mongodb connection string to upload results to",
			EnvVar: dbURIEnv,
		},
		cli.StringFlag{
			Name:   dbNameFlag,
			Usage:  "specify a database name to use",
			Value:  commitbench.DefaultDatabaseName,
			EnvVar: "COMMITBENCH_DATABASE_NAME",
		},
		cli.StringFlag{
			Name:   dbCredsFileFlag,
			Usage:  "specify a DB credential file location",
			EnvVar: credsFileEnv,
		})
}

func reportFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  reportDirFlag,
		Usage: "directory to write one poplar report per commit to",
	})
}

func archiveFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:   bucketNameFlag,
			Usage:  "bucket (or directory for local buckets) to archive output files in",
			EnvVar: "COMMITBENCH_BUCKET_NAME",
		},
		cli.StringFlag{
			Name:  bucketTypeFlag,
			Usage: "archive bucket type: 'local', 's3' or 'gridfs'",
		},
		cli.StringFlag{
			Name:  bucketPrefixFlag,
			Usage: "key prefix for archived output files",
		})
}

func uploadFlags(flags ...cli.Flag) []cli.Flag {
	return mergeFlags(flags, elasticFlags(), dbFlags(), reportFlags(), archiveFlags())
}

func addCommitFlag(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  commitFlag,
		Usage: "commit the result files belong to",
		Value: "HEAD",
	})
}

func addModeFlag(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  modeFlag,
		Usage: "harness mode of the result files, taken from the file names when unset",
	})
}

func setFlagOrFirstPositional(name string) cli.BeforeFunc {
	return func(c *cli.Context) error {
		val := c.String(name)
		if val == "" {
			if c.NArg() != 1 {
				return errors.Errorf("must specify exactly one positional argument for '%s'", name)
			}

			val = c.Args().Get(0)
		}

		return c.Set(name, val)
	}
}
