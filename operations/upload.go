package operations

import (
	"context"

	"github.com/evergreen-ci/commitbench/archive"
	"github.com/evergreen-ci/commitbench/store"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Upload returns the command that uploads existing harness output files for
// a commit.
func Upload() cli.Command {
	return cli.Command{
		Name:      "upload",
		Usage:     "upload harness output files of one commit to the configured destinations",
		ArgsUsage: "FILE...",
		Flags: mergeFlags(configFlags(), addCommitFlag(cli.StringFlag{
			Name:  worktreeFlag,
			Usage: "worktree to resolve the commit in, defaults to the configured worktree or the current directory",
		}), uploadFlags()),
		Before: mergeBeforeFuncs(requireFileExistsIfSet(configFlag), requireArgs(1), requireFilesExist, requireResultFileNames),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			conf, err := loadConfiguration(c)
			if err != nil {
				return errors.WithStack(err)
			}
			if conf.Worktree == "" {
				conf.Worktree = "."
			}
			if !conf.HasUploaders() && conf.Archive.Bucket == "" {
				return errors.New("no upload destination configured")
			}

			env, err := setupEnv(ctx, c, conf)
			if err != nil {
				return errors.WithStack(err)
			}
			defer func() {
				grip.Warning(message.WrapError(env.Close(ctx), "problem closing environment"))
			}()

			commit, err := resolveCommit(ctx, conf.Worktree, c.String(commitFlag))
			if err != nil {
				return errors.WithStack(err)
			}
			files := c.Args()

			uploader, err := store.New(env)
			if err != nil {
				return errors.WithStack(err)
			}
			defer func() {
				grip.Warning(message.WrapError(uploader.Close(ctx), "problem closing uploaders"))
			}()
			if len(uploader) > 0 {
				if err = store.Publish(ctx, uploader, commit, files); err != nil {
					return errors.WithStack(err)
				}
			}

			archiver, err := archive.New(ctx, env)
			if err != nil {
				return errors.WithStack(err)
			}
			if archiver != nil {
				if err = archiver.Archive(ctx, commit, files); err != nil {
					return errors.WithStack(err)
				}
			}

			grip.Info(message.Fields{
				"message": "uploaded results",
				"commit":  commit.Short(),
				"files":   len(files),
			})
			return nil
		},
	}
}
