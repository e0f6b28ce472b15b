package operations

import (
	"github.com/evergreen-ci/commitbench"
	"github.com/evergreen-ci/commitbench/util"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

func requireStringFlag(name string) cli.BeforeFunc {
	return func(c *cli.Context) error {
		if c.String(name) == "" {
			return errors.Errorf("flag '--%s' was not specified", name)
		}
		return nil
	}
}

func requireArgs(min int) cli.BeforeFunc {
	return func(c *cli.Context) error {
		if c.NArg() < min {
			return errors.Errorf("must specify at least %d positional argument(s)", min)
		}
		return nil
	}
}

func requireFileExistsIfSet(name string) cli.BeforeFunc {
	return func(c *cli.Context) error {
		path := c.String(name)
		if path != "" && !util.FileExists(path) {
			return errors.Errorf("file '%s' does not exist", path)
		}

		return nil
	}
}

func requireFilesExist(c *cli.Context) error {
	catcher := grip.NewBasicCatcher()
	for _, path := range c.Args() {
		catcher.ErrorfWhen(!util.FileExists(path), "file '%s' does not exist", path)
	}
	return catcher.Resolve()
}

// requireResultFileNames checks that the harness mode of every positional
// file can be read from its name, unless a mode flag was given.
func requireResultFileNames(c *cli.Context) error {
	if c.String(modeFlag) != "" {
		return nil
	}

	catcher := grip.NewBasicCatcher()
	for _, path := range c.Args() {
		catcher.ErrorfWhen(commitbench.OutputFileMode(path) == "",
			"cannot tell the harness mode of '%s', expected a name like 'result.<mode>.<sha>.json'", path)
	}
	return catcher.Resolve()
}

func mergeBeforeFuncs(ops ...func(c *cli.Context) error) cli.BeforeFunc {
	return func(c *cli.Context) error {
		catcher := grip.NewBasicCatcher()

		for _, op := range ops {
			catcher.Add(op(c))
		}

		return catcher.Resolve()
	}
}
