package operations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli"
)

func TestRunFlags(t *testing.T) {
	assert := assert.New(t)

	cmd := Run()
	flagMap := map[string]cli.Flag{}
	for _, f := range cmd.Flags {
		flagMap[f.GetName()] = f
	}

	expected := []string{
		"config, c", "worktree", "start-commit", "end-commit", "clone-url",
		"es-url", "es-user", "es-password", "delete-output-files", "delete-repo",
		"no-randomize", "seed", "dbUri", "dbName", "dbCreds", "report-dir",
		"bucket", "bucket-type", "bucket-prefix", "output-dir",
	}
	for _, n := range expected {
		_, ok := flagMap[n]
		assert.True(ok, n)
	}
	assert.Len(cmd.Flags, len(expected))

	password, ok := flagMap[esPasswordFlag].(cli.StringFlag)
	assert.True(ok)
	assert.Equal(esPasswordEnv, password.EnvVar)
}

func TestCommandsHaveUniqueFlags(t *testing.T) {
	for _, cmd := range []cli.Command{Run(), Commits(), Summarize(), Upload(), Show()} {
		seen := map[string]bool{}
		for _, f := range cmd.Flags {
			assert.False(t, seen[f.GetName()], "%s: %s", cmd.Name, f.GetName())
			seen[f.GetName()] = true
		}
	}
}
