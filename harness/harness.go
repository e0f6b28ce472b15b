// Package harness runs the external benchmark harness for a commit.
package harness

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/evergreen-ci/commitbench"
	"github.com/evergreen-ci/commitbench/model"
	"github.com/evergreen-ci/commitbench/util"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/level"
	"github.com/mongodb/grip/message"
	"github.com/mongodb/grip/send"
	"github.com/mongodb/jasper"
	"github.com/pkg/errors"
)

// Harness runs the configured benchmark command once per mode.
type Harness struct {
	conf commitbench.HarnessConfig

	// Output receives the combined output of the harness. When nil the
	// output is logged line by line.
	Output io.WriteCloser
}

func New(conf commitbench.HarnessConfig) *Harness {
	return &Harness{conf: conf}
}

// Run benchmarks the worktree, which must already be at the commit, and
// returns the output files in mode order. It stops at the first mode that
// fails.
func (h *Harness) Run(ctx context.Context, commit model.Commit, worktree string) ([]string, error) {
	if len(h.conf.Modes) == 0 {
		return nil, errors.New("no harness modes configured")
	}

	outputDir, err := filepath.Abs(h.conf.OutputDir)
	if err != nil {
		return nil, errors.Wrap(err, "problem resolving output directory")
	}
	if err = os.MkdirAll(outputDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "problem creating output directory %s", outputDir)
	}
	conf := h.conf
	conf.OutputDir = outputDir

	files := []string{}
	for _, mode := range conf.Modes {
		output := conf.OutputFile(mode.Name, commit.SHA)

		// the harness refuses to overwrite results from an earlier run
		if err = os.Remove(output); err != nil && !os.IsNotExist(err) {
			return files, errors.Wrapf(err, "problem removing stale output %s", output)
		}

		args := h.Command(mode, output, commit, worktree)
		grip.Info(message.Fields{
			"message": "running benchmark harness",
			"commit":  commit.Short(),
			"mode":    mode.Name,
			"output":  output,
		})

		if err = h.exec(ctx, args, commit, worktree); err != nil {
			return files, errors.Wrapf(err, "harness failed for mode '%s' at commit %s", mode.Name, commit.Short())
		}
		if !util.FileExists(output) {
			return files, errors.Errorf("harness did not write %s for mode '%s'", output, mode.Name)
		}

		files = append(files, output)
	}

	return files, nil
}

// Command expands the command template for one mode.
func (h *Harness) Command(mode commitbench.HarnessMode, output string, commit model.Commit, worktree string) []string {
	replacer := strings.NewReplacer(
		commitbench.OutputPlaceholder, output,
		commitbench.WorktreePlaceholder, worktree,
		commitbench.SHAPlaceholder, commit.SHA,
	)

	args := make([]string, 0, len(h.conf.Command)+len(mode.Args))
	for _, arg := range h.conf.Command {
		args = append(args, replacer.Replace(arg))
	}
	for _, arg := range mode.Args {
		args = append(args, replacer.Replace(arg))
	}

	return args
}

// Env returns the variables exported to the harness on top of the process
// environment.
func (h *Harness) Env(commit model.Commit, worktree string) map[string]string {
	env := make(map[string]string, len(h.conf.Env)+4)
	for k, v := range h.conf.Env {
		env[k] = v
	}
	env[h.conf.WorktreeEnv] = worktree
	env[commitbench.CommitTimestampEnv] = commit.Timestamp.Format("2006-01-02T15:04:05-07:00")
	env[commitbench.CommitSHAEnv] = commit.SHA
	env[commitbench.CommitMessageEnv] = commit.Title

	return env
}

func (h *Harness) exec(ctx context.Context, args []string, commit model.Commit, worktree string) error {
	out := h.Output
	if out == nil {
		writer := send.MakeWriterSender(grip.GetSender(), level.Info)
		defer writer.Close()
		out = writer
	}

	cmd := jasper.NewCommand().Add(args).SetCombinedWriter(out)
	if h.conf.Dir != "" {
		cmd.Directory(h.conf.Dir)
	}
	for k, v := range h.Env(commit, worktree) {
		cmd.AddEnv(k, v)
	}

	return errors.WithStack(cmd.Run(ctx))
}
