package vcs

import (
	"bytes"
	"context"
	"strings"

	"github.com/mongodb/jasper"
	"github.com/pkg/errors"
)

// closingBuffer lets a bytes.Buffer stand in for a process output stream.
type closingBuffer struct{ bytes.Buffer }

func (b *closingBuffer) Close() error { return nil }

// git runs git in dir, returning its standard output. Standard error is
// included in the returned error.
func git(ctx context.Context, dir string, args ...string) (string, error) {
	stdout := &closingBuffer{}
	stderr := &closingBuffer{}

	cmd := jasper.NewCommand().Add(append([]string{"git"}, args...)).
		SetOutputWriter(stdout).
		SetErrorWriter(stderr)
	if dir != "" {
		cmd.Directory(dir)
	}

	if err := cmd.Run(ctx); err != nil {
		return "", errors.Wrapf(err, "git %s failed: %s", ArgsString(args), strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// ArgsString returns a string suitable for copy/paste into the terminal.
func ArgsString(args []string) string {
	b := &bytes.Buffer{}

	for i, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " \t\n") {
			b.WriteString(`"`)
			b.WriteString(arg)
			b.WriteString(`"`)
		} else {
			b.WriteString(arg)
		}

		if i < len(args)-1 {
			b.WriteString(" ")
		}
	}

	return b.String()
}
