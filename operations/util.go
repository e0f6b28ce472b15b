package operations

import (
	"fmt"
	"io"

	"github.com/evergreen-ci/commitbench/runner"
	"github.com/pkg/errors"
)

// printFailures lists the commits that failed, one per line.
func printFailures(w io.Writer, report *runner.Report) error {
	if report == nil || !report.HasFailures() {
		return nil
	}

	if _, err := fmt.Fprintln(w, "Failed commits:"); err != nil {
		return errors.WithStack(err)
	}
	for _, sha := range report.FailedSHAs() {
		if _, err := fmt.Fprintln(w, sha); err != nil {
			return errors.WithStack(err)
		}
	}
	_, err := fmt.Fprintln(w)

	return errors.WithStack(err)
}
