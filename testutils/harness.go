package testutils

import (
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/evergreen-ci/commitbench"
	"github.com/stretchr/testify/require"
)

// FailSHAEnv names the variable that makes the fake harness fail at one
// commit.
const FailSHAEnv = "FAKE_HARNESS_FAIL_SHA"

const fakeHarnessScript = `if [ -n "$FAKE_HARNESS_FAIL_SHA" ] && [ "$COMMIT_SHA" = "$FAKE_HARNESS_FAIL_SHA" ]; then
	echo "benchmark crashed" >&2
	exit 1
fi
cp "$FAKE_HARNESS_FIXTURE" "$1"`

// FakeHarness returns a harness configuration whose command copies a pyperf
// fixture to the output file for every mode.
func FakeHarness(t *testing.T, fixture string) commitbench.HarnessConfig {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not installed")
	}

	abs, err := filepath.Abs(fixture)
	require.NoError(t, err)

	return commitbench.HarnessConfig{
		Command:     []string{"sh", "-c", fakeHarnessScript, "harness", commitbench.OutputPlaceholder},
		OutputDir:   filepath.Join(t.TempDir(), "results"),
		Env:         map[string]string{"FAKE_HARNESS_FIXTURE": abs},
		WorktreeEnv: "PYTHONPATH",
		Modes:       commitbench.DefaultHarnessModes(),
	}
}
