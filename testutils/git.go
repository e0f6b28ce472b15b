// Package testutils provides fixtures shared by the tests of several
// packages.
package testutils

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// GitRepo is a throwaway git repository with a linear history.
type GitRepo struct {
	Dir     string
	Commits []string // oldest first
	Dates   []time.Time
}

// RequireGit skips the test when git is not installed.
func RequireGit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
}

// NewGitRepo creates a repository with n commits on the main branch. Each
// commit changes bench.txt and is authored one hour after the previous one.
func NewGitRepo(t *testing.T, n int) *GitRepo {
	RequireGit(t)

	repo := &GitRepo{Dir: filepath.Join(t.TempDir(), "source")}
	require.NoError(t, os.MkdirAll(repo.Dir, 0755))
	repo.Git(t, "init", "--quiet")
	repo.Git(t, "symbolic-ref", "HEAD", "refs/heads/main")

	start := time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		repo.Commit(t, fmt.Sprintf("commit %d\n\nbody of commit %d", i, i), start.Add(time.Duration(i)*time.Hour))
	}

	return repo
}

// Commit writes a change and commits it with the given message and date.
func (r *GitRepo) Commit(t *testing.T, msg string, date time.Time) string {
	fn := filepath.Join(r.Dir, "bench.txt")
	require.NoError(t, os.WriteFile(fn, []byte(fmt.Sprintf("%s\n%d\n", msg, len(r.Commits))), 0644))
	r.Git(t, "add", "bench.txt")

	stamp := date.Format("2006-01-02T15:04:05-07:00")
	r.GitEnv(t, []string{"GIT_AUTHOR_DATE=" + stamp, "GIT_COMMITTER_DATE=" + stamp}, "-c", "commit.gpgsign=false", "commit", "--quiet", "-m", msg)

	sha := strings.TrimSpace(r.Git(t, "rev-parse", "HEAD"))
	r.Commits = append(r.Commits, sha)
	r.Dates = append(r.Dates, date)

	return sha
}

// Git runs git in the repository, failing the test on error.
func (r *GitRepo) Git(t *testing.T, args ...string) string {
	return r.GitEnv(t, nil, args...)
}

func (r *GitRepo) GitEnv(t *testing.T, env []string, args ...string) string {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=bench", "GIT_AUTHOR_EMAIL=bench@example.com",
		"GIT_COMMITTER_NAME=bench", "GIT_COMMITTER_EMAIL=bench@example.com",
		"GIT_CONFIG_NOSYSTEM=1",
	)
	cmd.Env = append(cmd.Env, env...)

	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)

	return string(out)
}
