package units

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evergreen-ci/commitbench"
	"github.com/evergreen-ci/commitbench/archive"
	"github.com/evergreen-ci/commitbench/model"
	"github.com/evergreen-ci/commitbench/testutils"
	"github.com/evergreen-ci/commitbench/vcs"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/level"
	"github.com/mongodb/grip/send"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockUploader struct {
	err     error
	commits []string
	results int
}

func (m *mockUploader) Name() string { return "mock" }

func (m *mockUploader) Upload(_ context.Context, commit model.Commit, results []model.BenchmarkResult) error {
	m.commits = append(m.commits, commit.SHA)
	m.results += len(results)
	return m.err
}

func (m *mockUploader) Close(_ context.Context) error { return nil }

// captureLog routes grip to an in-memory sender until the test ends and
// returns a function that drains the logged lines.
func captureLog(t *testing.T) func() []string {
	original := grip.GetSender()
	sender := send.MakeInternalLogger()
	require.NoError(t, grip.SetSender(sender))
	require.NoError(t, sender.SetLevel(send.LevelInfo{Default: level.Info, Threshold: level.Info}))
	t.Cleanup(func() { require.NoError(t, grip.SetSender(original)) })

	return func() []string {
		lines := []string{}
		for sender.HasMessage() {
			lines = append(lines, sender.GetMessage().Message.String())
		}
		return lines
	}
}

func TestBenchmarkCommitJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := testutils.NewGitRepo(t, 3)
	commits, err := vcs.NewRepository(repo.Dir).ListCommits(ctx, repo.Commits[0], repo.Commits[2])
	require.NoError(t, err)
	require.Len(t, commits, 2)

	newEnv := func(t *testing.T) *testutils.MockEnvironment {
		conf := commitbench.NewConfiguration()
		conf.Worktree = repo.Dir
		conf.Harness = testutils.FakeHarness(t, filepath.Join("testdata", "suite.json"))
		require.NoError(t, conf.Validate())
		return &testutils.MockEnvironment{Conf: conf}
	}
	head := func(t *testing.T) string {
		return strings.TrimSpace(repo.Git(t, "rev-parse", "HEAD"))
	}

	for name, test := range map[string]func(t *testing.T){
		"ChecksOutRunsAndUploads": func(t *testing.T) {
			env := newEnv(t)
			up := &mockUploader{}
			j, err := NewBenchmarkCommitJob(commits[0], repo.Dir, true, 0, 2, BenchmarkCommitOptions{Env: env, Uploader: up})
			require.NoError(t, err)

			j.Run(ctx)
			require.NoError(t, j.Error())
			assert.True(t, j.Status().Completed)
			assert.Equal(t, commits[0].SHA, head(t))
			require.Len(t, j.Files, 2)
			assert.Equal(t, env.Conf.Harness.OutputFile("time", commits[0].SHA), j.Files[0])
			assert.Equal(t, []string{commits[0].SHA}, up.commits)
			assert.Equal(t, 4, up.results)
		},
		"CurrentStateIsNotCheckedOut": func(t *testing.T) {
			repo.Git(t, "checkout", "--quiet", repo.Commits[2])
			j, err := NewBenchmarkCommitJob(commits[0], repo.Dir, false, 0, 1, BenchmarkCommitOptions{Env: newEnv(t)})
			require.NoError(t, err)

			j.Run(ctx)
			require.NoError(t, j.Error())
			assert.Equal(t, repo.Commits[2], head(t))
			assert.Len(t, j.Files, 2)
		},
		"HarnessFailure": func(t *testing.T) {
			env := newEnv(t)
			env.Conf.Harness.Env[testutils.FailSHAEnv] = commits[1].SHA
			up := &mockUploader{}
			j, err := NewBenchmarkCommitJob(commits[1], repo.Dir, true, 1, 2, BenchmarkCommitOptions{Env: env, Uploader: up})
			require.NoError(t, err)

			j.Run(ctx)
			assert.Error(t, j.Error())
			assert.True(t, j.Status().Completed)
			assert.Empty(t, j.Files)
			assert.Empty(t, up.commits)
		},
		"UploadFailure": func(t *testing.T) {
			up := &mockUploader{err: errors.New("cluster unavailable")}
			j, err := NewBenchmarkCommitJob(commits[1], repo.Dir, true, 1, 2, BenchmarkCommitOptions{Env: newEnv(t), Uploader: up})
			require.NoError(t, err)

			j.Run(ctx)
			require.Error(t, j.Error())
			assert.Contains(t, j.Error().Error(), "cluster unavailable")
			assert.Len(t, j.Files, 2)
		},
		"UnknownCommit": func(t *testing.T) {
			commit := commits[0]
			commit.SHA = strings.Repeat("f", 40)
			j, err := NewBenchmarkCommitJob(commit, repo.Dir, true, 0, 1, BenchmarkCommitOptions{Env: newEnv(t)})
			require.NoError(t, err)

			j.Run(ctx)
			assert.Error(t, j.Error())
			assert.Empty(t, j.Files)
		},
		"Archives": func(t *testing.T) {
			env := newEnv(t)
			bucket := t.TempDir()
			b, err := archive.Local.Create(ctx, env, commitbench.ArchiveConfig{Bucket: bucket})
			require.NoError(t, err)

			j, err := NewBenchmarkCommitJob(commits[0], repo.Dir, true, 0, 1, BenchmarkCommitOptions{Env: env, Archiver: archive.NewArchiver(b)})
			require.NoError(t, err)

			j.Run(ctx)
			require.NoError(t, j.Error())
			for _, fn := range j.Files {
				assert.FileExists(t, filepath.Join(bucket, archive.Key(commits[0], fn)))
			}
		},
		"LogsProgress": func(t *testing.T) {
			logged := captureLog(t)
			j, err := NewBenchmarkCommitJob(commits[1], repo.Dir, true, 1, 2, BenchmarkCommitOptions{Env: newEnv(t), Uploader: &mockUploader{}})
			require.NoError(t, err)

			j.Run(ctx)
			require.NoError(t, j.Error())
			lines := logged()
			assert.Contains(t, lines, fmt.Sprintf("Running bench for commit %s (2 of 2)", commits[1].Short()))
			assert.Contains(t, lines, fmt.Sprintf("Uploading bench for commit %s", commits[1].Short()))
		},
		"SingleCommitSkipsProgress": func(t *testing.T) {
			logged := captureLog(t)
			j, err := NewBenchmarkCommitJob(commits[0], repo.Dir, true, 0, 1, BenchmarkCommitOptions{Env: newEnv(t)})
			require.NoError(t, err)

			j.Run(ctx)
			require.NoError(t, j.Error())
			for _, line := range logged() {
				assert.NotContains(t, line, "Running bench for commit")
				assert.NotContains(t, line, "Uploading bench")
			}
		},
		"Validation": func(t *testing.T) {
			_, err := NewBenchmarkCommitJob(model.Commit{}, repo.Dir, true, 0, 1, BenchmarkCommitOptions{})
			assert.Error(t, err)
			_, err = NewBenchmarkCommitJob(commits[0], "", true, 0, 1, BenchmarkCommitOptions{})
			assert.Error(t, err)
			_, err = NewBenchmarkCommitJob(commits[0], repo.Dir, true, 2, 2, BenchmarkCommitOptions{})
			assert.Error(t, err)
		},
	} {
		t.Run(name, test)
	}
}
