package operations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/evergreen-ci/commitbench/model"
	"github.com/evergreen-ci/commitbench/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

const resultFixture = "result.time.0123456789abcdef.json"

// runCommand runs one command of a stub app and returns what it wrote.
func runCommand(t *testing.T, cmd cli.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	app := cli.NewApp()
	app.Writer = buf
	app.ErrWriter = &bytes.Buffer{}
	app.Commands = []cli.Command{cmd}

	err := app.Run(append([]string{"commitbench", cmd.Name}, args...))
	return buf.String(), err
}

func TestCommands(t *testing.T) {
	t.Setenv(dbURIEnv, "")
	fixture, err := filepath.Abs(filepath.Join("testdata", resultFixture))
	require.NoError(t, err)

	for name, test := range map[string]func(t *testing.T){
		"SummarizePrintsResults": func(t *testing.T) {
			out, err := runCommand(t, Summarize(), "--commit", "0123456789abcdef", fixture)
			require.NoError(t, err)

			docs := []map[string]interface{}{}
			require.NoError(t, json.Unmarshal([]byte(out), &docs))
			require.NotEmpty(t, docs)
			for _, doc := range docs {
				assert.Equal(t, "0123456789abcdef", doc["sha"])
				assert.Equal(t, "time", doc["mode"])

				percentiles, ok := doc["percentiles"].(map[string]interface{})
				require.True(t, ok)
				for _, key := range []string{"0.0", "5.0", "25.0", "50.0", "75.0", "95.0", "99.0", "100.0"} {
					assert.Contains(t, percentiles, key)
				}
			}
		},
		"SummarizeModeOverride": func(t *testing.T) {
			out, err := runCommand(t, Summarize(), "--commit", "0123456789abcdef", "--mode", "tracemalloc", fixture)
			require.NoError(t, err)

			docs := []model.BenchmarkResult{}
			require.NoError(t, json.Unmarshal([]byte(out), &docs))
			require.NotEmpty(t, docs)
			assert.Equal(t, "tracemalloc", docs[0].Mode)
		},
		"SummarizeNeedsShaWithoutWorktree": func(t *testing.T) {
			_, err := runCommand(t, Summarize(), fixture)
			assert.Error(t, err)

			_, err = runCommand(t, Summarize(), "--commit", "HEAD", fixture)
			assert.Error(t, err)
		},
		"SummarizeResolvesCommitInWorktree": func(t *testing.T) {
			repo := testutils.NewGitRepo(t, 2)
			out, err := runCommand(t, Summarize(), "--worktree", repo.Dir, fixture)
			require.NoError(t, err)

			docs := []model.BenchmarkResult{}
			require.NoError(t, json.Unmarshal([]byte(out), &docs))
			require.NotEmpty(t, docs)
			assert.Equal(t, repo.Commits[1], docs[0].SHA)
		},
		"CommitsListsRange": func(t *testing.T) {
			repo := testutils.NewGitRepo(t, 4)
			out, err := runCommand(t, Commits(),
				"--worktree", repo.Dir,
				"--start-commit", repo.Commits[0],
				"--end-commit", repo.Commits[3],
				"--no-randomize",
			)
			require.NoError(t, err)

			commits := []model.Commit{}
			require.NoError(t, json.Unmarshal([]byte(out), &commits))
			require.Len(t, commits, 3)
			for idx, commit := range commits {
				assert.Equal(t, repo.Commits[idx+1], commit.SHA)
				assert.Equal(t, fmt.Sprintf("commit %d", idx+1), commit.Title)
				assert.True(t, repo.Dates[idx+1].Equal(commit.Timestamp))
			}
		},
		"CommitsMissingWorktree": func(t *testing.T) {
			_, err := runCommand(t, Commits(), "--worktree", filepath.Join(t.TempDir(), "DNE"))
			assert.Error(t, err)
		},
		"UploadUsesConfiguredWorktree": func(t *testing.T) {
			repo := testutils.NewGitRepo(t, 2)
			dir := t.TempDir()
			reports := filepath.Join(dir, "reports")
			conf := filepath.Join(dir, "commitbench.yaml")
			require.NoError(t, os.WriteFile(conf, []byte(fmt.Sprintf("worktree: %s\n", repo.Dir)), 0644))

			_, err := runCommand(t, Upload(), "--config", conf, "--report-dir", reports, fixture)
			require.NoError(t, err)

			data, err := os.ReadFile(filepath.Join(reports, repo.Commits[1]+".json"))
			require.NoError(t, err)
			report := map[string]interface{}{}
			require.NoError(t, json.Unmarshal(data, &report))
			assert.NotEmpty(t, report)
		},
		"UploadWorktreeFlagOverridesConfig": func(t *testing.T) {
			configured := testutils.NewGitRepo(t, 1)
			flagged := testutils.NewGitRepo(t, 2)
			dir := t.TempDir()
			reports := filepath.Join(dir, "reports")
			conf := filepath.Join(dir, "commitbench.yaml")
			require.NoError(t, os.WriteFile(conf, []byte(fmt.Sprintf("worktree: %s\n", configured.Dir)), 0644))

			_, err := runCommand(t, Upload(), "--config", conf, "--worktree", flagged.Dir, "--report-dir", reports, fixture)
			require.NoError(t, err)
			assert.FileExists(t, filepath.Join(reports, flagged.Commits[1]+".json"))
		},
		"UploadWithoutDestination": func(t *testing.T) {
			repo := testutils.NewGitRepo(t, 1)
			_, err := runCommand(t, Upload(), "--worktree", repo.Dir, fixture)
			assert.Error(t, err)
		},
		"ShowRequiresDatabase": func(t *testing.T) {
			_, err := runCommand(t, Show(), "0123456789abcdef")
			assert.Error(t, err)
		},
	} {
		t.Run(name, test)
	}
}
