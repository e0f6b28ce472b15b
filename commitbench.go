/*
Package commitbench holds a number of application level constants and shared
resources for the commitbench application, which runs a benchmark harness
across a range of commits of a target project and uploads the results.
*/
package commitbench

// BuildRevision stores the commit in the git repository at build time and is
// specified with -ldflags at build time.
var BuildRevision = ""

const (
	AppName = "commitbench"

	DefaultResultsIndex = "benchmark-python"
	DefaultCommitsIndex = "benchmark-py-commits"
	DefaultDatabaseName = "commitbench"

	// Environment variables exported to the benchmark harness.
	CommitTimestampEnv = "COMMIT_TIMESTAMP"
	CommitSHAEnv       = "COMMIT_SHA"
	CommitMessageEnv   = "COMMIT_MESSAGE"

	// Placeholders expanded in the harness command template.
	OutputPlaceholder   = "{output}"
	WorktreePlaceholder = "{worktree}"
	SHAPlaceholder      = "{sha}"
)
