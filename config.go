package commitbench

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/evergreen-ci/commitbench/util"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
)

// Configuration defines a single benchmark run across a range of commits.
type Configuration struct {
	Worktree          string `yaml:"worktree"`
	CloneURL          string `yaml:"clone_url"`
	StartCommit       string `yaml:"start_commit"`
	EndCommit         string `yaml:"end_commit"`
	Randomize         bool   `yaml:"randomize"`
	Seed              int64  `yaml:"seed"`
	DeleteOutputFiles bool   `yaml:"delete_output_files"`
	DeleteRepo        bool   `yaml:"delete_repo"`
	RestoreCheckout   bool   `yaml:"restore_checkout"`

	Harness HarnessConfig `yaml:"harness"`
	Elastic ElasticConfig `yaml:"elastic"`
	Mongo   MongoConfig   `yaml:"mongo"`
	Report  ReportConfig  `yaml:"report"`
	Archive ArchiveConfig `yaml:"archive"`
}

// HarnessMode is one invocation of the benchmark harness per commit. Args
// are appended to the harness command.
type HarnessMode struct {
	Name string   `yaml:"name"`
	Args []string `yaml:"args"`
}

type HarnessConfig struct {
	Command     []string          `yaml:"command"`
	Dir         string            `yaml:"dir"`
	OutputDir   string            `yaml:"output_dir"`
	Env         map[string]string `yaml:"env"`
	WorktreeEnv string            `yaml:"worktree_env"`
	Modes       []HarnessMode     `yaml:"modes"`
}

type ElasticConfig struct {
	URL          string `yaml:"url"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Insecure     bool   `yaml:"insecure"`
	ResultsIndex string `yaml:"results_index"`
	CommitsIndex string `yaml:"commits_index"`
}

type MongoConfig struct {
	URI               string        `yaml:"uri"`
	Database          string        `yaml:"database"`
	CredsFile         string        `yaml:"creds_file"`
	ResultsCollection string        `yaml:"results_collection"`
	CommitsCollection string        `yaml:"commits_collection"`
	DialTimeout       time.Duration `yaml:"dial_timeout"`
}

type ReportConfig struct {
	Dir     string `yaml:"dir"`
	Project string `yaml:"project"`
}

type ArchiveConfig struct {
	Type   string `yaml:"type"`
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
	Key    string `yaml:"key"`
	Secret string `yaml:"secret"`
}

// DefaultHarnessCommand runs a pyperf based benchmark script, exporting the
// commit metadata to the worker processes.
func DefaultHarnessCommand() []string {
	return []string{
		"python", "run_bench.py",
		"-o", OutputPlaceholder,
		"--inherit-environ",
		strings.Join([]string{CommitTimestampEnv, CommitSHAEnv, CommitMessageEnv, "PYTHONPATH"}, ","),
	}
}

// DefaultHarnessModes measures wall-clock time and memory allocations.
func DefaultHarnessModes() []HarnessMode {
	return []HarnessMode{
		{Name: "time"},
		{Name: "tracemalloc", Args: []string{"--tracemalloc"}},
	}
}

// NewConfiguration returns a configuration populated with the defaults. YAML
// documents and command line flags are layered on top of it.
func NewConfiguration() *Configuration {
	return &Configuration{
		Randomize:       true,
		RestoreCheckout: true,
		Harness: HarnessConfig{
			Command:     DefaultHarnessCommand(),
			OutputDir:   ".",
			WorktreeEnv: "PYTHONPATH",
			Modes:       DefaultHarnessModes(),
		},
	}
}

// LoadConfiguration reads a YAML configuration file on top of the defaults.
func LoadConfiguration(path string) (*Configuration, error) {
	conf := NewConfiguration()
	if err := util.ReadFileYAML(path, conf); err != nil {
		return nil, errors.Wrap(err, "problem reading configuration")
	}

	return conf, nil
}

func (c *Configuration) Validate() error {
	catcher := grip.NewBasicCatcher()

	catcher.NewWhen(c.Worktree == "", "must specify a worktree")
	catcher.NewWhen(c.EndCommit != "" && c.StartCommit == "", "cannot specify an end commit without a start commit")

	catcher.Add(c.Harness.validate())
	catcher.Add(c.Archive.validate())

	c.Elastic.setDefaults()
	c.Mongo.setDefaults()
	if c.Report.Project == "" && c.Worktree != "" {
		c.Report.Project = filepath.Base(filepath.Clean(c.Worktree))
	}

	return catcher.Resolve()
}

// HasUploaders reports if any result destination is configured.
func (c *Configuration) HasUploaders() bool {
	return c.Elastic.URL != "" || c.Mongo.URI != "" || c.Report.Dir != ""
}

func (h *HarnessConfig) validate() error {
	catcher := grip.NewBasicCatcher()

	if len(h.Command) == 0 {
		h.Command = DefaultHarnessCommand()
	}
	if len(h.Modes) == 0 {
		h.Modes = DefaultHarnessModes()
	}
	if h.OutputDir == "" {
		h.OutputDir = "."
	}
	if h.WorktreeEnv == "" {
		h.WorktreeEnv = "PYTHONPATH"
	}

	hasOutput := false
	for _, arg := range h.Command {
		if strings.Contains(arg, OutputPlaceholder) {
			hasOutput = true
			break
		}
	}
	catcher.ErrorfWhen(!hasOutput, "harness command must reference the output file with %s", OutputPlaceholder)

	seen := map[string]bool{}
	for idx, mode := range h.Modes {
		if mode.Name == "" {
			catcher.Errorf("harness mode %d has no name", idx)
			continue
		}
		catcher.ErrorfWhen(seen[mode.Name], "duplicate harness mode '%s'", mode.Name)
		seen[mode.Name] = true
	}

	return catcher.Resolve()
}

func (a *ArchiveConfig) validate() error {
	if a.Bucket == "" {
		return nil
	}

	switch a.Type {
	case "":
		a.Type = "local"
	case "local", "s3", "gridfs":
	default:
		return errors.Errorf("'%s' is not a valid archive type", a.Type)
	}

	return nil
}

func (e *ElasticConfig) setDefaults() {
	if e.ResultsIndex == "" {
		e.ResultsIndex = DefaultResultsIndex
	}
	if e.CommitsIndex == "" {
		e.CommitsIndex = DefaultCommitsIndex
	}
}

func (m *MongoConfig) setDefaults() {
	if m.Database == "" {
		m.Database = DefaultDatabaseName
	}
	if m.ResultsCollection == "" {
		m.ResultsCollection = DefaultResultsIndex
	}
	if m.CommitsCollection == "" {
		m.CommitsCollection = DefaultCommitsIndex
	}
	if m.DialTimeout <= 0 {
		m.DialTimeout = 2 * time.Second
	}
}

// OutputFile returns the path the harness writes its results to for one mode
// and commit.
func (h *HarnessConfig) OutputFile(mode, sha string) string {
	return filepath.Join(h.OutputDir, fmt.Sprintf("result.%s.%s.json", mode, sha))
}

// OutputFileMode returns the mode encoded in a file name produced by
// OutputFile, or an empty string if the name does not have that shape.
func OutputFileMode(path string) string {
	parts := strings.Split(filepath.Base(path), ".")
	if len(parts) != 4 || parts[0] != "result" || parts[3] != "json" {
		return ""
	}

	return parts[1]
}
