package model

import (
	"context"
	"testing"
	"time"

	"github.com/evergreen-ci/commitbench"
	"github.com/evergreen-ci/utility"
	"github.com/stretchr/testify/require"
)

// newTestEnv connects to a local mongod, skipping the test when none is
// running. The database is dropped when the test finishes.
func newTestEnv(t *testing.T) commitbench.Environment {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conf := commitbench.NewConfiguration()
	conf.Worktree = t.TempDir()
	conf.Mongo.URI = "mongodb://localhost:27017"
	conf.Mongo.Database = "commitbench_test_" + utility.RandomString()[:8]
	conf.Mongo.DialTimeout = time.Second

	env, err := commitbench.NewEnvironment(context.Background(), "model-test", conf)
	require.NoError(t, err)

	if err = commitbench.CheckDB(ctx, env); err != nil {
		_ = env.Close(ctx)
		t.Skip("mongod is not available:", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, env.GetDB().Drop(ctx))
		require.NoError(t, env.Close(ctx))
	})

	return env
}
