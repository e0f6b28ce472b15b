package commitbench

import (
	"context"
	"testing"
	"time"

	"github.com/mongodb/amboy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeRecordingQueue struct {
	amboy.Queue
	closed bool
}

func (q *closeRecordingQueue) Close(ctx context.Context) {
	q.closed = true
	q.Queue.Close(ctx)
}

func TestEnvironment(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for name, test := range map[string]func(t *testing.T){
		"NilConfiguration": func(t *testing.T) {
			env, err := NewEnvironment(ctx, "test", nil)
			assert.Error(t, err)
			assert.Nil(t, env)
		},
		"InvalidConfiguration": func(t *testing.T) {
			env, err := NewEnvironment(ctx, "test", NewConfiguration())
			assert.Error(t, err)
			assert.Nil(t, env)
		},
		"WithoutDatabase": func(t *testing.T) {
			conf := NewConfiguration()
			conf.Worktree = t.TempDir()

			env, err := NewEnvironment(ctx, "test", conf)
			require.NoError(t, err)
			assert.Equal(t, conf, env.GetConf())
			assert.Nil(t, env.GetClient())
			assert.Nil(t, env.GetDB())
			assert.Error(t, CheckDB(ctx, env))

			q := env.GetQueue()
			require.NotNil(t, q)
			assert.True(t, q.Info().Started)

			ectx, ecancel := env.Context()
			defer ecancel()
			require.NoError(t, env.Close(ctx))
			select {
			case <-ectx.Done():
			case <-time.After(time.Second):
				t.Error("closing the environment should cancel its context")
			}
		},
		"MissingCredentialsFile": func(t *testing.T) {
			conf := NewConfiguration()
			conf.Worktree = t.TempDir()
			conf.Mongo.URI = "mongodb://localhost:27017"
			conf.Mongo.CredsFile = "/does/not/exist.yaml"

			_, err := NewEnvironment(ctx, "test", conf)
			assert.Error(t, err)
		},
		"CloseStopsQueue": func(t *testing.T) {
			conf := NewConfiguration()
			conf.Worktree = t.TempDir()

			env, err := NewEnvironment(ctx, "test", conf)
			require.NoError(t, err)
			state, ok := env.(*envState)
			require.True(t, ok)

			q := &closeRecordingQueue{Queue: state.queue}
			state.queue = q
			require.NoError(t, env.Close(ctx))
			assert.True(t, q.closed)
		},
		"GlobalEnvironment": func(t *testing.T) {
			defer resetEnv()
			conf := NewConfiguration()
			conf.Worktree = t.TempDir()

			env, err := NewEnvironment(ctx, "test", conf)
			require.NoError(t, err)
			defer env.Close(ctx)

			SetEnvironment(env)
			assert.Equal(t, env, GetEnvironment())
		},
	} {
		t.Run(name, test)
	}
}

func TestDefaultEnvironment(t *testing.T) {
	env := GetEnvironment()
	require.NotNil(t, env)
	assert.Nil(t, env.GetConf())
	assert.Nil(t, env.GetDB())
	assert.Nil(t, env.GetQueue())

	ctx, cancel := env.Context()
	defer cancel()
	assert.NoError(t, ctx.Err())
}
