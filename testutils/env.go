package testutils

import (
	"context"

	"github.com/evergreen-ci/commitbench"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/queue"
	"go.mongodb.org/mongo-driver/mongo"
)

// MockEnvironment is an environment without a database. The queue is only
// set when a test provides one.
type MockEnvironment struct {
	Conf  *commitbench.Configuration
	Queue amboy.Queue
}

// NewMockEnvironment returns an environment for conf with a started
// single-worker queue that stops when ctx is canceled.
func NewMockEnvironment(ctx context.Context, conf *commitbench.Configuration) (*MockEnvironment, error) {
	q := queue.NewLocalLimitedSize(1, 128)
	if err := q.Start(ctx); err != nil {
		return nil, err
	}

	return &MockEnvironment{Conf: conf, Queue: q}, nil
}

func (e *MockEnvironment) GetConf() *commitbench.Configuration { return e.Conf }
func (e *MockEnvironment) Context() (context.Context, context.CancelFunc) {
	return context.WithCancel(context.Background())
}
func (e *MockEnvironment) GetClient() *mongo.Client      { return nil }
func (e *MockEnvironment) GetDB() *mongo.Database        { return nil }
func (e *MockEnvironment) GetQueue() amboy.Queue         { return e.Queue }
func (e *MockEnvironment) Close(_ context.Context) error { return nil }
