package store

import (
	"context"

	"github.com/evergreen-ci/commitbench"
	"github.com/evergreen-ci/commitbench/model"
	"github.com/pkg/errors"
)

// MongoUploader saves results and commit documents in the environment's
// database.
type MongoUploader struct {
	env commitbench.Environment
}

func NewMongoUploader(env commitbench.Environment) (*MongoUploader, error) {
	if env == nil {
		return nil, errors.New("env is nil")
	}
	if env.GetDB() == nil {
		return nil, errors.New("no database configured")
	}

	return &MongoUploader{env: env}, nil
}

func (m *MongoUploader) Name() string { return "mongodb" }

func (m *MongoUploader) Upload(ctx context.Context, commit model.Commit, results []model.BenchmarkResult) error {
	docs := &model.BenchmarkResults{Results: results}
	docs.Setup(m.env)
	if err := docs.Save(ctx); err != nil {
		return errors.WithStack(err)
	}

	doc := commit.Document()
	doc.Setup(m.env)

	return errors.WithStack(doc.Upsert(ctx))
}

// Close is a no-op, the environment owns the client.
func (m *MongoUploader) Close(_ context.Context) error { return nil }
