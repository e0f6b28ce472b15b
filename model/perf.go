package model

import (
	"context"

	"github.com/evergreen-ci/commitbench"
	"github.com/mongodb/anser/bsonutil"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	benchResultSHAKey  = bsonutil.MustHaveTag(BenchmarkResult{}, "SHA")
	benchResultModeKey = bsonutil.MustHaveTag(BenchmarkResult{}, "Mode")
	benchResultNameKey = bsonutil.MustHaveTag(BenchmarkResult{}, "Name")
)

// BenchmarkResults is a set of result documents, typically for one commit.
type BenchmarkResults struct {
	Results []BenchmarkResult

	env commitbench.Environment
}

// Setup sets the environment, which is required to persist the results.
func (r *BenchmarkResults) Setup(e commitbench.Environment) { r.env = e }

// Save inserts every result as a new document.
func (r *BenchmarkResults) Save(ctx context.Context) error {
	if len(r.Results) == 0 {
		grip.Warning(message.Fields{
			"message": "save called with no benchmark results",
			"op":      "save benchmark results",
		})
		return nil
	}
	coll, err := resultsCollection(r.env)
	if err != nil {
		return errors.WithStack(err)
	}

	docs := make([]interface{}, len(r.Results))
	for idx := range r.Results {
		docs[idx] = r.Results[idx]
	}

	insertResult, err := coll.InsertMany(ctx, docs)
	if err != nil {
		return errors.Wrap(err, "problem saving benchmark results")
	}
	grip.Debug(message.Fields{
		"collection": coll.Name(),
		"inserted":   len(insertResult.InsertedIDs),
		"op":         "save benchmark results",
	})

	return nil
}

// FindByCommit replaces the results with every stored result for the commit,
// sorted by mode and benchmark name.
func (r *BenchmarkResults) FindByCommit(ctx context.Context, sha string) error {
	coll, err := resultsCollection(r.env)
	if err != nil {
		return errors.WithStack(err)
	}

	opts := options.Find().SetSort(bson.D{
		{Key: benchResultModeKey, Value: 1},
		{Key: benchResultNameKey, Value: 1},
	})
	cur, err := coll.Find(ctx, bson.M{benchResultSHAKey: sha}, opts)
	if err != nil {
		return errors.Wrapf(err, "problem finding results for commit %s", sha)
	}

	results := []BenchmarkResult{}
	if err = cur.All(ctx, &results); err != nil {
		return errors.Wrapf(err, "problem decoding results for commit %s", sha)
	}
	r.Results = results

	return nil
}

func resultsCollection(env commitbench.Environment) (*mongo.Collection, error) {
	if env == nil {
		return nil, errors.New("env is nil")
	}
	db := env.GetDB()
	if db == nil {
		return nil, errors.New("no database configured")
	}

	return db.Collection(env.GetConf().Mongo.ResultsCollection), nil
}
