package model

import (
	"context"
	"strings"
	"time"

	"github.com/evergreen-ci/commitbench"
	"github.com/mongodb/anser/bsonutil"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Commit describes one revision of the benchmarked project.
type Commit struct {
	SHA       string    `bson:"sha" json:"sha" yaml:"sha"`
	Timestamp time.Time `bson:"timestamp" json:"@timestamp" yaml:"timestamp"`
	Title     string    `bson:"title" json:"commit_title" yaml:"title"`
	Message   string    `bson:"message" json:"commit_message" yaml:"message"`
}

// NewCommit builds a commit record; the title is the first line of the
// message.
func NewCommit(sha string, ts time.Time, msg string) Commit {
	return Commit{
		SHA:       sha,
		Timestamp: ts,
		Title:     CommitTitle(msg),
		Message:   msg,
	}
}

// CommitTitle returns the first line of a commit message.
func CommitTitle(msg string) string {
	msg = strings.TrimLeft(msg, "\n")
	if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
		msg = msg[:idx]
	}
	return strings.TrimSpace(msg)
}

// Short returns the abbreviated hash used in log messages.
func (c Commit) Short() string {
	if len(c.SHA) > 8 {
		return c.SHA[:8]
	}
	return c.SHA
}

func (c Commit) Validate() error {
	catcher := grip.NewBasicCatcher()
	catcher.NewWhen(c.SHA == "", "commit must have a sha")
	catcher.NewWhen(c.Timestamp.IsZero(), "commit must have a timestamp")
	return catcher.Resolve()
}

// Document returns the per-commit document stored alongside the benchmark
// results.
func (c Commit) Document() *CommitDocument {
	return &CommitDocument{
		SHA:       c.SHA,
		Timestamp: c.Timestamp,
		Title:     CommitTitle(c.Title),
		Message:   c.Message,
		populated: true,
	}
}

// CommitDocument is upserted once per benchmarked commit, keyed by its sha.
type CommitDocument struct {
	SHA       string    `bson:"_id" json:"-"`
	Timestamp time.Time `bson:"timestamp" json:"@timestamp"`
	Title     string    `bson:"commit_title" json:"commit_title"`
	Message   string    `bson:"commit_message" json:"commit_message"`

	env       commitbench.Environment
	populated bool
}

var (
	commitDocTimestampKey = bsonutil.MustHaveTag(CommitDocument{}, "Timestamp")
	commitDocTitleKey     = bsonutil.MustHaveTag(CommitDocument{}, "Title")
	commitDocMessageKey   = bsonutil.MustHaveTag(CommitDocument{}, "Message")
)

// Setup sets the environment, which is required to persist the document.
func (d *CommitDocument) Setup(e commitbench.Environment) { d.env = e }

// IsNil returns if the document is populated or not.
func (d *CommitDocument) IsNil() bool { return !d.populated }

// Find loads the document with the same sha from the database.
func (d *CommitDocument) Find(ctx context.Context) error {
	coll, err := commitCollection(d.env)
	if err != nil {
		return errors.WithStack(err)
	}
	if d.SHA == "" {
		return errors.New("cannot find commit document without a sha")
	}

	d.populated = false
	err = coll.FindOne(ctx, bson.M{"_id": d.SHA}).Decode(d)
	if err == mongo.ErrNoDocuments {
		return errors.Errorf("could not find commit document %s in the database", d.SHA)
	} else if err != nil {
		return errors.Wrapf(err, "problem finding commit document %s", d.SHA)
	}
	d.populated = true

	return nil
}

// Upsert creates the document or replaces its fields.
func (d *CommitDocument) Upsert(ctx context.Context) error {
	if !d.populated {
		return errors.New("cannot save unpopulated commit document")
	}
	coll, err := commitCollection(d.env)
	if err != nil {
		return errors.WithStack(err)
	}

	updateResult, err := coll.UpdateOne(
		ctx,
		bson.M{"_id": d.SHA},
		bson.M{
			"$set": bson.M{
				commitDocTimestampKey: d.Timestamp,
				commitDocTitleKey:     d.Title,
				commitDocMessageKey:   d.Message,
			},
		},
		options.Update().SetUpsert(true),
	)
	grip.DebugWhen(err == nil, message.Fields{
		"collection":   coll.Name(),
		"id":           d.SHA,
		"updateResult": updateResult,
		"op":           "upsert commit document",
	})

	return errors.Wrapf(err, "problem upserting commit document %s", d.SHA)
}

func commitCollection(env commitbench.Environment) (*mongo.Collection, error) {
	if env == nil {
		return nil, errors.New("env is nil")
	}
	db := env.GetDB()
	if db == nil {
		return nil, errors.New("no database configured")
	}

	return db.Collection(env.GetConf().Mongo.CommitsCollection), nil
}
