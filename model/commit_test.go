package model

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitTitle(t *testing.T) {
	for name, test := range map[string]struct {
		message string
		title   string
	}{
		"Empty":       {message: "", title: ""},
		"SingleLine":  {message: "fix the thing", title: "fix the thing"},
		"MultiLine":   {message: "fix the thing\n\nlonger description\n", title: "fix the thing"},
		"LeadingNewl": {message: "\n\nsubject\nbody", title: "subject"},
		"Whitespace":  {message: "  padded subject \nbody", title: "padded subject"},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.title, CommitTitle(test.message))
		})
	}
}

func TestCommit(t *testing.T) {
	ts := time.Date(2020, 3, 4, 10, 11, 12, 0, time.UTC)
	c := NewCommit("0123456789abcdef", ts, "add benchmarks\n\nwith a body")

	assert.Equal(t, "add benchmarks", c.Title)
	assert.Equal(t, "01234567", c.Short())
	assert.NoError(t, c.Validate())
	assert.Equal(t, "abc", Commit{SHA: "abc"}.Short())
	assert.Error(t, Commit{}.Validate())

	doc := c.Document()
	assert.False(t, doc.IsNil())
	assert.Equal(t, c.SHA, doc.SHA)
	assert.Equal(t, "add benchmarks", doc.Title)
	assert.Equal(t, c.Message, doc.Message)
}

func TestCommitDocumentWithoutEnv(t *testing.T) {
	ctx := context.Background()
	doc := NewCommit("abc", time.Now(), "msg").Document()

	err := doc.Upsert(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "env is nil")

	err = doc.Find(ctx)
	require.Error(t, err)

	assert.Error(t, (&CommitDocument{}).Upsert(ctx))
}

func TestCommitDocumentUpsert(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := env.Context()
	defer cancel()

	ts := time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := NewCommit("deadbeef", ts, "first title\nbody").Document()
	doc.Setup(env)
	require.NoError(t, doc.Upsert(ctx))

	found := &CommitDocument{SHA: "deadbeef"}
	found.Setup(env)
	require.NoError(t, found.Find(ctx))
	assert.Equal(t, "first title", found.Title)
	assert.True(t, ts.Equal(found.Timestamp))

	doc = NewCommit("deadbeef", ts, "second title").Document()
	doc.Setup(env)
	require.NoError(t, doc.Upsert(ctx))
	require.NoError(t, found.Find(ctx))
	assert.Equal(t, "second title", found.Title)

	count, err := env.GetDB().Collection(env.GetConf().Mongo.CommitsCollection).CountDocuments(ctx, map[string]interface{}{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	missing := &CommitDocument{SHA: "DNE"}
	missing.Setup(env)
	assert.Error(t, missing.Find(ctx))
	assert.True(t, missing.IsNil())
}
