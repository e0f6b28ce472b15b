// Package archive keeps the raw harness output of each commit in a blob
// store bucket.
package archive

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/evergreen-ci/commitbench"
	"github.com/evergreen-ci/commitbench/model"
	"github.com/evergreen-ci/pail"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// Type describes the blob storage backing an archive bucket.
type Type string

const (
	Local  Type = "local"
	S3     Type = "s3"
	GridFS Type = "gridfs"

	defaultS3Region = "us-east-1"
)

// Create returns a pail bucket backed by the type.
func (t Type) Create(ctx context.Context, env commitbench.Environment, conf commitbench.ArchiveConfig) (pail.Bucket, error) {
	var b pail.Bucket
	var err error

	switch t {
	case S3:
		region := conf.Region
		if region == "" {
			region = defaultS3Region
		}
		opts := pail.S3Options{
			Name:       conf.Bucket,
			Prefix:     conf.Prefix,
			Region:     region,
			MaxRetries: 10,
		}
		if conf.Key != "" {
			opts.Credentials = pail.CreateAWSCredentials(conf.Key, conf.Secret, "")
		}
		b, err = pail.NewS3Bucket(opts)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	case GridFS:
		if env == nil || env.GetClient() == nil {
			return nil, errors.New("gridfs archives require a database")
		}
		opts := pail.GridFSOptions{
			Database: env.GetConf().Mongo.Database,
			Name:     conf.Bucket,
			Prefix:   conf.Prefix,
		}
		b, err = pail.NewGridFSBucketWithClient(ctx, env.GetClient(), opts)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	case Local, "":
		if err = os.MkdirAll(conf.Bucket, 0755); err != nil {
			return nil, errors.Wrapf(err, "problem creating archive directory %s", conf.Bucket)
		}
		opts := pail.LocalOptions{
			Path:   conf.Bucket,
			Prefix: conf.Prefix,
		}
		b, err = pail.NewLocalBucket(opts)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	default:
		return nil, errors.Errorf("archive type '%s' is not implemented", t)
	}

	if err = b.Check(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	return b, nil
}

// Archiver uploads output files to a bucket.
type Archiver struct {
	bucket pail.Bucket
}

// New builds the archiver configured in the environment. It returns nil
// when no archive bucket is configured.
func New(ctx context.Context, env commitbench.Environment) (*Archiver, error) {
	conf := env.GetConf()
	if conf == nil || conf.Archive.Bucket == "" {
		return nil, nil
	}

	b, err := Type(conf.Archive.Type).Create(ctx, env, conf.Archive)
	if err != nil {
		return nil, errors.Wrapf(err, "problem creating %s archive bucket '%s'", conf.Archive.Type, conf.Archive.Bucket)
	}

	return NewArchiver(b), nil
}

func NewArchiver(b pail.Bucket) *Archiver { return &Archiver{bucket: b} }

// Key returns the bucket key of an output file.
func Key(commit model.Commit, file string) string {
	return path.Join(commit.SHA, filepath.Base(file))
}

// Archive uploads every file of the commit, stopping at the first failure.
func (a *Archiver) Archive(ctx context.Context, commit model.Commit, files []string) error {
	for _, fn := range files {
		key := Key(commit, fn)
		if err := a.bucket.Upload(ctx, key, fn); err != nil {
			return errors.Wrapf(err, "problem archiving %s", fn)
		}
		grip.Debug(message.Fields{
			"message": "archived output file",
			"commit":  commit.Short(),
			"file":    fn,
			"key":     key,
		})
	}

	return nil
}
