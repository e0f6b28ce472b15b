package store

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/evergreen-ci/commitbench"
	"github.com/evergreen-ci/commitbench/model"
	"github.com/evergreen-ci/commitbench/util"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// ElasticUploader indexes every result document and upserts the commit
// document into a separate index.
type ElasticUploader struct {
	conf      commitbench.ElasticConfig
	client    *elasticsearch.Client
	transport *http.Transport
}

// NewElasticUploader connects to the cluster at conf.URL. Credentials
// embedded in the URL take precedence over the configured user.
func NewElasticUploader(conf commitbench.ElasticConfig) (*ElasticUploader, error) {
	if conf.URL == "" {
		return nil, errors.New("must specify an elasticsearch url")
	}
	u, err := url.Parse(conf.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid elasticsearch url")
	}
	if conf.ResultsIndex == "" {
		conf.ResultsIndex = commitbench.DefaultResultsIndex
	}
	if conf.CommitsIndex == "" {
		conf.CommitsIndex = commitbench.DefaultCommitsIndex
	}

	transport := util.NewHTTPTransport(util.HTTPTransportOptions{InsecureSkipVerify: conf.Insecure})
	cfg := elasticsearch.Config{
		Addresses: []string{conf.URL},
		Transport: transport,
	}
	if u.User == nil && conf.User != "" {
		cfg.Username = conf.User
		cfg.Password = conf.Password
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		transport.CloseIdleConnections()
		return nil, errors.Wrap(err, "problem creating elasticsearch client")
	}

	return &ElasticUploader{conf: conf, client: client, transport: transport}, nil
}

func (e *ElasticUploader) Name() string { return "elasticsearch" }

func (e *ElasticUploader) Upload(ctx context.Context, commit model.Commit, results []model.BenchmarkResult) error {
	for idx := range results {
		body, err := json.Marshal(results[idx])
		if err != nil {
			return errors.Wrapf(err, "problem encoding result '%s'", results[idx].Name)
		}

		res, err := e.client.Index(e.conf.ResultsIndex, bytes.NewReader(body), e.client.Index.WithContext(ctx))
		if err = checkResponse(res, err); err != nil {
			return errors.Wrapf(err, "problem indexing result '%s'", results[idx].Name)
		}
	}

	body, err := json.Marshal(struct {
		Doc         *model.CommitDocument `json:"doc"`
		DocAsUpsert bool                  `json:"doc_as_upsert"`
	}{
		Doc:         commit.Document(),
		DocAsUpsert: true,
	})
	if err != nil {
		return errors.Wrap(err, "problem encoding commit document")
	}

	res, err := e.client.Update(e.conf.CommitsIndex, commit.SHA, bytes.NewReader(body), e.client.Update.WithContext(ctx))
	if err = checkResponse(res, err); err != nil {
		return errors.Wrapf(err, "problem updating commit document %s", commit.SHA)
	}

	grip.Debug(message.Fields{
		"message": "indexed benchmark results",
		"commit":  commit.Short(),
		"results": len(results),
		"index":   e.conf.ResultsIndex,
	})

	return nil
}

func (e *ElasticUploader) Close(_ context.Context) error {
	if e.transport != nil {
		e.transport.CloseIdleConnections()
		e.transport = nil
	}
	return nil
}

func checkResponse(res *esapi.Response, err error) error {
	if err != nil {
		return errors.WithStack(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.Errorf("elasticsearch responded with %s", res.String())
	}

	return nil
}
