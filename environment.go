package commitbench

import (
	"context"
	"sync"

	"github.com/evergreen-ci/commitbench/util"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/queue"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var globalEnv Environment
var globalEnvLock sync.RWMutex

func init() { resetEnv() }

// GetEnvironment returns the process-wide environment.
func GetEnvironment() Environment {
	globalEnvLock.RLock()
	defer globalEnvLock.RUnlock()

	return globalEnv
}

// SetEnvironment replaces the process-wide environment.
func SetEnvironment(env Environment) {
	globalEnvLock.Lock()
	defer globalEnvLock.Unlock()

	globalEnv = env
}

func resetEnv() { SetEnvironment(&envState{name: "global"}) }

// Environment objects provide access to shared configuration and state, in a
// way that you can isolate and test for.
type Environment interface {
	GetConf() *Configuration

	// Context returns a context derived from the environment's root
	// context, which is canceled when the environment closes.
	Context() (context.Context, context.CancelFunc)

	// GetClient and GetDB return nil when no mongodb uri is configured.
	GetClient() *mongo.Client
	GetDB() *mongo.Database

	// GetQueue returns the single worker queue that benchmark jobs run
	// on; jobs never run concurrently.
	GetQueue() amboy.Queue

	Close(context.Context) error
}

type envState struct {
	name   string
	conf   *Configuration
	client *mongo.Client
	queue  amboy.Queue
	ctx    context.Context
	cancel context.CancelFunc
	mutex  sync.RWMutex
}

type dbCreds struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// NewEnvironment validates the configuration, connects to the database if one
// is configured and starts the local job queue.
func NewEnvironment(ctx context.Context, name string, conf *Configuration) (Environment, error) {
	if conf == nil {
		return nil, errors.New("configuration is not set")
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "problem validating configuration")
	}

	env := &envState{name: name, conf: conf}
	env.ctx, env.cancel = context.WithCancel(ctx)

	if conf.Mongo.URI != "" {
		opts := options.Client().ApplyURI(conf.Mongo.URI).SetConnectTimeout(conf.Mongo.DialTimeout)
		if conf.Mongo.CredsFile != "" {
			creds := &dbCreds{}
			if err := util.ReadFileYAML(conf.Mongo.CredsFile, creds); err != nil {
				env.cancel()
				return nil, errors.Wrap(err, "problem reading db credentials")
			}
			opts.SetAuth(options.Credential{Username: creds.Username, Password: creds.Password})
		}

		client, err := mongo.Connect(env.ctx, opts)
		if err != nil {
			env.cancel()
			return nil, errors.Wrapf(err, "could not connect to db %s", conf.Mongo.URI)
		}
		env.client = client

		grip.Info(message.Fields{
			"message":  "connected to mongodb",
			"env":      name,
			"database": conf.Mongo.Database,
		})
	}

	env.queue = queue.NewLocalLimitedSize(1, 1024)
	if err := env.queue.Start(env.ctx); err != nil {
		env.cancel()
		return nil, errors.Wrap(err, "problem starting queue")
	}
	grip.Debugf("started local benchmark queue for '%s'", name)

	return env, nil
}

func (e *envState) GetConf() *Configuration {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.conf
}

func (e *envState) Context() (context.Context, context.CancelFunc) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	if e.ctx == nil {
		return context.WithCancel(context.Background())
	}

	return context.WithCancel(e.ctx)
}

func (e *envState) GetClient() *mongo.Client {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.client
}

func (e *envState) GetDB() *mongo.Database {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	if e.client == nil || e.conf == nil {
		return nil
	}

	return e.client.Database(e.conf.Mongo.Database)
}

func (e *envState) GetQueue() amboy.Queue {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.queue
}

func (e *envState) Close(ctx context.Context) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	catcher := grip.NewBasicCatcher()
	if e.queue != nil {
		e.queue.Close(ctx)
	}
	if e.client != nil {
		catcher.Wrap(e.client.Disconnect(ctx), "problem disconnecting from db")
		e.client = nil
	}
	if e.cancel != nil {
		e.cancel()
	}

	return catcher.Resolve()
}

// CheckDB pings the configured database.
func CheckDB(ctx context.Context, env Environment) error {
	client := env.GetClient()
	if client == nil {
		return errors.New("no database configured")
	}

	return errors.Wrap(client.Ping(ctx, readpref.Primary()), "problem reaching db")
}
