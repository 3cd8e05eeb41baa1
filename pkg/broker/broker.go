package broker

import (
	"os"
	"strings"
	"sync"

	"conflux/pkg/events"
	"conflux/pkg/util/config"
	"conflux/pkg/util/context"

	"github.com/pkg/errors"
)

const (
	envBrokerType = "BROKER_TYPE"
)

var (
	factories = make(map[Type]func(context.Context, interface{}) (Broker, error))
	configs   = make(map[Type]func() interface{})
	mutex     = &sync.Mutex{}
)

func register(t Type, f func(context.Context, interface{}) (Broker, error), c func() interface{}) {
	mutex.Lock()
	defer mutex.Unlock()
	factories[t] = f
	configs[t] = c
}

// Type is a string designing the implementation of Broker interface
type Type string

// Broker publishes pipeline lifecycle events.
type Broker interface {
	// Publish publishes the given event.
	Publish(ctx context.Context, evt events.Event) error

	// Close closes all connections.
	Close() error
}

// NewFromConfig returns a new instance of Broker based on configuration from config file and/or env variables
func NewFromConfig(ctx context.Context, configKey string) (Broker, error) {
	configTypeKey := "type"
	if configKey != "" {
		configTypeKey = configKey + ".type"
	}
	// Get broker type
	var t string
	if typ := config.Get(configTypeKey); typ != nil {
		asString, isString := typ.(string)
		if !isString {
			return nil, errors.Errorf("config entry with key %s is not a string", configTypeKey)
		}
		t = asString
	}
	if env := TypeFromEnv(); env != "" {
		t = env
	}
	if t == "" {
		return nil, errors.Errorf("broker type could not be found neither in config with key %s nor env %s", configTypeKey, envBrokerType)
	}

	typ := Type(strings.ToLower(t))
	mutex.Lock()
	newConfig, ok := configs[typ]
	mutex.Unlock()
	if !ok {
		return nil, errors.Errorf("unknown broker type %s", typ)
	}
	v := newConfig()
	if err := config.Unmarshal(configKey, v); err != nil {
		return nil, errors.Wrap(err, "cannot unmarshal broker config")
	}

	return New(ctx, typ, v)
}

// TypeFromEnv returns the broker type set in env, if any.
func TypeFromEnv() string {
	return os.Getenv(envBrokerType)
}

// NewFromEnv returns a new instance of Broker based on env variables
func NewFromEnv(ctx context.Context) (Broker, error) {
	//NewFromConfig fallbacks to env when necessary
	return NewFromConfig(ctx, "")
}

// New returns a new instance of Broker based on given configuration struct
func New(ctx context.Context, t Type, c interface{}) (Broker, error) {
	mutex.Lock()
	f, ok := factories[t]
	mutex.Unlock()
	if !ok {
		return nil, errors.Errorf("unknown broker type %s", t)
	}

	return f(ctx, c)
}
