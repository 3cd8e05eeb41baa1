package cmd

import (
	"conflux/pkg/broker"
	"conflux/pkg/handler/dummy"
	"conflux/pkg/metrics"
	"conflux/pkg/scheduler"
	"conflux/pkg/store"
	"conflux/pkg/util/config"
	"conflux/pkg/util/context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	configKeyScheduler = "scheduler"
	configKeyBroker    = "broker"
)

// engine gathers the scheduler and the collaborators it was built with.
type engine struct {
	sc       scheduler.Scheduler
	store    store.Store
	broker   broker.Broker
	registry *prometheus.Registry
}

// newEngine instantiates a new pipeline scheduler from configuration.
// A broker is only created when one is configured.
func newEngine(ctx context.Context, parallelism int) (*engine, error) {
	c, err := scheduler.ConfigFromKey(configKeyScheduler)
	if err != nil {
		return nil, err
	}
	if parallelism > 0 {
		c.Parallelism = parallelism
	}

	e := &engine{
		store:    store.NewInMemoryStore(),
		registry: prometheus.NewRegistry(),
	}
	m, err := metrics.New(e.registry)
	if err != nil {
		return nil, errors.Wrap(err, "cannot register metrics")
	}
	opts := []scheduler.Option{
		scheduler.WithConfig(c),
		scheduler.WithStore(e.store),
		scheduler.WithMetrics(m),
	}

	if brokerConfigured() {
		b, err := broker.NewFromConfig(ctx, configKeyBroker)
		if err != nil {
			return nil, errors.Wrap(err, "cannot create broker")
		}
		e.broker = b
		opts = append(opts, scheduler.WithBroker(b))
	}

	e.sc = scheduler.NewScheduler(dummy.NewRegistry(), opts...)
	return e, nil
}

func brokerConfigured() bool {
	return config.Get(configKeyBroker+".type") != nil || broker.TypeFromEnv() != ""
}

// Close releases the broker connection if any.
func (e *engine) Close(ctx context.Context) {
	if e.broker == nil {
		return
	}
	if err := e.broker.Close(); err != nil {
		ctx.Logger().Warn(errors.Wrap(err, "cannot close broker"))
	}
}
