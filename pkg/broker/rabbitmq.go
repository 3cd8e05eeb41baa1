package broker

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"conflux/pkg/events"
	"conflux/pkg/util/context"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

const (
	// RabbitMQType Broker type RabbitMQ
	RabbitMQType Type = "rabbitmq"

	defaultExchange = "conflux.events"
)

// Message headers set on every published event
const (
	HeaderRunID         = "x-run-id"
	HeaderPipelineID    = "x-pipeline-id"
	HeaderStageID       = "x-stage-id"
	HeaderType          = "x-type"
	HeaderCorrelationID = "x-correlation-id"
)

func init() {
	f := func(ctx context.Context, c interface{}) (Broker, error) {
		asRabbitMQConf, isRabbitMQConf := c.(*RabbitMQConfig)
		if !isRabbitMQConf {
			return nil, errors.Errorf("given configuration struct is not type %T", &RabbitMQConfig{})
		}
		return NewRabbitMQBroker(ctx, *asRabbitMQConf)
	}
	register(RabbitMQType, f, func() interface{} { return &RabbitMQConfig{} })
}

// channel is the subset of *amqp.Channel used by the broker
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type rabbitmq struct {
	mutex    sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
}

// RabbitMQConfig is configuration for rabbitmq broker implementation
type RabbitMQConfig struct {
	User     string `json:"user" env:"BROKER_RABBITMQ_USER"`
	Password string `json:"password" env:"BROKER_RABBITMQ_PASSWORD"`
	URI      string `json:"uri" env:"BROKER_RABBITMQ_URI"`
	Exchange string `json:"exchange" env:"BROKER_RABBITMQ_EXCHANGE"`
}

// NewRabbitMQBroker returns a Broker implementation based on RabbitMQ.
// Events are published to a durable topic exchange with the lower-cased event type as routing key.
func NewRabbitMQBroker(ctx context.Context, conf RabbitMQConfig) (Broker, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s", conf.User, conf.Password, conf.URI)
	ctx.Logger().Infof("connecting to rabbitmq at '%s'", conf.URI)
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot connect to rabbitmq at '%s'", conf.URI)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "cannot open channel to rabbitmq")
	}
	exchange := conf.Exchange
	if exchange == "" {
		exchange = defaultExchange
	}
	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // delete when unused
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "cannot declare exchange %s", exchange)
	}
	return &rabbitmq{
		conn:     conn,
		ch:       ch,
		exchange: exchange,
	}, nil
}

func (q *rabbitmq) Publish(ctx context.Context, evt events.Event) error {
	ctx.Logger().Tracef("publishing event %s to exchange %s", evt, q.exchange)
	msg, err := newPublishing(evt)
	if err != nil {
		return errors.Wrapf(err, "cannot build message for event %s", evt)
	}
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.ch.Publish(
		q.exchange,      // exchange
		routingKey(evt), // routing key
		false,           // mandatory
		false,           // immediate
		msg,
	)
}

// newPublishing builds the AMQP message for the event: JSON body, identifiers as headers.
func newPublishing(evt events.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   evt.Time,
		Body:        body,
		Headers: amqp.Table{
			HeaderRunID:         evt.RunID,
			HeaderPipelineID:    evt.PipelineID,
			HeaderStageID:       evt.StageID,
			HeaderCorrelationID: evt.CorrelationID,
			HeaderType:          string(evt.Type),
		},
	}, nil
}

func routingKey(evt events.Event) string {
	return strings.ToLower(string(evt.Type))
}

func (q *rabbitmq) Close() error {
	if err := q.ch.Close(); err != nil {
		return err
	}
	if q.conn != nil {
		if err := q.conn.Close(); err != nil {
			return err
		}
	}
	return nil
}
