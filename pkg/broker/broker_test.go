package broker

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"conflux/pkg/api"
	"conflux/pkg/events"
	"conflux/pkg/util/config"
	"conflux/pkg/util/context"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		os.Setenv(envBrokerType, "MEMORY")
		defer os.Unsetenv(envBrokerType)
		b, err := NewFromEnv(ctx)
		require.NoError(t, err)
		_, isMemory := b.(*Memory)
		assert.True(t, isMemory)
	})

	t.Run("missing_type", func(t *testing.T) {
		os.Unsetenv(envBrokerType)
		_, err := NewFromEnv(ctx)
		require.Error(t, err)
	})

	t.Run("unknown_type", func(t *testing.T) {
		os.Setenv(envBrokerType, "kafka")
		defer os.Unsetenv(envBrokerType)
		_, err := NewFromEnv(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown broker type kafka")
	})
}

func TestNewFromConfig(t *testing.T) {
	defer config.Reset()
	os.Unsetenv(envBrokerType)
	require.NoError(t, config.ReadConfig(strings.NewReader(`{"broker": {"type": "memory"}}`)))

	b, err := NewFromConfig(context.Background(), "broker")
	require.NoError(t, err)
	_, isMemory := b.(*Memory)
	assert.True(t, isMemory)

	require.NoError(t, config.ReadConfig(strings.NewReader(`{"broker": {"type": 3}}`)))
	_, err = NewFromConfig(context.Background(), "broker")
	require.Error(t, err)
}

func TestNewWrongConfig(t *testing.T) {
	_, err := New(context.Background(), RabbitMQType, &struct{}{})
	require.Error(t, err)
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBroker()
	require.NoError(t, m.Publish(ctx, events.Event{Type: events.TypePipelineStarted, RunID: "r"}))
	require.NoError(t, m.Publish(ctx, events.Event{Type: events.TypeStageStarted, RunID: "r", StageID: "s"}))
	evts := m.Events()
	require.Len(t, evts, 2)
	assert.Equal(t, events.TypeStageStarted, evts[1].Type)

	require.NoError(t, m.Close())
	assert.Error(t, m.Publish(ctx, events.Event{}))
}

type fakeChannel struct {
	exchange string
	key      string
	msgs     []amqp.Publishing
	closed   bool
}

func (f *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.exchange = exchange
	f.key = key
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestRabbitMQPublish(t *testing.T) {
	ch := &fakeChannel{}
	q := &rabbitmq{ch: ch, exchange: defaultExchange}
	now := time.Now()
	evt := events.Event{
		Type:       events.TypeStageCompleted,
		RunID:      "run",
		PipelineID: "orders",
		StageID:    "load",
		Status:     api.StatusCompleted,
		Data:       events.StageEventData{RecordsProcessed: 4},
		Time:       now,
	}
	require.NoError(t, q.Publish(context.Background(), evt))
	require.Len(t, ch.msgs, 1)
	assert.Equal(t, defaultExchange, ch.exchange)
	assert.Equal(t, "stage_completed", ch.key)

	msg := ch.msgs[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, "run", msg.Headers[HeaderRunID])
	assert.Equal(t, "load", msg.Headers[HeaderStageID])
	assert.Equal(t, "STAGE_COMPLETED", msg.Headers[HeaderType])

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, "orders", body["pipelineID"])
	assert.Equal(t, float64(4), body["data"].(map[string]interface{})["recordsProcessed"])

	require.NoError(t, q.Close())
	assert.True(t, ch.closed)
}
