package broker

import (
	"sync"

	"conflux/pkg/events"
	"conflux/pkg/util/context"

	"github.com/pkg/errors"
)

// MemoryType Broker type keeping events in memory
const MemoryType Type = "memory"

func init() {
	f := func(ctx context.Context, c interface{}) (Broker, error) {
		return NewMemoryBroker(), nil
	}
	register(MemoryType, f, func() interface{} { return &struct{}{} })
}

// Memory is a Broker keeping published events in memory, in publication order.
type Memory struct {
	mutex  sync.Mutex
	events []events.Event
	closed bool
}

// NewMemoryBroker returns an empty in-memory broker.
func NewMemoryBroker() *Memory {
	return &Memory{}
}

// Publish appends the event.
func (m *Memory) Publish(ctx context.Context, evt events.Event) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.closed {
		return errors.New("broker is closed")
	}
	m.events = append(m.events, evt)
	return nil
}

// Events returns a copy of the published events.
func (m *Memory) Events() []events.Event {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	res := make([]events.Event, len(m.events))
	copy(res, m.events)
	return res
}

// Close rejects further publications.
func (m *Memory) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.closed = true
	return nil
}
