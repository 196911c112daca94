package event

import (
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"go.uber.org/zap"
	"sync"
)

const listenerBuffer = 64

type Listener struct {
	eventType entity.EventType
	channel   chan entity.Event
}

// Manager delivers events to listeners asynchronously. Each listener
// receives its events in emission order.
type Manager struct {
	mu        sync.RWMutex
	listeners []*Listener
	wg        sync.WaitGroup
	closed    bool
}

func NewManager() *Manager {
	return &Manager{listeners: make([]*Listener, 0)}
}

func (m *Manager) AddEventListener(eventType entity.EventType, callback func(e entity.Event)) {
	zap.L().With(zap.String("type", string(eventType))).Debug("EventManager: AddListener")

	listener := Listener{
		eventType: eventType,
		channel:   make(chan entity.Event, listenerBuffer),
	}

	m.mu.Lock()
	m.listeners = append(m.listeners, &listener)
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for e := range listener.channel {
			dispatch(callback, e)
		}
	}()
}

// Emit queues e for every matching listener. When a listener's buffer is
// full Emit waits for it to drain rather than drop the event, so a slow
// listener holds up the emitter.
func (m *Manager) Emit(e entity.Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		zap.L().With(zap.String("type", string(e.Type()))).Warn("EventManager: Emit after close")
		return
	}
	if len(m.listeners) == 0 {
		zap.L().Debug("No event listeners available")
	}

	for _, listener := range m.listeners {
		if listener.eventType == e.Type() || listener.eventType == AllEvents {
			zap.L().With(zap.String("type", string(e.Type())), zap.Uint64("listingId", e.ListingId())).
				Debug("EventManager: Emitting event")
			select {
			case listener.channel <- e:
			default:
				zap.L().With(zap.String("type", string(e.Type())), zap.Int("buffer", listenerBuffer)).
					Warn("EventManager: Listener buffer full, waiting")
				listener.channel <- e
			}
		}
	}
}

// Close stops accepting events and waits until every listener has drained.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	for _, listener := range m.listeners {
		close(listener.channel)
	}
	m.mu.Unlock()

	m.wg.Wait()
}

func dispatch(callback func(e entity.Event), e entity.Event) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().With(zap.Any("panic", r), zap.String("type", string(e.Type()))).Error("EventManager: Listener panicked")
		}
	}()

	callback(e)
}
