package event

import (
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/stretchr/testify/assert"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	events []entity.Event
}

func (r *recorder) record(e entity.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestManager_DeliversByType(t *testing.T) {
	m := NewManager()
	sold := &recorder{}
	all := &recorder{}
	m.AddEventListener(entity.ProductSoldEvent, sold.record)
	m.AddEventListener(AllEvents, all.record)

	m.Emit(entity.ProductAdded{Id: 0})
	m.Emit(entity.ProductSold{Id: 0, Buyer: "bob"})
	m.Emit(entity.ProductRented{Id: 1})
	m.Close()

	assert.Len(t, sold.events, 1)
	assert.Equal(t, "bob", sold.events[0].(entity.ProductSold).Buyer)
	assert.Len(t, all.events, 3)
}

func TestManager_PreservesOrder(t *testing.T) {
	m := NewManager()
	r := &recorder{}
	m.AddEventListener(entity.ProductAddedEvent, r.record)

	for i := uint64(0); i < 200; i++ {
		m.Emit(entity.ProductAdded{Id: i})
	}
	m.Close()

	assert.Len(t, r.events, 200)
	for i, e := range r.events {
		assert.Equal(t, uint64(i), e.ListingId())
	}
}

func TestManager_FullBufferWaitsForListener(t *testing.T) {
	m := NewManager()
	r := &recorder{}
	gate := make(chan struct{})
	m.AddEventListener(AllEvents, func(e entity.Event) {
		<-gate
		r.record(e)
	})

	emitted := make(chan struct{})
	go func() {
		for i := uint64(0); i < listenerBuffer+2; i++ {
			m.Emit(entity.ProductAdded{Id: i})
		}
		close(emitted)
	}()

	select {
	case <-emitted:
		t.Fatal("emit returned while the listener buffer was full")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate)
	<-emitted
	m.Close()

	assert.Len(t, r.events, listenerBuffer+2)
}

func TestManager_ListenerPanic(t *testing.T) {
	m := NewManager()
	r := &recorder{}
	m.AddEventListener(entity.ProductAddedEvent, func(e entity.Event) {
		if e.ListingId() == 0 {
			panic("boom")
		}
		r.record(e)
	})

	m.Emit(entity.ProductAdded{Id: 0})
	m.Emit(entity.ProductAdded{Id: 1})
	m.Close()

	assert.Len(t, r.events, 1)
}

func TestManager_EmitAfterClose(t *testing.T) {
	m := NewManager()
	r := &recorder{}
	m.AddEventListener(AllEvents, r.record)
	m.Close()
	m.Close()

	m.Emit(entity.ProductAdded{Id: 0})
	assert.Len(t, r.events, 0)
}
