package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/gosimple/slug"
	"github.com/nu7hatch/gouuid"
	"time"
)

type EventType string

const (
	ProductAddedEvent  EventType = "ProductAdded"
	ProductSoldEvent   EventType = "ProductSold"
	ProductRentedEvent EventType = "ProductRented"
)

// Event is a notification emitted by the marketplace after an operation commits.
type Event interface {
	Entity
	Type() EventType
	ListingId() uint64
}

type EventHeader struct {
	EventId string    `json:"eventId"`
	Kind    EventType `json:"type"`
	Time    time.Time `json:"time"`
}

func NewEventHeader(kind EventType, at time.Time) EventHeader {
	u, _ := uuid.NewV4()
	return EventHeader{EventId: u.String(), Kind: kind, Time: at}
}

func createEventSlug(t EventType, id uint64, eventId string) string {
	return slug.Make(fmt.Sprintf("event-%s-%d-%s", t, id, eventId))
}

type ProductAdded struct {
	EventHeader
	Id             uint64    `json:"id"`
	Owner          string    `json:"owner"`
	Name           string    `json:"name"`
	Price          uint64    `json:"price"`
	ForSale        bool      `json:"forSale"`
	ForRent        bool      `json:"forRent"`
	ExpirationTime time.Time `json:"expirationTime"`
}

func (e ProductAdded) Type() EventType   { return ProductAddedEvent }
func (e ProductAdded) ListingId() uint64 { return e.Id }
func (e ProductAdded) Slug() string      { return createEventSlug(e.Type(), e.Id, e.EventId) }

type ProductSold struct {
	EventHeader
	Id     uint64 `json:"id"`
	Buyer  string `json:"buyer"`
	Seller string `json:"seller"`
	Price  uint64 `json:"price"`
}

func (e ProductSold) Type() EventType   { return ProductSoldEvent }
func (e ProductSold) ListingId() uint64 { return e.Id }
func (e ProductSold) Slug() string      { return createEventSlug(e.Type(), e.Id, e.EventId) }

type ProductRented struct {
	EventHeader
	Id             uint64    `json:"id"`
	Renter         string    `json:"renter"`
	Owner          string    `json:"owner"`
	Price          uint64    `json:"price"`
	ExpirationTime time.Time `json:"expirationTime"`
}

func (e ProductRented) Type() EventType   { return ProductRentedEvent }
func (e ProductRented) ListingId() uint64 { return e.Id }
func (e ProductRented) Slug() string      { return createEventSlug(e.Type(), e.Id, e.EventId) }

// EventEnvelope is the wire form of an event on the queue and in webhooks.
type EventEnvelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func NewEventEnvelope(e Event) (EventEnvelope, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return EventEnvelope{}, err
	}

	return EventEnvelope{Type: e.Type(), Payload: payload}, nil
}

func (env EventEnvelope) Event() (Event, error) {
	switch env.Type {
	case ProductAddedEvent:
		var e ProductAdded
		err := json.Unmarshal(env.Payload, &e)
		return e, err
	case ProductSoldEvent:
		var e ProductSold
		err := json.Unmarshal(env.Payload, &e)
		return e, err
	case ProductRentedEvent:
		var e ProductRented
		err := json.Unmarshal(env.Payload, &e)
		return e, err
	}

	return nil, errors.New("unknown event type")
}
