package event

import "github.com/ZilDuck/zilliqa-marketplace/internal/entity"

const AllEvents entity.EventType = "*"

type Sink interface {
	Emit(e entity.Event)
}
