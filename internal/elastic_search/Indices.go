package elastic_search

import (
	"fmt"
	"github.com/ZilDuck/zilliqa-marketplace/internal/config"
)

type Indices string

var (
	ListingIndex     Indices = "listing"
	EventIndex       Indices = "event"
	TokenActionIndex Indices = "tokenaction"
)

var AllIndices = []Indices{ListingIndex, EventIndex, TokenActionIndex}

// Get prefixes the index with the configured index name
func (i Indices) Get() string {
	return fmt.Sprintf("%s.%s", config.Get().ElasticSearch.Index, string(i))
}
