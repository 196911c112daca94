package repository

import (
	"encoding/json"
	"github.com/ZilDuck/zilliqa-marketplace/internal/elastic_search"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/olivere/elastic/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type clientIndex struct {
	elastic_search.Index
	client *elastic.Client
}

func (i clientIndex) GetClient() *elastic.Client { return i.client }

type hit struct {
	Id     string      `json:"_id"`
	Source interface{} `json:"_source"`
}

func newSearchServer(t *testing.T, path string, hits ...hit) (*httptest.Server, elastic_search.Index) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, path) {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"hits": map[string]interface{}{
				"total": map[string]interface{}{"value": len(hits), "relation": "eq"},
				"hits":  hits,
			},
		})
	}))
	t.Cleanup(server.Close)

	client, err := elastic.NewClient(elastic.SetURL(server.URL), elastic.SetSniff(false), elastic.SetHealthcheck(false))
	require.NoError(t, err)

	return server, clientIndex{client: client}
}

func TestGetListing(t *testing.T) {
	listing := entity.Listing{Id: 3, Owner: "alice", Name: "bike", Price: 40, ForSale: true}
	_, idx := newSearchServer(t, "/marketplace.listing/_search", hit{Id: listing.Slug(), Source: listing})

	found, err := NewListingRepository(idx).GetListing(3)

	require.NoError(t, err)
	assert.Equal(t, "bike", found.Name)
	assert.Equal(t, "alice", found.Owner)
}

func TestGetListing_NotFound(t *testing.T) {
	_, idx := newSearchServer(t, "/marketplace.listing/_search")

	_, err := NewListingRepository(idx).GetListing(3)

	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestGetListingsByOwner(t *testing.T) {
	_, idx := newSearchServer(t, "/marketplace.listing/_search",
		hit{Id: "listing-0", Source: entity.Listing{Id: 0, Owner: "alice"}},
		hit{Id: "listing-4", Source: entity.Listing{Id: 4, Owner: "alice"}},
	)

	listings, total, err := NewListingRepository(idx).GetListingsByOwner("alice", 0, 10)

	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, listings, 2)
	assert.Equal(t, uint64(4), listings[1].Id)
}

func TestGetEventsForListing(t *testing.T) {
	at := time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC)
	added := entity.ProductAdded{EventHeader: entity.EventHeader{EventId: "a", Kind: entity.ProductAddedEvent, Time: at}, Id: 1, Owner: "alice"}
	sold := entity.ProductSold{EventHeader: entity.EventHeader{EventId: "b", Kind: entity.ProductSoldEvent, Time: at}, Id: 1, Buyer: "bob", Seller: "alice"}
	_, idx := newSearchServer(t, "/marketplace.event/_search",
		hit{Id: added.Slug(), Source: added},
		hit{Id: sold.Slug(), Source: sold},
	)

	events, err := NewEventRepository(idx).GetEventsForListing(1, 0, 0)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, entity.ProductAddedEvent, events[0].Type())
	assert.Equal(t, "bob", events[1].(entity.ProductSold).Buyer)
}

func TestGetTokenHistory(t *testing.T) {
	_, idx := newSearchServer(t, "/marketplace.tokenaction/_search",
		hit{Id: "a", Source: entity.TokenAction{TokenId: 1, Action: entity.MintAction, To: "alice"}},
		hit{Id: "b", Source: entity.TokenAction{TokenId: 1, Action: entity.TransferAction, From: "alice", To: "bob"}},
	)

	history, err := NewTokenActionRepository(idx).GetTokenHistory(1)

	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "bob", history[1].To)
}

func TestSearch_RetriesTooManyRequests(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"type":"too_many_requests"},"status":429}`))
			return
		}
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":0,"relation":"eq"},"hits":[]}}`))
	}))
	defer server.Close()

	tooManyRequestsDelay = time.Millisecond
	defer func() { tooManyRequestsDelay = 5 * time.Second }()

	client, err := elastic.NewClient(
		elastic.SetURL(server.URL),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
		elastic.SetMaxRetries(0),
	)
	require.NoError(t, err)

	result, err := search(client.Search("anything"))

	require.NoError(t, err)
	assert.Equal(t, int64(0), result.TotalHits())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPageSize(t *testing.T) {
	assert.Equal(t, maxPageSize, pageSize(0))
	assert.Equal(t, 25, pageSize(25))
	assert.Equal(t, maxPageSize, pageSize(maxPageSize+1))
}
