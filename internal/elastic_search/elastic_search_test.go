package elastic_search

import (
	"bufio"
	"encoding/json"
	"github.com/ZilDuck/zilliqa-marketplace/internal/config"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/olivere/elastic/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type bulkServer struct {
	mu      sync.Mutex
	failIds map[string]bool
	actions []map[string]interface{}
	docs    []json.RawMessage
}

func (s *bulkServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]map[string]interface{}, 0)
	scanner := bufio.NewScanner(r.Body)
	for scanner.Scan() {
		var action map[string]map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &action); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		scanner.Scan()
		s.docs = append(s.docs, append(json.RawMessage{}, scanner.Bytes()...))

		for kind, meta := range action {
			s.actions = append(s.actions, map[string]interface{}{"kind": kind, "id": meta["_id"]})

			result := map[string]interface{}{"_index": meta["_index"], "_id": meta["_id"], "status": 200}
			if s.failIds[meta["_id"].(string)] {
				result["status"] = 404
				result["error"] = map[string]interface{}{"type": "document_missing_exception", "reason": "missing"}
			}
			items = append(items, map[string]interface{}{kind: result})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"took": 1, "errors": len(s.failIds) > 0, "items": items})
}

func newTestIndex(t *testing.T, server *bulkServer, batchSize int) *index {
	t.Helper()

	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)

	client, err := elastic.NewClient(elastic.SetURL(ts.URL), elastic.SetSniff(false), elastic.SetHealthcheck(false))
	require.NoError(t, err)

	return newIndex(client, config.ElasticSearchConfig{BulkPersistCount: batchSize})
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestAddUpdateRequest_FoldsIntoQueuedListing(t *testing.T) {
	idx := newTestIndex(t, &bulkServer{}, 10)

	idx.AddIndexRequest("listing", entity.Listing{Id: 1, Owner: "alice", Price: 40, ForSale: true}, ListingCreate)
	idx.AddUpdateRequest("listing", entity.ListingPatch{Id: 1, Owner: strPtr("bob"), ForSale: boolPtr(false)}, ListingSold)

	req := idx.request(entity.CreateListingSlug(1))
	require.NotNil(t, req)
	assert.Equal(t, IndexRequest, req.Type)
	assert.Equal(t, ListingSold, req.Action)

	listing := req.Entity.(entity.Listing)
	assert.Equal(t, "bob", listing.Owner)
	assert.False(t, listing.ForSale)
	assert.Equal(t, uint64(40), listing.Price)
}

func TestAddUpdateRequest_MergesPatches(t *testing.T) {
	idx := newTestIndex(t, &bulkServer{}, 10)

	idx.AddUpdateRequest("listing", entity.ListingPatch{Id: 1, Renter: strPtr("carol"), ForRent: boolPtr(false)}, ListingRented)
	idx.AddUpdateRequest("listing", entity.ListingPatch{Id: 1, Owner: strPtr("bob")}, ListingSold)

	req := idx.request(entity.CreateListingSlug(1))
	require.NotNil(t, req)
	assert.Equal(t, UpdateRequest, req.Type)

	patch := req.Entity.(entity.ListingPatch)
	assert.Equal(t, "carol", *patch.Renter)
	assert.Equal(t, "bob", *patch.Owner)
	assert.Len(t, idx.GetRequests(), 1)
}

func TestBatchPersist_WaitsForFullBatch(t *testing.T) {
	server := &bulkServer{}
	idx := newTestIndex(t, server, 2)

	idx.AddIndexRequest("listing", entity.Listing{Id: 0}, ListingCreate)
	assert.False(t, idx.BatchPersist())
	assert.Empty(t, server.actions)

	idx.AddIndexRequest("listing", entity.Listing{Id: 1}, ListingCreate)
	assert.True(t, idx.BatchPersist())
	assert.Len(t, server.actions, 2)
	assert.Empty(t, idx.GetRequests())
}

func TestPersist_KeepsFailedRequestsQueued(t *testing.T) {
	server := &bulkServer{failIds: map[string]bool{entity.CreateListingSlug(1): true}}
	idx := newTestIndex(t, server, 10)

	idx.AddIndexRequest("listing", entity.Listing{Id: 0}, ListingCreate)
	idx.AddUpdateRequest("listing", entity.ListingPatch{Id: 1, Owner: strPtr("bob")}, ListingSold)

	assert.Equal(t, 1, idx.Persist())

	remaining := idx.GetRequests()
	require.Len(t, remaining, 1)
	assert.Equal(t, entity.CreateListingSlug(1), remaining[0].Entity.Slug())
	assert.Equal(t, UpdateRequest, remaining[0].Type)
}

func TestPersist_SendsPartialDocForUpdates(t *testing.T) {
	server := &bulkServer{}
	idx := newTestIndex(t, server, 10)

	idx.AddUpdateRequest("listing", entity.ListingPatch{Id: 1, Owner: strPtr("bob")}, ListingSold)
	idx.Persist()

	require.Len(t, server.actions, 1)
	assert.Equal(t, "update", server.actions[0]["kind"])
	assert.JSONEq(t, `{"doc":{"owner":"bob"}}`, string(server.docs[0]))
}

func TestMergeRequests_RejectsNonPatch(t *testing.T) {
	_, err := mergeRequests(Request{Entity: entity.Listing{Id: 1}}, entity.Listing{Id: 1})

	assert.ErrorIs(t, err, ErrUnmergeable)
}
