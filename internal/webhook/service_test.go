package webhook

import (
	"encoding/json"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = 2
	client.RetryWaitMin = time.Millisecond
	client.RetryWaitMax = time.Millisecond

	return client
}

func TestNotify_PostsEnvelope(t *testing.T) {
	var envelope entity.EventEnvelope
	var eventType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		eventType = r.Header.Get("X-Event-Type")
		_ = json.NewDecoder(r.Body).Decode(&envelope)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	err := NewService([]string{server.URL}, newClient()).Notify(entity.ProductRented{Id: 9, Renter: "carol", Owner: "alice", Price: 5})
	require.NoError(t, err)

	assert.Equal(t, "ProductRented", eventType)
	e, err := envelope.Event()
	require.NoError(t, err)
	assert.Equal(t, "carol", e.(entity.ProductRented).Renter)
}

func TestNotify_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := NewService([]string{server.URL}, newClient()).Notify(entity.ProductSold{Id: 1})

	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestNotify_ReportsRejectedDelivery(t *testing.T) {
	var delivered int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&delivered, 1)
	}))
	defer good.Close()

	err := NewService([]string{bad.URL, good.URL}, newClient()).Notify(entity.ProductAdded{Id: 1})

	assert.ErrorIs(t, err, ErrBadStatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&delivered))
}
