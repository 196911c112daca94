package di

import (
	"context"
	"encoding/json"
	"github.com/ZilDuck/zilliqa-marketplace/internal/api"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestContainer_BuildsWithoutOptionalServices(t *testing.T) {
	c, err := NewContainer()
	require.NoError(t, err)
	defer func() { _ = c.Delete() }()

	engine := c.GetEngine()
	require.NotNil(t, engine)
	assert.Same(t, engine, c.GetEngine())

	cfg, err := engine.Config(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 720*time.Hour, cfg.DefaultExpirationDuration)

	_, err = c.GetElastic()
	assert.Error(t, err)
	_, err = c.GetMessenger()
	assert.Error(t, err)

	assert.NotNil(t, c.GetDaemon())

	_, err = engine.AddListing(context.Background(), "alice", "lamp", 10, true, false, time.Time{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c.GetApi().Router().ServeHTTP(rec, httptest.NewRequest("GET", "/listings/0/tokens", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var history api.TokenHistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Actions, 1)
	assert.Equal(t, entity.MintAction, history.Actions[0].Action)
	assert.Equal(t, "alice", history.Actions[0].To)
}
