package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/event"
	"github.com/ZilDuck/zilliqa-marketplace/internal/ledger"
	"github.com/ZilDuck/zilliqa-marketplace/internal/marketplace"
	"github.com/ZilDuck/zilliqa-marketplace/internal/metrics"
	"github.com/ZilDuck/zilliqa-marketplace/internal/registry"
	"github.com/Zilliqa/gozilliqa-sdk/bech32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fixture struct {
	server *httptest.Server
	ledger ledger.Ledger
	events *event.Manager
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()

	l := ledger.NewLedger("custody")
	events := event.NewManager()
	engine := marketplace.NewEngine(entity.MarketplaceConfig{
		Admin:                     "admin",
		MinSalePrice:              10,
		MinRentPrice:              5,
		FeePercentage:             5,
		ReferralBonus:             1,
		DefaultExpirationDuration: time.Hour,
	}, registry.NewRegistry(), l, events)

	opts = append(opts, WithMetrics(metrics.NewCollector("test")))
	server := httptest.NewServer(NewServer(engine, l, opts...).Router())
	t.Cleanup(func() {
		server.Close()
		events.Close()
	})

	return fixture{server: server, ledger: l, events: events}
}

func (f fixture) do(t *testing.T, method, path, identity string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	if identity != "" {
		req.Header.Set(IdentityHeader, identity)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, data
}

func TestListingLifecycle(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit("bob", 100))

	resp, body := f.do(t, "POST", "/listings", "alice", AddListingRequest{Name: "bike", Price: 100, ForSale: true})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var added AddListingResponse
	require.NoError(t, json.Unmarshal(body, &added))
	assert.Equal(t, uint64(0), added.Id)

	resp, body = f.do(t, "POST", "/listings/0/buy", "bob", PaymentRequest{Amount: 100})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var listing entity.Listing
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Equal(t, "bob", listing.Owner)
	assert.False(t, listing.ForSale)

	assert.Equal(t, uint64(95), f.ledger.BalanceOf("alice"))

	resp, body = f.do(t, "GET", "/balance", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"balance":5}`, string(body))

	resp, body = f.do(t, "GET", "/listings?offset=0&limit=10", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listings ListingsResponse
	require.NoError(t, json.Unmarshal(body, &listings))
	assert.Equal(t, uint64(1), listings.Count)
	require.Len(t, listings.Listings, 1)
}

func TestErrorStatusCodes(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit("bob", 50))

	resp, _ := f.do(t, "POST", "/listings", "alice", AddListingRequest{Name: "cheap", Price: 1, ForSale: true})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = f.do(t, "POST", "/listings", "", AddListingRequest{Name: "bike", Price: 20, ForSale: true})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.do(t, "POST", "/listings", "alice", AddListingRequest{Name: "bike", Price: 20, ForSale: true})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = f.do(t, "GET", "/listings/7", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, "POST", "/listings/0/rent", "bob", PaymentRequest{Amount: 20})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = f.do(t, "POST", "/listings/0/buy", "bob", PaymentRequest{Amount: 19})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = f.do(t, "PUT", "/config/feePercentage", "alice", SetConfigRequest{Value: "10"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.do(t, "PUT", "/config/feePercentage", "admin", SetConfigRequest{Value: "ten"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, "POST", "/withdraw", "admin", AmountRequest{Amount: 1})
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)

	resp, _ = f.do(t, "GET", "/owners/alice/listings", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = f.do(t, "GET", "/listings/0/tokens", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = f.do(t, "GET", "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type tokenHistory map[uint64][]entity.TokenAction

func (h tokenHistory) GetTokenHistory(tokenId uint64) ([]entity.TokenAction, error) {
	if tokenId == 9 {
		return nil, errors.New("search failed")
	}
	return h[tokenId], nil
}

func TestListingTokenHistory(t *testing.T) {
	at := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, WithTokenHistory(tokenHistory{
		0: {
			{TokenId: 0, Action: entity.MintAction, To: "alice", Time: at},
			{TokenId: 0, Action: entity.TransferAction, From: "alice", To: "bob", Time: at.Add(time.Minute)},
		},
	}))

	resp, body := f.do(t, "GET", "/listings/0/tokens", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history TokenHistoryResponse
	require.NoError(t, json.Unmarshal(body, &history))
	require.Len(t, history.Actions, 2)
	assert.Equal(t, entity.MintAction, history.Actions[0].Action)
	assert.Equal(t, "bob", history.Actions[1].To)

	resp, _ = f.do(t, "GET", "/listings/9/tokens", "", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestConfigAndWithdraw(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, "PUT", "/config/defaultExpirationDuration", "admin", SetConfigRequest{Value: "48h"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var cfg ConfigResponse
	require.NoError(t, json.Unmarshal(body, &cfg))
	assert.Equal(t, "48h0m0s", cfg.DefaultExpirationDuration)

	resp, _ = f.do(t, "PUT", "/config/referralBonus", "admin", SetConfigRequest{Value: "3"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = f.do(t, "GET", "/config", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &cfg))
	assert.Equal(t, uint64(3), cfg.ReferralBonus)
	assert.Equal(t, "admin", cfg.Admin)

	require.NoError(t, f.ledger.Deposit("custody", 40))
	resp, body = f.do(t, "POST", "/withdraw", "admin", AmountRequest{Amount: 15})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"balance":25}`, string(body))
	assert.Equal(t, uint64(15), f.ledger.BalanceOf("admin"))
}

func TestRentWithReferral(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit("custody", 10))

	resp, body := f.do(t, "POST", "/accounts/deposit", "carol", AmountRequest{Amount: 30})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"balance":30}`, string(body))

	resp, _ = f.do(t, "POST", "/listings", "alice", AddListingRequest{Name: "flat", Price: 20, ForRent: true})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = f.do(t, "POST", "/listings/0/rent", "carol", PaymentRequest{Amount: 20, Referrer: "dave"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var listing entity.Listing
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Equal(t, "carol", listing.Renter)

	resp, body = f.do(t, "GET", "/referrals/dave", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"referrer":"dave","count":1}`, string(body))

	resp, body = f.do(t, "GET", "/accounts/dave", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"balance":1}`, string(body))

	resp, _ = f.do(t, "POST", "/listings/0/rent", "carol", PaymentRequest{Amount: 20})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	resp, body = f.do(t, "GET", "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `test_http_requests_total{method="GET",route="/health",status="200"} 1`))
}

func TestNormalizeIdentity(t *testing.T) {
	base16 := "1d19918a737306218b5cbb3241fcdcbd998c3a72"
	address, err := bech32.ToBech32Address(base16)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(address, "zil1"))

	assert.Equal(t, address, NormalizeIdentity(base16))
	assert.Equal(t, address, NormalizeIdentity("0x"+base16))
	assert.Equal(t, address, NormalizeIdentity(" "+address+" "))
	assert.Equal(t, "alice", NormalizeIdentity("alice"))
	assert.Equal(t, "", NormalizeIdentity("  "))
}
