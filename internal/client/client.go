// Package client talks to the marketplace HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ZilDuck/zilliqa-marketplace/internal/api"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/hashicorp/go-retryablehttp"
	"io"
	"net/http"
	"net/url"
	"time"
)

var ErrMissingIdentity = errors.New("no identity configured")

// ApiError is a non-2xx answer from the API.
type ApiError struct {
	Status  int
	Message string
}

func (e ApiError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	baseUrl  string
	identity string
	http     *retryablehttp.Client
}

func New(baseUrl, identity string, httpClient *retryablehttp.Client) Client {
	return Client{baseUrl: baseUrl, identity: identity, http: httpClient}
}

func (c Client) ListingCount(ctx context.Context) (uint64, error) {
	var resp api.CountResponse
	err := c.do(ctx, http.MethodGet, "/listings/count", nil, &resp)

	return resp.Count, err
}

func (c Client) Listing(ctx context.Context, id uint64) (entity.Listing, error) {
	var listing entity.Listing
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/listings/%d", id), nil, &listing)

	return listing, err
}

func (c Client) Listings(ctx context.Context, offset, limit uint64) (api.ListingsResponse, error) {
	var resp api.ListingsResponse
	query := url.Values{}
	query.Set("offset", fmt.Sprint(offset))
	query.Set("limit", fmt.Sprint(limit))
	err := c.do(ctx, http.MethodGet, "/listings?"+query.Encode(), nil, &resp)

	return resp, err
}

func (c Client) AddListing(ctx context.Context, req api.AddListingRequest) (uint64, error) {
	var resp api.AddListingResponse
	err := c.do(ctx, http.MethodPost, "/listings", req, &resp)

	return resp.Id, err
}

func (c Client) BuyListing(ctx context.Context, id, amount uint64, referrer string) (entity.Listing, error) {
	var listing entity.Listing
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/listings/%d/buy", id), api.PaymentRequest{Amount: amount, Referrer: referrer}, &listing)

	return listing, err
}

func (c Client) RentListing(ctx context.Context, id, amount uint64, referrer string) (entity.Listing, error) {
	var listing entity.Listing
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/listings/%d/rent", id), api.PaymentRequest{Amount: amount, Referrer: referrer}, &listing)

	return listing, err
}

func (c Client) TokenHistory(ctx context.Context, id uint64) ([]entity.TokenAction, error) {
	var resp api.TokenHistoryResponse
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/listings/%d/tokens", id), nil, &resp)

	return resp.Actions, err
}

func (c Client) Config(ctx context.Context) (api.ConfigResponse, error) {
	var cfg api.ConfigResponse
	err := c.do(ctx, http.MethodGet, "/config", nil, &cfg)

	return cfg, err
}

func (c Client) SetConfig(ctx context.Context, setting, value string) (api.ConfigResponse, error) {
	var cfg api.ConfigResponse
	err := c.do(ctx, http.MethodPut, "/config/"+url.PathEscape(setting), api.SetConfigRequest{Value: value}, &cfg)

	return cfg, err
}

func (c Client) Withdraw(ctx context.Context, amount uint64) (uint64, error) {
	var resp api.BalanceResponse
	err := c.do(ctx, http.MethodPost, "/withdraw", api.AmountRequest{Amount: amount}, &resp)

	return resp.Balance, err
}

func (c Client) Balance(ctx context.Context) (uint64, error) {
	var resp api.BalanceResponse
	err := c.do(ctx, http.MethodGet, "/balance", nil, &resp)

	return resp.Balance, err
}

func (c Client) Referrals(ctx context.Context, identity string) (entity.Referral, error) {
	var referral entity.Referral
	err := c.do(ctx, http.MethodGet, "/referrals/"+url.PathEscape(identity), nil, &referral)

	return referral, err
}

func (c Client) Deposit(ctx context.Context, amount uint64) (uint64, error) {
	var resp api.BalanceResponse
	err := c.do(ctx, http.MethodPost, "/accounts/deposit", api.AmountRequest{Amount: amount}, &resp)

	return resp.Balance, err
}

func (c Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		if c.identity == "" {
			return ErrMissingIdentity
		}
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseUrl+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.identity != "" {
		req.Header.Set(api.IdentityHeader, c.identity)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return ApiError{Status: resp.StatusCode, Message: apiErr.Error}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// NewHttpClient returns a retrying http client that only retries requests
// which cannot have changed state.
func NewHttpClient(retryMax int, timeout time.Duration) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = retryMax
	client.HTTPClient.Timeout = timeout
	client.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if resp != nil && resp.Request != nil && resp.Request.Method != http.MethodGet {
			return false, nil
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	return client
}
