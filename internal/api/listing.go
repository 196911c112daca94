package api

import (
	"context"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/gorilla/mux"
	"net/http"
	"time"
)

type AddListingRequest struct {
	Name           string     `json:"name"`
	Price          uint64     `json:"price"`
	ForSale        bool       `json:"forSale"`
	ForRent        bool       `json:"forRent"`
	ExpirationTime *time.Time `json:"expirationTime,omitempty"`
}

type AddListingResponse struct {
	Id uint64 `json:"id"`
}

type PaymentRequest struct {
	Amount   uint64 `json:"amount"`
	Referrer string `json:"referrer,omitempty"`
}

type ListingsResponse struct {
	Count    uint64           `json:"count"`
	Listings []entity.Listing `json:"listings"`
}

type CountResponse struct {
	Count uint64 `json:"count"`
}

type OwnerListingsResponse struct {
	Total    int64            `json:"total"`
	Listings []entity.Listing `json:"listings"`
}

type EventsResponse struct {
	Events []entity.EventEnvelope `json:"events"`
}

type TokenHistoryResponse struct {
	Actions []entity.TokenAction `json:"actions"`
}

func (s Server) handleGetListings(w http.ResponseWriter, r *http.Request) {
	offset, err := getUint64Query(r, "offset", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := getUint64Query(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	count, err := s.marketplace.ListingCount(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	listings, err := s.marketplace.Listings(r.Context(), offset, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJson(w, http.StatusOK, ListingsResponse{Count: count, Listings: listings})
}

func (s Server) handleGetListingCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.marketplace.ListingCount(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJson(w, http.StatusOK, CountResponse{Count: count})
}

func (s Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id, err := getUint64Var(r, "id")
	if err != nil {
		writeError(w, r, ErrInvalidParameters)
		return
	}

	listing, err := s.marketplace.Listing(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJson(w, http.StatusOK, listing)
}

func (s Server) handleAddListing(w http.ResponseWriter, r *http.Request) {
	creator, err := getIdentity(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req AddListingRequest
	if err := readJson(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var expiration time.Time
	if req.ExpirationTime != nil {
		expiration = *req.ExpirationTime
	}

	id, err := s.marketplace.AddListing(r.Context(), creator, req.Name, req.Price, req.ForSale, req.ForRent, expiration)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJson(w, http.StatusCreated, AddListingResponse{Id: id})
}

func (s Server) handleBuyListing(w http.ResponseWriter, r *http.Request) {
	s.handlePayment(w, r, s.marketplace.BuyListing)
}

func (s Server) handleRentListing(w http.ResponseWriter, r *http.Request) {
	s.handlePayment(w, r, s.marketplace.RentListing)
}

type paymentOperation func(ctx context.Context, payer string, id, paid uint64, referrer string) error

// handlePayment runs a buy or rent and answers with the listing as committed.
func (s Server) handlePayment(w http.ResponseWriter, r *http.Request, op paymentOperation) {
	payer, err := getIdentity(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := getUint64Var(r, "id")
	if err != nil {
		writeError(w, r, ErrInvalidParameters)
		return
	}

	var req PaymentRequest
	if err := readJson(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	referrer := ""
	if req.Referrer != "" {
		referrer = NormalizeIdentity(req.Referrer)
	}

	if err := op(r.Context(), payer, id, req.Amount, referrer); err != nil {
		writeError(w, r, err)
		return
	}

	listing, err := s.marketplace.Listing(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJson(w, http.StatusOK, listing)
}

func (s Server) handleGetListingEvents(w http.ResponseWriter, r *http.Request) {
	if s.eventRepo == nil {
		writeError(w, r, ErrIndexUnavailable)
		return
	}

	id, err := getUint64Var(r, "id")
	if err != nil {
		writeError(w, r, ErrInvalidParameters)
		return
	}
	from, err := getUint64Query(r, "from", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	size, err := getUint64Query(r, "size", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	events, err := s.eventRepo.GetEventsForListing(id, int(from), int(size))
	if err != nil {
		writeError(w, r, err)
		return
	}

	envelopes := make([]entity.EventEnvelope, 0, len(events))
	for _, e := range events {
		envelope, err := entity.NewEventEnvelope(e)
		if err != nil {
			writeError(w, r, err)
			return
		}
		envelopes = append(envelopes, envelope)
	}

	writeJson(w, http.StatusOK, EventsResponse{Events: envelopes})
}

// TokenHistoryFunc serves token history from an in-process source, such as
// the registry when no index is configured.
type TokenHistoryFunc func(tokenId uint64) []entity.TokenAction

func (f TokenHistoryFunc) GetTokenHistory(tokenId uint64) ([]entity.TokenAction, error) {
	return f(tokenId), nil
}

func (s Server) handleGetListingTokens(w http.ResponseWriter, r *http.Request) {
	if s.tokenRepo == nil {
		writeError(w, r, ErrIndexUnavailable)
		return
	}

	id, err := getUint64Var(r, "id")
	if err != nil {
		writeError(w, r, ErrInvalidParameters)
		return
	}

	actions, err := s.tokenRepo.GetTokenHistory(id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJson(w, http.StatusOK, TokenHistoryResponse{Actions: actions})
}

func (s Server) handleGetOwnerListings(w http.ResponseWriter, r *http.Request) {
	if s.listingRepo == nil {
		writeError(w, r, ErrIndexUnavailable)
		return
	}

	owner := NormalizeIdentity(mux.Vars(r)["owner"])
	from, err := getUint64Query(r, "from", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	size, err := getUint64Query(r, "size", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	listings, total, err := s.listingRepo.GetListingsByOwner(owner, int(from), int(size))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJson(w, http.StatusOK, OwnerListingsResponse{Total: total, Listings: listings})
}
