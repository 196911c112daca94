// Package api is the HTTP surface of the marketplace. Commands act as the
// identity in the X-Identity header.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ZilDuck/zilliqa-marketplace/internal/marketplace"
	"github.com/ZilDuck/zilliqa-marketplace/internal/metrics"
	"github.com/ZilDuck/zilliqa-marketplace/internal/repository"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"net/http"
	"strconv"
	"time"
)

const IdentityHeader = "X-Identity"

var (
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrMissingIdentity   = errors.New("missing identity")
	ErrIndexUnavailable  = errors.New("index unavailable")
)

type Accounts interface {
	Deposit(account string, amount uint64) error
	BalanceOf(account string) uint64
}

type Server struct {
	marketplace marketplace.Marketplace
	accounts    Accounts
	listingRepo repository.ListingRepository
	eventRepo   repository.EventRepository
	tokenRepo   repository.TokenActionRepository
	metrics     *metrics.Collector
}

type Option func(s *Server)

// WithIndex serves the index-backed read routes from the given repositories.
func WithIndex(listingRepo repository.ListingRepository, eventRepo repository.EventRepository) Option {
	return func(s *Server) {
		s.listingRepo = listingRepo
		s.eventRepo = eventRepo
	}
}

// WithTokenHistory serves per-token mint and transfer history.
func WithTokenHistory(tokenRepo repository.TokenActionRepository) Option {
	return func(s *Server) {
		s.tokenRepo = tokenRepo
	}
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = collector
	}
}

func NewServer(m marketplace.Marketplace, accounts Accounts, opts ...Option) Server {
	s := Server{marketplace: m, accounts: accounts}
	for _, opt := range opts {
		opt(&s)
	}

	return s
}

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument)

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}

	r.HandleFunc("/listings", s.handleGetListings).Methods("GET")
	r.HandleFunc("/listings", s.handleAddListing).Methods("POST")
	r.HandleFunc("/listings/count", s.handleGetListingCount).Methods("GET")
	r.HandleFunc("/listings/{id:[0-9]+}", s.handleGetListing).Methods("GET")
	r.HandleFunc("/listings/{id:[0-9]+}/buy", s.handleBuyListing).Methods("POST")
	r.HandleFunc("/listings/{id:[0-9]+}/rent", s.handleRentListing).Methods("POST")
	r.HandleFunc("/listings/{id:[0-9]+}/events", s.handleGetListingEvents).Methods("GET")
	r.HandleFunc("/listings/{id:[0-9]+}/tokens", s.handleGetListingTokens).Methods("GET")
	r.HandleFunc("/owners/{owner}/listings", s.handleGetOwnerListings).Methods("GET")

	r.HandleFunc("/config", s.handleGetConfig).Methods("GET")
	r.HandleFunc("/config/{setting}", s.handleSetConfig).Methods("PUT")
	r.HandleFunc("/withdraw", s.handleWithdraw).Methods("POST")
	r.HandleFunc("/balance", s.handleGetBalance).Methods("GET")
	r.HandleFunc("/referrals/{identity}", s.handleGetReferrals).Methods("GET")

	r.HandleFunc("/accounts/deposit", s.handleDeposit).Methods("POST")
	r.HandleFunc("/accounts/{identity}", s.handleGetAccount).Methods("GET")

	r.NotFoundHandler = notFoundHandler()

	return r
}

func (s Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, _ = fmt.Fprintf(w, "OK")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		if s.metrics != nil {
			s.metrics.RecordRequest(route, r.Method, rec.status, time.Since(start))
		}
		zap.L().With(
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		).Debug("Api: Request")
	})
}

func writeJson(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to write response")
	}
}

func readJson(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidParameters, err)
	}

	return nil
}

func getUint64Var(r *http.Request, name string) (uint64, error) {
	value, ok := mux.Vars(r)[name]
	if !ok {
		return 0, ErrInvalidParameters
	}

	return strconv.ParseUint(value, 10, 64)
}

func getUint64Query(r *http.Request, name string, defaultValue uint64) (uint64, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return defaultValue, nil
	}

	v, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidParameters, name)
	}

	return v, nil
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, http.StatusNotFound, errorResponse{Error: "page not found"})
	})
}
