package api

import (
	"context"
	"fmt"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/gorilla/mux"
	"net/http"
	"strconv"
	"time"
)

const (
	SettingReferralBonus             = "referralBonus"
	SettingMinSalePrice              = "minSalePrice"
	SettingMinRentPrice              = "minRentPrice"
	SettingFeePercentage             = "feePercentage"
	SettingDefaultExpirationDuration = "defaultExpirationDuration"
)

var Settings = []string{
	SettingReferralBonus,
	SettingMinSalePrice,
	SettingMinRentPrice,
	SettingFeePercentage,
	SettingDefaultExpirationDuration,
}

type ConfigResponse struct {
	Admin                     string `json:"admin"`
	ReferralBonus             uint64 `json:"referralBonus"`
	MinSalePrice              uint64 `json:"minSalePrice"`
	MinRentPrice              uint64 `json:"minRentPrice"`
	FeePercentage             uint64 `json:"feePercentage"`
	DefaultExpirationDuration string `json:"defaultExpirationDuration"`
}

type SetConfigRequest struct {
	Value string `json:"value"`
}

type AmountRequest struct {
	Amount uint64 `json:"amount"`
}

type BalanceResponse struct {
	Balance uint64 `json:"balance"`
}

func newConfigResponse(cfg entity.MarketplaceConfig) ConfigResponse {
	return ConfigResponse{
		Admin:                     cfg.Admin,
		ReferralBonus:             cfg.ReferralBonus,
		MinSalePrice:              cfg.MinSalePrice,
		MinRentPrice:              cfg.MinRentPrice,
		FeePercentage:             cfg.FeePercentage,
		DefaultExpirationDuration: cfg.DefaultExpirationDuration.String(),
	}
}

func (s Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.marketplace.Config(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJson(w, http.StatusOK, newConfigResponse(cfg))
}

func (s Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	caller, err := getIdentity(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req SetConfigRequest
	if err := readJson(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	setter, err := s.setter(mux.Vars(r)["setting"], req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := setter(r.Context(), caller); err != nil {
		writeError(w, r, err)
		return
	}

	s.handleGetConfig(w, r)
}

// setter parses value for the named setting and returns the engine call
// that applies it.
func (s Server) setter(setting, value string) (func(ctx context.Context, caller string) error, error) {
	if setting == SettingDefaultExpirationDuration {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidParameters, err)
		}
		return func(ctx context.Context, caller string) error {
			return s.marketplace.SetDefaultExpirationDuration(ctx, caller, duration)
		}, nil
	}

	amount, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidParameters, err)
	}

	var set func(ctx context.Context, caller string, value uint64) error
	switch setting {
	case SettingReferralBonus:
		set = s.marketplace.SetReferralBonus
	case SettingMinSalePrice:
		set = s.marketplace.SetMinSalePrice
	case SettingMinRentPrice:
		set = s.marketplace.SetMinRentPrice
	case SettingFeePercentage:
		set = s.marketplace.SetFeePercentage
	default:
		return nil, fmt.Errorf("%w: unknown setting %s", ErrInvalidParameters, setting)
	}

	return func(ctx context.Context, caller string) error {
		return set(ctx, caller, amount)
	}, nil
}

func (s Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	caller, err := getIdentity(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req AmountRequest
	if err := readJson(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.marketplace.WithdrawFunds(r.Context(), caller, req.Amount); err != nil {
		writeError(w, r, err)
		return
	}

	s.handleGetBalance(w, r)
}

func (s Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.marketplace.Balance(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJson(w, http.StatusOK, BalanceResponse{Balance: balance})
}

func (s Server) handleGetReferrals(w http.ResponseWriter, r *http.Request) {
	referrer := NormalizeIdentity(mux.Vars(r)["identity"])

	count, err := s.marketplace.ReferralCount(r.Context(), referrer)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJson(w, http.StatusOK, entity.Referral{Referrer: referrer, Count: count})
}

func (s Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	account, err := getIdentity(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req AmountRequest
	if err := readJson(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.accounts.Deposit(account, req.Amount); err != nil {
		writeError(w, r, err)
		return
	}

	writeJson(w, http.StatusOK, BalanceResponse{Balance: s.accounts.BalanceOf(account)})
}

func (s Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account := NormalizeIdentity(mux.Vars(r)["identity"])

	writeJson(w, http.StatusOK, BalanceResponse{Balance: s.accounts.BalanceOf(account)})
}
