package api

import (
	"errors"
	"github.com/ZilDuck/zilliqa-marketplace/internal/ledger"
	"github.com/ZilDuck/zilliqa-marketplace/internal/marketplace"
	"github.com/ZilDuck/zilliqa-marketplace/internal/registry"
	"go.uber.org/zap"
	"net/http"
)

type errorResponse struct {
	Error string `json:"error"`
}

var statusCodes = []struct {
	err    error
	status int
}{
	{ErrInvalidParameters, http.StatusBadRequest},
	{ErrMissingIdentity, http.StatusUnauthorized},
	{ErrIndexUnavailable, http.StatusServiceUnavailable},
	{marketplace.ErrUnauthorized, http.StatusForbidden},
	{marketplace.ErrNotFound, http.StatusNotFound},
	{marketplace.ErrReentrantCall, http.StatusConflict},
	{marketplace.ErrAlreadyRented, http.StatusConflict},
	{marketplace.ErrNotForSale, http.StatusConflict},
	{marketplace.ErrNotForRent, http.StatusConflict},
	{marketplace.ErrPriceTooLow, http.StatusUnprocessableEntity},
	{marketplace.ErrInsufficientFunds, http.StatusUnprocessableEntity},
	{marketplace.ErrFeeExceedsPrice, http.StatusUnprocessableEntity},
	{marketplace.ErrInsufficientBalance, http.StatusPaymentRequired},
	{ledger.ErrRecipientRejected, http.StatusBadGateway},
	{ledger.ErrOverflow, http.StatusUnprocessableEntity},
	{registry.ErrTokenExists, http.StatusBadGateway},
	{registry.ErrTokenNotFound, http.StatusBadGateway},
	{registry.ErrNotTokenOwner, http.StatusBadGateway},
}

func statusCode(err error) int {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return sc.status
		}
	}

	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusCode(err)
	if status >= http.StatusInternalServerError {
		zap.L().With(zap.Error(err), zap.String("path", r.URL.Path)).Error("Api: Request failed")
	}

	writeJson(w, status, errorResponse{Error: err.Error()})
}
