package marketplace

import "errors"

var (
	ErrUnauthorized        = errors.New("caller is not the marketplace admin")
	ErrPriceTooLow         = errors.New("price below marketplace minimum")
	ErrNotForSale          = errors.New("listing is not for sale")
	ErrNotForRent          = errors.New("listing is not for rent")
	ErrAlreadyRented       = errors.New("listing is already rented")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInsufficientBalance = errors.New("insufficient marketplace balance")
	ErrNotFound            = errors.New("listing not found")
	ErrFeeExceedsPrice     = errors.New("marketplace fee exceeds price")
	ErrReentrantCall       = errors.New("reentrant marketplace call")
)
