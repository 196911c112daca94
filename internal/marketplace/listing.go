package marketplace

import (
	"context"
	"errors"
	"fmt"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/ledger"
	"go.uber.org/zap"
	"time"
)

// AddListing lists a new product owned by creator and mints its ownership
// token. A zero expiration means now plus the default expiration duration.
func (e *Engine) AddListing(ctx context.Context, creator, name string, price uint64, forSale, forRent bool, expiration time.Time) (uint64, error) {
	var id uint64
	err := e.run(ctx, func(ctx context.Context) (entity.Event, error) {
		if price < e.cfg.MinSalePrice && !(forRent && price >= e.cfg.MinRentPrice) {
			zap.L().With(
				zap.String("creator", creator),
				zap.Uint64("price", price),
				zap.Uint64("minSalePrice", e.cfg.MinSalePrice),
				zap.Uint64("minRentPrice", e.cfg.MinRentPrice),
			).Warn("Marketplace: Price too low")
			return nil, ErrPriceTooLow
		}

		if expiration.IsZero() {
			expiration = e.now().Add(e.cfg.DefaultExpirationDuration)
		}

		var j journal
		id = e.listings.append(entity.Listing{
			Owner:          creator,
			Name:           name,
			Price:          price,
			ForSale:        forSale,
			ForRent:        forRent,
			ExpirationTime: expiration,
		})
		j.record(func() { e.listings.truncate(id) })

		if err := e.collaborate(func() error { return e.registry.Mint(ctx, creator, id) }); err != nil {
			zap.L().With(zap.Uint64("listingId", id), zap.Error(err)).Error("Marketplace: Failed to mint token")
			j.rollback()
			return nil, fmt.Errorf("mint token %d: %w", id, err)
		}

		zap.L().With(zap.Uint64("listingId", id), zap.String("owner", creator), zap.Uint64("price", price)).
			Info("Marketplace: Listing added")

		return entity.ProductAdded{
			EventHeader:    entity.NewEventHeader(entity.ProductAddedEvent, e.now()),
			Id:             id,
			Owner:          creator,
			Name:           name,
			Price:          price,
			ForSale:        forSale,
			ForRent:        forRent,
			ExpirationTime: expiration,
		}, nil
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// BuyListing transfers a listing and its token to payer. The seller receives
// the price minus the marketplace fee; anything paid above the price stays in
// custody.
func (e *Engine) BuyListing(ctx context.Context, payer string, id, paid uint64, referrer string) error {
	return e.run(ctx, func(ctx context.Context) (entity.Event, error) {
		l, err := e.listings.get(id)
		if err != nil {
			zap.L().With(zap.Uint64("listingId", id)).Warn("Marketplace: Buy unknown listing")
			return nil, err
		}
		if !l.ForSale {
			zap.L().With(zap.Uint64("listingId", id), zap.String("payer", payer)).Warn("Marketplace: Listing not for sale")
			return nil, ErrNotForSale
		}
		if paid < l.Price {
			zap.L().With(zap.Uint64("listingId", id), zap.Uint64("paid", paid), zap.Uint64("price", l.Price)).
				Warn("Marketplace: Insufficient funds for purchase")
			return nil, ErrInsufficientFunds
		}

		seller := l.Owner
		var j journal
		payouts, err := e.distribute(&j, payer, seller, l.Price, referrer)
		if err != nil {
			return nil, err
		}

		l.Owner = payer
		l.ForSale = false
		if err := e.stage(&j, l); err != nil {
			j.rollback()
			return nil, err
		}

		if err := e.collaborate(func() error { return e.registry.Transfer(ctx, seller, payer, id) }); err != nil {
			zap.L().With(zap.Uint64("listingId", id), zap.Error(err)).Error("Marketplace: Failed to transfer token")
			j.rollback()
			return nil, fmt.Errorf("transfer token %d: %w", id, err)
		}
		j.record(func() { e.returnToken(payer, seller, id) })

		if err := e.settle(ctx, payer, paid, payouts); err != nil {
			zap.L().With(zap.Uint64("listingId", id), zap.Error(err)).Error("Marketplace: Failed to settle purchase")
			j.rollback()
			return nil, err
		}

		zap.L().With(zap.Uint64("listingId", id), zap.String("buyer", payer), zap.String("seller", seller)).
			Info("Marketplace: Listing sold")

		return entity.ProductSold{
			EventHeader: entity.NewEventHeader(entity.ProductSoldEvent, e.now()),
			Id:          id,
			Buyer:       payer,
			Seller:      seller,
			Price:       l.Price,
		}, nil
	})
}

// RentListing records renter against a listing and pays its owner. The
// expiration time is informational; nothing ever clears the renter.
func (e *Engine) RentListing(ctx context.Context, renter string, id, paid uint64, referrer string) error {
	return e.run(ctx, func(ctx context.Context) (entity.Event, error) {
		l, err := e.listings.get(id)
		if err != nil {
			zap.L().With(zap.Uint64("listingId", id)).Warn("Marketplace: Rent unknown listing")
			return nil, err
		}
		if l.IsRented() {
			zap.L().With(zap.Uint64("listingId", id), zap.String("renter", l.Renter)).Warn("Marketplace: Listing already rented")
			return nil, ErrAlreadyRented
		}
		if !l.ForRent {
			zap.L().With(zap.Uint64("listingId", id), zap.String("renter", renter)).Warn("Marketplace: Listing not for rent")
			return nil, ErrNotForRent
		}
		if paid < l.Price {
			zap.L().With(zap.Uint64("listingId", id), zap.Uint64("paid", paid), zap.Uint64("price", l.Price)).
				Warn("Marketplace: Insufficient funds for rental")
			return nil, ErrInsufficientFunds
		}

		var j journal
		payouts, err := e.distribute(&j, renter, l.Owner, l.Price, referrer)
		if err != nil {
			return nil, err
		}

		l.Renter = renter
		l.ForRent = false
		if err := e.stage(&j, l); err != nil {
			j.rollback()
			return nil, err
		}

		if err := e.settle(ctx, renter, paid, payouts); err != nil {
			zap.L().With(zap.Uint64("listingId", id), zap.Error(err)).Error("Marketplace: Failed to settle rental")
			j.rollback()
			return nil, err
		}

		zap.L().With(zap.Uint64("listingId", id), zap.String("renter", renter), zap.String("owner", l.Owner)).
			Info("Marketplace: Listing rented")

		return entity.ProductRented{
			EventHeader:    entity.NewEventHeader(entity.ProductRentedEvent, e.now()),
			Id:             id,
			Renter:         renter,
			Owner:          l.Owner,
			Price:          l.Price,
			ExpirationTime: l.ExpirationTime,
		}, nil
	})
}

// distribute works out the payouts for a sale or rental and counts the
// referral. The referral bonus is a flat amount paid from custody whatever
// the price.
func (e *Engine) distribute(j *journal, payer, payee string, price uint64, referrer string) ([]ledger.Payout, error) {
	fee := e.cfg.Fee(price)
	if fee > price {
		zap.L().With(zap.Uint64("price", price), zap.Uint64("fee", fee), zap.Uint64("feePercentage", e.cfg.FeePercentage)).
			Error("Marketplace: Fee exceeds price")
		return nil, ErrFeeExceedsPrice
	}

	payouts := make([]ledger.Payout, 0, 2)
	if referrer != "" && referrer != payer {
		previous := e.referrals.count(referrer)
		e.referrals.increment(referrer)
		j.record(func() { e.referrals.restore(referrer, previous) })

		payouts = append(payouts, ledger.Payout{To: referrer, Amount: e.cfg.ReferralBonus})
	}

	return append(payouts, ledger.Payout{To: payee, Amount: price - fee}), nil
}

// stage writes the updated listing and journals the previous version.
func (e *Engine) stage(j *journal, l entity.Listing) error {
	previous, err := e.listings.get(l.Id)
	if err != nil {
		zap.L().With(zap.Uint64("listingId", l.Id), zap.Error(err)).Error("Marketplace: Failed to stage listing")
		return err
	}
	if err := e.listings.put(l); err != nil {
		zap.L().With(zap.Uint64("listingId", l.Id), zap.Error(err)).Error("Marketplace: Failed to stage listing")
		return err
	}
	j.record(func() {
		if err := e.listings.put(previous); err != nil {
			zap.L().With(zap.Uint64("listingId", previous.Id), zap.Error(err)).Error("Marketplace: Failed to restore listing")
		}
	})

	return nil
}

func (e *Engine) settle(ctx context.Context, from string, amount uint64, payouts []ledger.Payout) error {
	err := e.collaborate(func() error {
		return e.ledger.Settle(ctx, ledger.Settlement{From: from, Amount: amount, Payouts: payouts})
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return fmt.Errorf("%w: %s", ErrInsufficientBalance, err)
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fmt.Errorf("%w: %s", ErrInsufficientFunds, err)
	}

	return fmt.Errorf("settlement: %w", err)
}

// returnToken undoes a token transfer that was issued before a later step of
// the same operation failed. The registry keeps both transfers in its history.
func (e *Engine) returnToken(from, to string, id uint64) {
	if err := e.collaborate(func() error { return e.registry.Transfer(context.Background(), from, to, id) }); err != nil {
		zap.L().With(zap.Uint64("listingId", id), zap.String("from", from), zap.String("to", to), zap.Error(err)).
			Error("Marketplace: Failed to return token after rollback")
	}
}
