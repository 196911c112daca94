// Package marketplace runs the listing lifecycle: listings are added, bought
// and rented, fees and referral bonuses are distributed, and the admin tunes
// the marketplace configuration.
//
// Every operation is serialized and all-or-nothing. Internal state is staged
// first, then the token transfer and a single ledger settlement are issued;
// a failure at any step rolls the operation back completely.
package marketplace

import (
	"context"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/event"
	"github.com/ZilDuck/zilliqa-marketplace/internal/ledger"
	"go.uber.org/zap"
	"sync"
	"sync/atomic"
	"time"
)

type AssetRegistry interface {
	Mint(ctx context.Context, owner string, tokenId uint64) error
	Transfer(ctx context.Context, from, to string, tokenId uint64) error
}

type ValueLedger interface {
	Settle(ctx context.Context, s ledger.Settlement) error
	Balance(ctx context.Context) (uint64, error)
}

type Marketplace interface {
	AddListing(ctx context.Context, creator, name string, price uint64, forSale, forRent bool, expiration time.Time) (uint64, error)
	BuyListing(ctx context.Context, payer string, id, paid uint64, referrer string) error
	RentListing(ctx context.Context, renter string, id, paid uint64, referrer string) error

	SetReferralBonus(ctx context.Context, caller string, bonus uint64) error
	SetMinSalePrice(ctx context.Context, caller string, price uint64) error
	SetMinRentPrice(ctx context.Context, caller string, price uint64) error
	SetFeePercentage(ctx context.Context, caller string, percentage uint64) error
	SetDefaultExpirationDuration(ctx context.Context, caller string, duration time.Duration) error
	WithdrawFunds(ctx context.Context, caller string, amount uint64) error

	ListingCount(ctx context.Context) (uint64, error)
	Listing(ctx context.Context, id uint64) (entity.Listing, error)
	Listings(ctx context.Context, offset, limit uint64) ([]entity.Listing, error)
	Config(ctx context.Context) (entity.MarketplaceConfig, error)
	ReferralCount(ctx context.Context, referrer string) (uint64, error)
	Balance(ctx context.Context) (uint64, error)
}

type Engine struct {
	mu     sync.Mutex
	emitMu sync.Mutex

	// collaborating is 1 while an operation waits on the registry or ledger.
	collaborating int32

	cfg       entity.MarketplaceConfig
	listings  *listingStore
	referrals *referralLedger

	registry AssetRegistry
	ledger   ValueLedger
	events   event.Sink
	now      func() time.Time
}

type Option func(e *Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(cfg entity.MarketplaceConfig, registry AssetRegistry, ledger ValueLedger, events event.Sink, opts ...Option) *Engine {
	e := &Engine{
		cfg:       cfg,
		listings:  newListingStore(),
		referrals: newReferralLedger(),
		registry:  registry,
		ledger:    ledger,
		events:    events,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

type operationKey struct{}

func (e *Engine) reentrant(ctx context.Context) bool {
	return ctx.Value(operationKey{}) == e
}

// acquire takes the engine lock. A call that finds the lock held while the
// running operation is inside a registry or ledger call is rejected, since
// that call may be the collaborator calling back and can never be served.
// Callers that lose that race get ErrReentrantCall and may retry.
func (e *Engine) acquire(ctx context.Context) error {
	if e.reentrant(ctx) {
		return ErrReentrantCall
	}
	if e.mu.TryLock() {
		return nil
	}
	if atomic.LoadInt32(&e.collaborating) == 1 {
		zap.L().Warn("Marketplace: Call rejected while waiting on a collaborator")
		return ErrReentrantCall
	}
	e.mu.Lock()

	return nil
}

// collaborate runs a registry or ledger call on behalf of the operation that
// holds the engine lock.
func (e *Engine) collaborate(fn func() error) error {
	atomic.StoreInt32(&e.collaborating, 1)
	defer atomic.StoreInt32(&e.collaborating, 0)

	return fn()
}

// run executes op under the engine lock. The event op returns, if any, is
// emitted after the lock is released but before the next operation can emit,
// so listeners observe events in commit order. A sink that blocks, such as a
// full listener buffer, holds up every later operation until it drains.
func (e *Engine) run(ctx context.Context, op func(ctx context.Context) (entity.Event, error)) error {
	if err := e.acquire(ctx); err != nil {
		return err
	}
	ctx = context.WithValue(ctx, operationKey{}, e)

	locked := true
	defer func() {
		if locked {
			e.mu.Unlock()
		}
	}()

	evt, err := op(ctx)
	if err != nil || evt == nil {
		return err
	}

	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	e.mu.Unlock()
	locked = false

	e.events.Emit(evt)

	return nil
}

func (e *Engine) read(ctx context.Context, fn func()) error {
	if err := e.acquire(ctx); err != nil {
		return err
	}
	defer e.mu.Unlock()
	fn()

	return nil
}

func (e *Engine) ListingCount(ctx context.Context) (count uint64, err error) {
	err = e.read(ctx, func() {
		count = e.listings.count()
	})

	return
}

func (e *Engine) Listing(ctx context.Context, id uint64) (listing entity.Listing, err error) {
	if rerr := e.read(ctx, func() {
		listing, err = e.listings.get(id)
	}); rerr != nil {
		return entity.Listing{}, rerr
	}

	return
}

func (e *Engine) Listings(ctx context.Context, offset, limit uint64) (listings []entity.Listing, err error) {
	err = e.read(ctx, func() {
		listings = e.listings.page(offset, limit)
	})

	return
}

func (e *Engine) Config(ctx context.Context) (cfg entity.MarketplaceConfig, err error) {
	err = e.read(ctx, func() {
		cfg = e.cfg
	})

	return
}

func (e *Engine) ReferralCount(ctx context.Context, referrer string) (count uint64, err error) {
	err = e.read(ctx, func() {
		count = e.referrals.count(referrer)
	})

	return
}

func (e *Engine) Balance(ctx context.Context) (uint64, error) {
	if e.reentrant(ctx) {
		return 0, ErrReentrantCall
	}

	return e.ledger.Balance(ctx)
}
