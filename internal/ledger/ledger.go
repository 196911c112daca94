// Package ledger moves native value between identities. The marketplace keeps
// collected payments in a single custody account.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"go.uber.org/zap"
	"math"
	"sync"
)

var (
	ErrInsufficientFunds   = errors.New("payer has insufficient funds")
	ErrInsufficientBalance = errors.New("custody balance too low")
	ErrRecipientRejected   = errors.New("recipient rejected transfer")
	ErrOverflow            = errors.New("balance overflow")
)

type Payout struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// Settlement collects Amount from From into custody, then pays every Payout
// out of custody. A settlement is applied entirely or not at all.
type Settlement struct {
	From    string   `json:"from"`
	Amount  uint64   `json:"amount"`
	Payouts []Payout `json:"payouts"`
}

type Ledger interface {
	Settle(ctx context.Context, s Settlement) error
	Balance(ctx context.Context) (uint64, error)

	Deposit(account string, amount uint64) error
	BalanceOf(account string) uint64
	Reject(account string)
	Custody() string
}

type ledger struct {
	mu       sync.Mutex
	custody  string
	balances map[string]uint64
	rejected map[string]bool
}

func NewLedger(custody string) Ledger {
	return &ledger{
		custody:  custody,
		balances: make(map[string]uint64),
		rejected: make(map[string]bool),
	}
}

func (l *ledger) Custody() string {
	return l.custody
}

func (l *ledger) Settle(ctx context.Context, s Settlement) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	staged := make(map[string]uint64)
	balance := func(account string) uint64 {
		if v, ok := staged[account]; ok {
			return v
		}
		return l.balances[account]
	}

	if s.Amount > 0 {
		if balance(s.From) < s.Amount {
			zap.L().With(zap.String("from", s.From), zap.Uint64("amount", s.Amount)).Warn("Ledger: Insufficient funds")
			return ErrInsufficientFunds
		}
		staged[s.From] = balance(s.From) - s.Amount
		custody := balance(l.custody)
		if custody > math.MaxUint64-s.Amount {
			return ErrOverflow
		}
		staged[l.custody] = custody + s.Amount
	}

	for _, p := range s.Payouts {
		if l.rejected[p.To] {
			zap.L().With(zap.String("to", p.To)).Warn("Ledger: Recipient rejected transfer")
			return fmt.Errorf("%w: %s", ErrRecipientRejected, p.To)
		}
		if balance(l.custody) < p.Amount {
			zap.L().With(zap.String("to", p.To), zap.Uint64("amount", p.Amount), zap.Uint64("custody", balance(l.custody))).
				Warn("Ledger: Custody balance too low")
			return ErrInsufficientBalance
		}
		staged[l.custody] = balance(l.custody) - p.Amount
		recipient := balance(p.To)
		if recipient > math.MaxUint64-p.Amount {
			return ErrOverflow
		}
		staged[p.To] = recipient + p.Amount
	}

	for account, v := range staged {
		l.balances[account] = v
	}

	zap.L().With(zap.String("from", s.From), zap.Uint64("amount", s.Amount), zap.Int("payouts", len(s.Payouts))).
		Debug("Ledger: Settled")

	return nil
}

func (l *ledger) Balance(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	return l.BalanceOf(l.custody), nil
}

func (l *ledger) Deposit(account string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[account] > math.MaxUint64-amount {
		return ErrOverflow
	}
	l.balances[account] += amount

	return nil
}

func (l *ledger) BalanceOf(account string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.balances[account]
}

// Reject makes every future payout to account fail.
func (l *ledger) Reject(account string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rejected[account] = true
}
