package marketplace

import (
	"context"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/ledger"
	"go.uber.org/zap"
	"time"
)

func (e *Engine) SetReferralBonus(ctx context.Context, caller string, bonus uint64) error {
	return e.configure(ctx, caller, "referralBonus", func(cfg *entity.MarketplaceConfig) {
		cfg.ReferralBonus = bonus
	})
}

func (e *Engine) SetMinSalePrice(ctx context.Context, caller string, price uint64) error {
	return e.configure(ctx, caller, "minSalePrice", func(cfg *entity.MarketplaceConfig) {
		cfg.MinSalePrice = price
	})
}

func (e *Engine) SetMinRentPrice(ctx context.Context, caller string, price uint64) error {
	return e.configure(ctx, caller, "minRentPrice", func(cfg *entity.MarketplaceConfig) {
		cfg.MinRentPrice = price
	})
}

// SetFeePercentage accepts any value. A percentage above 100 makes every
// sale and rental fail with ErrFeeExceedsPrice until it is lowered.
func (e *Engine) SetFeePercentage(ctx context.Context, caller string, percentage uint64) error {
	return e.configure(ctx, caller, "feePercentage", func(cfg *entity.MarketplaceConfig) {
		cfg.FeePercentage = percentage
	})
}

func (e *Engine) SetDefaultExpirationDuration(ctx context.Context, caller string, duration time.Duration) error {
	return e.configure(ctx, caller, "defaultExpirationDuration", func(cfg *entity.MarketplaceConfig) {
		cfg.DefaultExpirationDuration = duration
	})
}

// WithdrawFunds pays amount out of custody to the admin.
func (e *Engine) WithdrawFunds(ctx context.Context, caller string, amount uint64) error {
	return e.run(ctx, func(ctx context.Context) (entity.Event, error) {
		if err := e.requireAdmin(caller, "withdrawFunds"); err != nil {
			return nil, err
		}

		var balance uint64
		err := e.collaborate(func() (err error) {
			balance, err = e.ledger.Balance(ctx)
			return
		})
		if err != nil {
			zap.L().With(zap.Error(err)).Error("Marketplace: Failed to read balance")
			return nil, err
		}
		if amount > balance {
			zap.L().With(zap.Uint64("amount", amount), zap.Uint64("balance", balance)).Warn("Marketplace: Insufficient balance")
			return nil, ErrInsufficientBalance
		}

		payouts := []ledger.Payout{{To: e.cfg.Admin, Amount: amount}}
		if err := e.settle(ctx, "", 0, payouts); err != nil {
			zap.L().With(zap.Uint64("amount", amount), zap.Error(err)).Error("Marketplace: Failed to withdraw funds")
			return nil, err
		}

		zap.L().With(zap.Uint64("amount", amount), zap.String("admin", e.cfg.Admin)).Info("Marketplace: Funds withdrawn")

		return nil, nil
	})
}

func (e *Engine) configure(ctx context.Context, caller, setting string, apply func(cfg *entity.MarketplaceConfig)) error {
	return e.run(ctx, func(ctx context.Context) (entity.Event, error) {
		if err := e.requireAdmin(caller, setting); err != nil {
			return nil, err
		}

		apply(&e.cfg)
		zap.L().With(zap.String("setting", setting), zap.Any("config", e.cfg)).Info("Marketplace: Config updated")

		return nil, nil
	})
}

func (e *Engine) requireAdmin(caller, operation string) error {
	if caller != e.cfg.Admin {
		zap.L().With(zap.String("caller", caller), zap.String("operation", operation)).Warn("Marketplace: Unauthorized")
		return ErrUnauthorized
	}

	return nil
}
