// Package registry keeps the ownership tokens that back marketplace listings.
package registry

import (
	"context"
	"errors"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"go.uber.org/zap"
	"sync"
	"time"
)

var (
	ErrTokenExists   = errors.New("token already minted")
	ErrTokenNotFound = errors.New("token not found")
	ErrNotTokenOwner = errors.New("sender does not own token")
)

type Registry interface {
	Mint(ctx context.Context, owner string, tokenId uint64) error
	Transfer(ctx context.Context, from, to string, tokenId uint64) error
	OwnerOf(tokenId uint64) (string, error)
	History(tokenId uint64) []entity.TokenAction
	Count() int
}

type registry struct {
	mu      sync.RWMutex
	owners  map[uint64]string
	actions map[uint64][]entity.TokenAction
	now     func() time.Time
}

func NewRegistry() Registry {
	return &registry{
		owners:  make(map[uint64]string),
		actions: make(map[uint64][]entity.TokenAction),
		now:     time.Now,
	}
}

func (r *registry) Mint(ctx context.Context, owner string, tokenId uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.owners[tokenId]; exists {
		zap.L().With(zap.Uint64("tokenId", tokenId)).Error("Registry: Token already minted")
		return ErrTokenExists
	}

	r.owners[tokenId] = owner
	r.actions[tokenId] = append(r.actions[tokenId], createMintAction(tokenId, owner, r.now()))

	zap.L().With(zap.Uint64("tokenId", tokenId), zap.String("owner", owner)).Debug("Registry: Minted token")

	return nil
}

func (r *registry) Transfer(ctx context.Context, from, to string, tokenId uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	owner, exists := r.owners[tokenId]
	if !exists {
		return ErrTokenNotFound
	}
	if owner != from {
		zap.L().With(zap.Uint64("tokenId", tokenId), zap.String("owner", owner), zap.String("from", from)).
			Error("Registry: Transfer from non owner")
		return ErrNotTokenOwner
	}

	r.owners[tokenId] = to
	r.actions[tokenId] = append(r.actions[tokenId], createTransferAction(tokenId, from, to, r.now()))

	zap.L().With(zap.Uint64("tokenId", tokenId), zap.String("from", from), zap.String("to", to)).
		Debug("Registry: Transferred token")

	return nil
}

func (r *registry) OwnerOf(tokenId uint64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owner, exists := r.owners[tokenId]
	if !exists {
		return "", ErrTokenNotFound
	}

	return owner, nil
}

func (r *registry) History(tokenId uint64) []entity.TokenAction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := make([]entity.TokenAction, len(r.actions[tokenId]))
	copy(history, r.actions[tokenId])

	return history
}

func (r *registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.owners)
}
