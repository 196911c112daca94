package elastic_search

import (
	"errors"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
)

var ErrUnmergeable = errors.New("request cannot be merged")

func mergeRequests(cached Request, e entity.Entity) (entity.Entity, error) {
	patch, ok := e.(entity.ListingPatch)
	if !ok {
		return nil, ErrUnmergeable
	}

	switch c := cached.Entity.(type) {
	case entity.Listing:
		return patch.Apply(c), nil
	case entity.ListingPatch:
		return c.Merge(patch), nil
	}

	return nil, ErrUnmergeable
}
