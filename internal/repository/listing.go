package repository

import (
	"errors"
	"github.com/ZilDuck/zilliqa-marketplace/internal/elastic_search"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/olivere/elastic/v7"
)

var (
	ErrListingNotFound = errors.New("listing not found")
)

type ListingRepository interface {
	GetListing(id uint64) (entity.Listing, error)
	GetListingsByOwner(owner string, from, size int) ([]entity.Listing, int64, error)
}

type listingRepository struct {
	elastic elastic_search.Index
}

func NewListingRepository(elastic elastic_search.Index) ListingRepository {
	return listingRepository{elastic}
}

func (r listingRepository) GetListing(id uint64) (entity.Listing, error) {
	query := elastic.NewTermQuery("id", id)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ListingIndex.Get()).
		Query(query).
		Size(1))

	listings, err := decodeHits[entity.Listing](result, err)
	if err != nil {
		return entity.Listing{}, err
	}
	if len(listings) == 0 {
		return entity.Listing{}, ErrListingNotFound
	}

	return listings[0], nil
}

func (r listingRepository) GetListingsByOwner(owner string, from, size int) ([]entity.Listing, int64, error) {
	query := elastic.NewTermQuery("owner", owner)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ListingIndex.Get()).
		Query(query).
		Sort("id", true).
		From(from).
		Size(pageSize(size)).
		TrackTotalHits(true))

	listings, err := decodeHits[entity.Listing](result, err)
	if err != nil {
		return nil, 0, err
	}

	return listings, result.TotalHits(), nil
}
