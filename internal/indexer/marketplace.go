package indexer

import (
	"errors"
	"github.com/ZilDuck/zilliqa-marketplace/internal/elastic_search"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"go.uber.org/zap"
)

var ErrUnknownEvent = errors.New("unknown event")

type MarketplaceIndexer interface {
	IndexEvent(e entity.Event) error
	TriggerIndex(e entity.Event)
}

type marketplaceIndexer struct {
	elastic elastic_search.Index
}

func NewMarketplaceIndexer(elastic elastic_search.Index) MarketplaceIndexer {
	return marketplaceIndexer{elastic}
}

// TriggerIndex is the event listener form of IndexEvent.
func (i marketplaceIndexer) TriggerIndex(e entity.Event) {
	if err := i.IndexEvent(e); err != nil {
		zap.L().With(zap.Error(err), zap.String("type", string(e.Type()))).Error("MarketplaceIndexer: Failed to index event")
		return
	}
	i.elastic.BatchPersist()
}

func (i marketplaceIndexer) IndexEvent(e entity.Event) error {
	switch evt := e.(type) {
	case entity.ProductAdded:
		i.indexListing(evt)
	case entity.ProductSold:
		i.indexSale(evt)
	case entity.ProductRented:
		i.indexRental(evt)
	default:
		return ErrUnknownEvent
	}

	i.elastic.AddIndexRequest(elastic_search.EventIndex.Get(), e, elastic_search.EventCreate)

	return nil
}

func (i marketplaceIndexer) indexListing(evt entity.ProductAdded) {
	zap.L().With(zap.Uint64("listingId", evt.Id), zap.String("owner", evt.Owner)).Debug("MarketplaceIndexer: Listing added")

	listing := entity.Listing{
		Id:             evt.Id,
		Owner:          evt.Owner,
		Name:           evt.Name,
		Price:          evt.Price,
		ForSale:        evt.ForSale,
		ForRent:        evt.ForRent,
		ExpirationTime: evt.ExpirationTime,
	}
	i.elastic.AddIndexRequest(elastic_search.ListingIndex.Get(), listing, elastic_search.ListingCreate)
	i.elastic.AddIndexRequest(elastic_search.TokenActionIndex.Get(), createMintAction(evt), elastic_search.TokenMint)
}

func (i marketplaceIndexer) indexSale(evt entity.ProductSold) {
	zap.L().With(zap.Uint64("listingId", evt.Id), zap.String("buyer", evt.Buyer)).Debug("MarketplaceIndexer: Listing sold")

	forSale := false
	patch := entity.ListingPatch{Id: evt.Id, Owner: &evt.Buyer, ForSale: &forSale}
	i.elastic.AddUpdateRequest(elastic_search.ListingIndex.Get(), patch, elastic_search.ListingSold)
	i.elastic.AddIndexRequest(elastic_search.TokenActionIndex.Get(), createTransferAction(evt), elastic_search.TokenTransfer)
}

func (i marketplaceIndexer) indexRental(evt entity.ProductRented) {
	zap.L().With(zap.Uint64("listingId", evt.Id), zap.String("renter", evt.Renter)).Debug("MarketplaceIndexer: Listing rented")

	forRent := false
	patch := entity.ListingPatch{Id: evt.Id, Renter: &evt.Renter, ForRent: &forRent}
	if !evt.ExpirationTime.IsZero() {
		patch.ExpirationTime = &evt.ExpirationTime
	}
	i.elastic.AddUpdateRequest(elastic_search.ListingIndex.Get(), patch, elastic_search.ListingRented)
}

func createMintAction(evt entity.ProductAdded) entity.TokenAction {
	return entity.TokenAction{
		TokenId: evt.Id,
		Action:  entity.MintAction,
		To:      evt.Owner,
		Time:    evt.Time,
	}
}

func createTransferAction(evt entity.ProductSold) entity.TokenAction {
	return entity.TokenAction{
		TokenId: evt.Id,
		Action:  entity.TransferAction,
		From:    evt.Seller,
		To:      evt.Buyer,
		Time:    evt.Time,
	}
}
