package repository

import (
	"github.com/ZilDuck/zilliqa-marketplace/internal/elastic_search"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/olivere/elastic/v7"
)

type TokenActionRepository interface {
	GetTokenHistory(tokenId uint64) ([]entity.TokenAction, error)
}

type tokenActionRepository struct {
	elastic elastic_search.Index
}

func NewTokenActionRepository(elastic elastic_search.Index) TokenActionRepository {
	return tokenActionRepository{elastic}
}

func (r tokenActionRepository) GetTokenHistory(tokenId uint64) ([]entity.TokenAction, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("tokenId", tokenId),
		elastic.NewTermsQuery("action", string(entity.MintAction), string(entity.TransferAction)),
	)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.TokenActionIndex.Get()).
		Query(query).
		Sort("time", true).
		Size(maxPageSize))

	return decodeHits[entity.TokenAction](result, err)
}
