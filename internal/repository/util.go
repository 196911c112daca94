package repository

import (
	"context"
	"encoding/json"
	"github.com/olivere/elastic/v7"
	"go.uber.org/zap"
	"net/http"
	"time"
)

const maxPageSize = 1000

var tooManyRequestsDelay = 5 * time.Second

func search(searchService *elastic.SearchService) (*elastic.SearchResult, error) {
	result, err := searchService.Do(context.Background())
	if elastic.IsStatusCode(err, http.StatusTooManyRequests) {
		zap.L().Warn("Elastic: 429 (Too Many Requests)")
		time.Sleep(tooManyRequestsDelay)
		return search(searchService)
	}

	return result, err
}

func pageSize(size int) int {
	if size <= 0 || size > maxPageSize {
		return maxPageSize
	}

	return size
}

func decodeHits[T any](results *elastic.SearchResult, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(results.Hits.Hits))
	for _, hit := range results.Hits.Hits {
		var item T
		if err := json.Unmarshal(hit.Source, &item); err != nil {
			zap.L().With(zap.Error(err), zap.String("id", hit.Id)).Error("Repository: Failed to unmarshal hit")
			return nil, err
		}
		items = append(items, item)
	}

	return items, nil
}
