package repository

import (
	"encoding/json"
	"github.com/ZilDuck/zilliqa-marketplace/internal/elastic_search"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/olivere/elastic/v7"
	"go.uber.org/zap"
)

type EventRepository interface {
	GetEventsForListing(id uint64, from, size int) ([]entity.Event, error)
}

type eventRepository struct {
	elastic elastic_search.Index
}

func NewEventRepository(elastic elastic_search.Index) EventRepository {
	return eventRepository{elastic}
}

// GetEventsForListing returns the events of a listing, oldest first.
func (r eventRepository) GetEventsForListing(id uint64, from, size int) ([]entity.Event, error) {
	query := elastic.NewTermQuery("id", id)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.EventIndex.Get()).
		Query(query).
		Sort("time", true).
		From(from).
		Size(pageSize(size)))
	if err != nil {
		return nil, err
	}

	events := make([]entity.Event, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		var header entity.EventHeader
		if err := json.Unmarshal(hit.Source, &header); err != nil {
			return nil, err
		}

		e, err := entity.EventEnvelope{Type: header.Kind, Payload: hit.Source}.Event()
		if err != nil {
			zap.L().With(zap.Error(err), zap.String("id", hit.Id)).Warn("EventRepository: Skipping unreadable event")
			continue
		}
		events = append(events, e)
	}

	return events, nil
}
