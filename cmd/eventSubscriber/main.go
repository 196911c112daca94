package main

import (
	"context"
	"github.com/ZilDuck/zilliqa-marketplace/internal/config"
	"github.com/ZilDuck/zilliqa-marketplace/internal/config/di"
	"github.com/ZilDuck/zilliqa-marketplace/internal/elastic_search"
	"github.com/ZilDuck/zilliqa-marketplace/internal/indexer"
	"github.com/ZilDuck/zilliqa-marketplace/internal/messenger"
	"github.com/aws/aws-sdk-go/service/sqs"
	"go.uber.org/zap"
	"os"
	"os/signal"
	"syscall"
)

var (
	messageService     messenger.MessageService
	marketplaceIndexer indexer.MarketplaceIndexer
	elastic            elastic_search.Index
)

func main() {
	config.Init("eventSubscriber")

	container, err := di.NewContainer()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}

	if messageService, err = container.GetMessenger(); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Queue not available")
	}
	if elastic, err = container.GetElastic(); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Index not available")
	}
	if marketplaceIndexer, err = container.GetMarketplaceIndexer(); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Indexer not available")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := elastic.InstallMappings(ctx); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to install mappings")
	}

	pollEvents(ctx)
}

// pollEvents indexes every queued event. A message is deleted only once its
// event has been persisted, so a crash replays it.
func pollEvents(ctx context.Context) {
	zap.L().Info("Subscribing to marketplace events")
	messages := make(chan *sqs.Message, 10)
	go messageService.PollMessages(ctx, messages)

	for message := range messages {
		e, err := messenger.ReadEvent(message)
		if err != nil {
			zap.L().With(zap.Error(err)).Error("Failed to read message")
			deleteMessage(message)
			continue
		}

		if err := marketplaceIndexer.IndexEvent(e); err != nil {
			zap.L().With(zap.Error(err), zap.String("type", string(e.Type()))).Error("Failed to index event")
			continue
		}
		elastic.Persist()

		if len(elastic.GetRequests()) != 0 {
			zap.L().With(zap.Uint64("listingId", e.ListingId())).Warn("Event left unpersisted requests, message kept")
			continue
		}
		zap.L().With(zap.String("type", string(e.Type())), zap.Uint64("listingId", e.ListingId())).Info("Event indexed")

		deleteMessage(message)
	}
}

func deleteMessage(message *sqs.Message) {
	if err := messageService.DeleteMessage(message); err != nil {
		zap.L().With(zap.Error(err)).Error("Failed to delete message")
	}
}
