// Package daemon runs the marketplace service: the HTTP API and the event
// listeners that feed the index, the queue, webhooks and metrics.
package daemon

import (
	"context"
	"errors"
	"github.com/ZilDuck/zilliqa-marketplace/internal/api"
	"github.com/ZilDuck/zilliqa-marketplace/internal/elastic_search"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/event"
	"github.com/ZilDuck/zilliqa-marketplace/internal/indexer"
	"github.com/ZilDuck/zilliqa-marketplace/internal/messenger"
	"github.com/ZilDuck/zilliqa-marketplace/internal/metrics"
	"github.com/ZilDuck/zilliqa-marketplace/internal/webhook"
	"go.uber.org/zap"
	"net/http"
	"time"
)

const (
	persistInterval = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

type Daemon struct {
	port            string
	eventsSupported bool

	events  *event.Manager
	server  api.Server
	metrics *metrics.Collector
	elastic elastic_search.Index
	indexer indexer.MarketplaceIndexer
	queue   messenger.MessageService
	webhook webhook.Service
}

type Option func(d *Daemon)

func WithMetrics(collector *metrics.Collector) Option {
	return func(d *Daemon) {
		d.metrics = collector
	}
}

func WithIndex(elastic elastic_search.Index, marketplaceIndexer indexer.MarketplaceIndexer) Option {
	return func(d *Daemon) {
		d.elastic = elastic
		d.indexer = marketplaceIndexer
	}
}

func WithQueue(queue messenger.MessageService) Option {
	return func(d *Daemon) {
		d.queue = queue
	}
}

func WithWebhooks(service webhook.Service) Option {
	return func(d *Daemon) {
		d.webhook = service
	}
}

func NewDaemon(port string, eventsSupported bool, events *event.Manager, server api.Server, opts ...Option) *Daemon {
	d := &Daemon{port: port, eventsSupported: eventsSupported, events: events, server: server}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// RegisterListeners subscribes every configured consumer to marketplace
// events. Committed events are only logged when events are disabled.
func (d *Daemon) RegisterListeners() {
	d.events.AddEventListener(event.AllEvents, logEvent)

	if !d.eventsSupported {
		zap.L().Warn("Daemon: Events disabled")
		return
	}

	if d.metrics != nil {
		d.events.AddEventListener(event.AllEvents, d.metrics.RecordEvent)
	}
	if d.indexer != nil {
		d.events.AddEventListener(event.AllEvents, d.indexer.TriggerIndex)
	}
	if d.queue != nil {
		d.events.AddEventListener(event.AllEvents, d.queue.PublishEvent)
	}
	if d.webhook != nil {
		d.events.AddEventListener(event.AllEvents, d.webhook.NotifyFromEvent)
	}
}

// Execute serves the API until ctx is cancelled, then drains the listeners
// and flushes pending index requests.
func (d *Daemon) Execute(ctx context.Context) error {
	if d.elastic != nil {
		if err := d.elastic.InstallMappings(ctx); err != nil {
			return err
		}
	}

	d.RegisterListeners()

	httpServer := &http.Server{Addr: ":" + d.port, Handler: d.server.Router()}
	serveErr := make(chan error, 1)
	go func() {
		zap.L().With(zap.String("port", d.port)).Info("Marketplace Started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	ticker := time.NewTicker(persistInterval)
	defer ticker.Stop()

	var err error
	for running := true; running; {
		select {
		case <-ctx.Done():
			running = false
		case err = <-serveErr:
			if err != nil {
				zap.L().With(zap.Error(err)).Error("Daemon: Failed to serve api")
			}
			running = false
		case <-ticker.C:
			d.persist()
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		zap.L().With(zap.Error(shutdownErr)).Error("Daemon: Failed to shut down api")
	}

	d.events.Close()
	d.persist()
	zap.L().Info("Marketplace Stopped")

	return err
}

func (d *Daemon) persist() {
	if d.elastic == nil {
		return
	}

	if actions := d.elastic.Persist(); actions != 0 {
		zap.L().With(zap.Int("actions", actions)).Debug("Daemon: Persisted index requests")
	}
}

func logEvent(e entity.Event) {
	zap.L().With(
		zap.String("type", string(e.Type())),
		zap.Uint64("listingId", e.ListingId()),
	).Info("Marketplace: Event committed")
}
