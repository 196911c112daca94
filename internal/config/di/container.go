package di

import (
	"github.com/ZilDuck/zilliqa-marketplace/internal/api"
	"github.com/ZilDuck/zilliqa-marketplace/internal/client"
	"github.com/ZilDuck/zilliqa-marketplace/internal/daemon"
	"github.com/ZilDuck/zilliqa-marketplace/internal/elastic_search"
	"github.com/ZilDuck/zilliqa-marketplace/internal/event"
	"github.com/ZilDuck/zilliqa-marketplace/internal/indexer"
	"github.com/ZilDuck/zilliqa-marketplace/internal/ledger"
	"github.com/ZilDuck/zilliqa-marketplace/internal/marketplace"
	"github.com/ZilDuck/zilliqa-marketplace/internal/messenger"
	"github.com/ZilDuck/zilliqa-marketplace/internal/metrics"
	"github.com/sarulabs/di/v2"
)

// Container gives typed access to the application definitions. Getters for
// optional services return an error when the service is not configured.
type Container struct {
	ctn di.Container
}

func NewContainer() (*Container, error) {
	builder, err := di.NewBuilder()
	if err != nil {
		return nil, err
	}
	if err := builder.Add(Definitions...); err != nil {
		return nil, err
	}

	return &Container{ctn: builder.Build()}, nil
}

// Delete closes every built service.
func (c *Container) Delete() error {
	return c.ctn.Delete()
}

func (c *Container) GetEngine() *marketplace.Engine {
	return c.ctn.Get("engine").(*marketplace.Engine)
}

func (c *Container) GetEventManager() *event.Manager {
	return c.ctn.Get("events").(*event.Manager)
}

func (c *Container) GetLedger() ledger.Ledger {
	return c.ctn.Get("ledger").(ledger.Ledger)
}

func (c *Container) GetMetrics() *metrics.Collector {
	return c.ctn.Get("metrics").(*metrics.Collector)
}

func (c *Container) GetApi() api.Server {
	return c.ctn.Get("api").(api.Server)
}

func (c *Container) GetClient() client.Client {
	return c.ctn.Get("client").(client.Client)
}

func (c *Container) GetDaemon() *daemon.Daemon {
	return c.ctn.Get("daemon").(*daemon.Daemon)
}

func (c *Container) GetElastic() (elastic_search.Index, error) {
	obj, err := c.ctn.SafeGet("elastic")
	if err != nil {
		return nil, err
	}

	return obj.(elastic_search.Index), nil
}

func (c *Container) GetMarketplaceIndexer() (indexer.MarketplaceIndexer, error) {
	obj, err := c.ctn.SafeGet("indexer")
	if err != nil {
		return nil, err
	}

	return obj.(indexer.MarketplaceIndexer), nil
}

func (c *Container) GetMessenger() (messenger.MessageService, error) {
	obj, err := c.ctn.SafeGet("messenger")
	if err != nil {
		return nil, err
	}

	return obj.(messenger.MessageService), nil
}
