package di

import (
	"errors"
	"github.com/ZilDuck/zilliqa-marketplace/internal/api"
	"github.com/ZilDuck/zilliqa-marketplace/internal/client"
	"github.com/ZilDuck/zilliqa-marketplace/internal/config"
	"github.com/ZilDuck/zilliqa-marketplace/internal/daemon"
	"github.com/ZilDuck/zilliqa-marketplace/internal/elastic_search"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/event"
	"github.com/ZilDuck/zilliqa-marketplace/internal/indexer"
	"github.com/ZilDuck/zilliqa-marketplace/internal/ledger"
	"github.com/ZilDuck/zilliqa-marketplace/internal/marketplace"
	"github.com/ZilDuck/zilliqa-marketplace/internal/messenger"
	"github.com/ZilDuck/zilliqa-marketplace/internal/metrics"
	"github.com/ZilDuck/zilliqa-marketplace/internal/registry"
	"github.com/ZilDuck/zilliqa-marketplace/internal/repository"
	"github.com/ZilDuck/zilliqa-marketplace/internal/webhook"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sarulabs/di/v2"
	"go.uber.org/zap"
	"time"
)

var (
	ErrIndexDisabled = errors.New("no elastic search hosts configured")
	ErrQueueDisabled = errors.New("no sqs queue configured")
)

var Definitions = []di.Def{
	{
		Name: "config",
		Build: func(ctn di.Container) (interface{}, error) {
			return config.Get(), nil
		},
	},
	{
		Name: "events",
		Build: func(ctn di.Container) (interface{}, error) {
			return event.NewManager(), nil
		},
		Close: func(obj interface{}) error {
			obj.(*event.Manager).Close()
			return nil
		},
	},
	{
		Name: "registry",
		Build: func(ctn di.Container) (interface{}, error) {
			return registry.NewRegistry(), nil
		},
	},
	{
		Name: "ledger",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := ctn.Get("config").(*config.Config)
			return ledger.NewLedger(cfg.Marketplace.CustodyAccount), nil
		},
	},
	{
		Name: "engine",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := ctn.Get("config").(*config.Config).Marketplace
			if cfg.Admin == "" {
				zap.L().Warn("Marketplace: No admin configured, admin operations are disabled")
			}

			return marketplace.NewEngine(
				entity.MarketplaceConfig{
					Admin:                     api.NormalizeIdentity(cfg.Admin),
					ReferralBonus:             cfg.ReferralBonus,
					MinSalePrice:              cfg.MinSalePrice,
					MinRentPrice:              cfg.MinRentPrice,
					FeePercentage:             cfg.FeePercentage,
					DefaultExpirationDuration: cfg.DefaultExpiration,
				},
				ctn.Get("registry").(registry.Registry),
				ctn.Get("ledger").(ledger.Ledger),
				ctn.Get("events").(*event.Manager),
			), nil
		},
	},
	{
		Name: "metrics",
		Build: func(ctn di.Container) (interface{}, error) {
			return metrics.NewCollector("marketplace"), nil
		},
	},
	{
		Name: "elastic",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := ctn.Get("config").(*config.Config)
			if len(cfg.ElasticSearch.Hosts) == 0 {
				return nil, ErrIndexDisabled
			}

			return elastic_search.New(cfg.ElasticSearch, cfg.Aws)
		},
		Close: func(obj interface{}) error {
			obj.(elastic_search.Index).Persist()
			return nil
		},
	},
	{
		Name: "listing.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			elastic, err := ctn.SafeGet("elastic")
			if err != nil {
				return nil, err
			}
			return repository.NewListingRepository(elastic.(elastic_search.Index)), nil
		},
	},
	{
		Name: "event.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			elastic, err := ctn.SafeGet("elastic")
			if err != nil {
				return nil, err
			}
			return repository.NewEventRepository(elastic.(elastic_search.Index)), nil
		},
	},
	{
		Name: "action.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			elastic, err := ctn.SafeGet("elastic")
			if err != nil {
				return nil, err
			}
			return repository.NewTokenActionRepository(elastic.(elastic_search.Index)), nil
		},
	},
	{
		Name: "indexer",
		Build: func(ctn di.Container) (interface{}, error) {
			elastic, err := ctn.SafeGet("elastic")
			if err != nil {
				return nil, err
			}
			return indexer.NewMarketplaceIndexer(elastic.(elastic_search.Index)), nil
		},
	},
	{
		Name: "sqs",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := ctn.Get("config").(*config.Config)
			if cfg.Sqs.QueueUrl == "" {
				return nil, ErrQueueDisabled
			}

			awsConfig := aws.NewConfig().WithRegion(cfg.Aws.Region)
			if cfg.Aws.AccessKey != "" {
				awsConfig = awsConfig.WithCredentials(credentials.NewStaticCredentials(cfg.Aws.AccessKey, cfg.Aws.SecretKey, cfg.Aws.Token))
			}

			sess, err := session.NewSession(awsConfig)
			if err != nil {
				zap.L().With(zap.Error(err)).Error("[Queue] Failed to create aws session")
				return nil, err
			}

			return sqs.New(sess), nil
		},
	},
	{
		Name: "messenger",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := ctn.Get("config").(*config.Config)
			sqsClient, err := ctn.SafeGet("sqs")
			if err != nil {
				return nil, err
			}

			return messenger.NewMessenger(sqsClient.(*sqs.SQS), cfg.Sqs.QueueUrl, cfg.Sqs.WaitTimeSeconds, cfg.Sqs.MaxMessages), nil
		},
	},
	{
		Name: "retryablehttp",
		Build: func(ctn di.Container) (interface{}, error) {
			httpClient := retryablehttp.NewClient()
			httpClient.Logger = nil
			httpClient.RetryMax = 3
			httpClient.HTTPClient.Timeout = 10 * time.Second

			return httpClient, nil
		},
	},
	{
		Name: "webhook",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := ctn.Get("config").(*config.Config)
			return webhook.NewService(cfg.WebhookUrls, ctn.Get("retryablehttp").(*retryablehttp.Client)), nil
		},
	},
	{
		Name: "api",
		Build: func(ctn di.Container) (interface{}, error) {
			opts := []api.Option{api.WithMetrics(ctn.Get("metrics").(*metrics.Collector))}

			listingRepo, listingErr := ctn.SafeGet("listing.repo")
			eventRepo, eventErr := ctn.SafeGet("event.repo")
			if listingErr == nil && eventErr == nil {
				opts = append(opts, api.WithIndex(listingRepo.(repository.ListingRepository), eventRepo.(repository.EventRepository)))
			}
			if actionRepo, err := ctn.SafeGet("action.repo"); err == nil {
				opts = append(opts, api.WithTokenHistory(actionRepo.(repository.TokenActionRepository)))
			} else {
				opts = append(opts, api.WithTokenHistory(api.TokenHistoryFunc(ctn.Get("registry").(registry.Registry).History)))
			}

			return api.NewServer(
				ctn.Get("engine").(*marketplace.Engine),
				ctn.Get("ledger").(ledger.Ledger),
				opts...,
			), nil
		},
	},
	{
		Name: "client",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := ctn.Get("config").(*config.Config)
			return client.New(cfg.ApiUrl, api.NormalizeIdentity(cfg.Identity), client.NewHttpClient(3, 30*time.Second)), nil
		},
	},
	{
		Name: "daemon",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := ctn.Get("config").(*config.Config)

			opts := []daemon.Option{
				daemon.WithMetrics(ctn.Get("metrics").(*metrics.Collector)),
			}
			if idx, err := ctn.SafeGet("elastic"); err == nil {
				opts = append(opts, daemon.WithIndex(idx.(elastic_search.Index), ctn.Get("indexer").(indexer.MarketplaceIndexer)))
			} else {
				zap.L().With(zap.Error(err)).Info("Daemon: Indexing disabled")
			}
			if m, err := ctn.SafeGet("messenger"); err == nil {
				opts = append(opts, daemon.WithQueue(m.(messenger.MessageService)))
			} else {
				zap.L().With(zap.Error(err)).Info("Daemon: Queue publishing disabled")
			}
			if len(cfg.WebhookUrls) != 0 {
				opts = append(opts, daemon.WithWebhooks(ctn.Get("webhook").(webhook.Service)))
			}

			return daemon.NewDaemon(
				cfg.HttpPort,
				cfg.EventsSupported,
				ctn.Get("events").(*event.Manager),
				ctn.Get("api").(api.Server),
				opts...,
			), nil
		},
	},
}
