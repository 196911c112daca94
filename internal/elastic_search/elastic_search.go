package elastic_search

import (
	"context"
	"embed"
	"fmt"
	"github.com/ZilDuck/zilliqa-marketplace/internal/config"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/aws/aws-sdk-go/aws/credentials"
	v4 "github.com/aws/aws-sdk-go/aws/signer/v4"
	"github.com/olivere/elastic/v7"
	"github.com/patrickmn/go-cache"
	"github.com/sha1sum/aws_signing_client"
	"go.uber.org/zap"
	"sync"
	"time"
)

//go:embed mappings/*.json
var mappings embed.FS

type Index interface {
	GetClient() *elastic.Client

	InstallMappings(ctx context.Context) error

	AddIndexRequest(index string, entity entity.Entity, reqAction RequestAction)
	AddUpdateRequest(index string, entity entity.Entity, reqAction RequestAction)
	GetRequests() []Request

	BatchPersist() bool
	Persist() int
}

type index struct {
	mu        sync.Mutex
	client    *elastic.Client
	cache     *cache.Cache
	refresh   string
	batchSize int
}

type Request struct {
	Index  string
	Entity entity.Entity
	Type   RequestType
	Action RequestAction
}

type RequestType string

const (
	IndexRequest  RequestType = "index"
	UpdateRequest RequestType = "update"
)

type RequestAction string

const (
	ListingCreate RequestAction = "ListingCreate"
	ListingSold   RequestAction = "ListingSold"
	ListingRented RequestAction = "ListingRented"

	EventCreate RequestAction = "EventCreate"

	TokenMint     RequestAction = "TokenMint"
	TokenTransfer RequestAction = "TokenTransfer"
)

const persistAttempts int = 3

func New(cfg config.ElasticSearchConfig, awsCfg config.AwsConfig) (Index, error) {
	client, err := newClient(cfg, awsCfg)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("ElasticCache: Failed to create client")
		return nil, err
	}

	return newIndex(client, cfg), nil
}

func newIndex(client *elastic.Client, cfg config.ElasticSearchConfig) *index {
	batchSize := cfg.BulkPersistCount
	if batchSize <= 0 {
		batchSize = 300
	}

	return &index{
		client:    client,
		cache:     cache.New(cache.NoExpiration, 10*time.Minute),
		refresh:   cfg.Refresh,
		batchSize: batchSize,
	}
}

func newClient(cfg config.ElasticSearchConfig, awsCfg config.AwsConfig) (*elastic.Client, error) {
	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(cfg.Hosts...),
		elastic.SetSniff(cfg.Sniff),
		elastic.SetHealthcheck(cfg.HealthCheck),
	}

	if cfg.Debug {
		opts = append(opts, elastic.SetTraceLog(ElasticLogger{}))
	}

	if cfg.Aws {
		creds := credentials.NewStaticCredentials(awsCfg.AccessKey, awsCfg.SecretKey, awsCfg.Token)
		awsClient, err := aws_signing_client.New(v4.NewSigner(creds), nil, "es", awsCfg.Region)
		if err != nil {
			return nil, err
		}

		opts = append(opts, elastic.SetHttpClient(awsClient), elastic.SetScheme("https"))
		return elastic.NewClient(opts...)
	}

	if cfg.Username != "" {
		opts = append(opts, elastic.SetBasicAuth(cfg.Username, cfg.Password))
	}

	return elastic.NewClient(opts...)
}

func (i *index) GetClient() *elastic.Client {
	return i.client
}

func (i *index) InstallMappings(ctx context.Context) error {
	zap.L().Info("ElasticCache: Install Mappings")

	for _, idx := range AllIndices {
		b, err := mappings.ReadFile(fmt.Sprintf("mappings/%s.json", string(idx)))
		if err != nil {
			zap.L().With(zap.Error(err), zap.String("index", string(idx))).Error("ElasticCache: Elastic mappings file error")
			return err
		}

		if err = i.createIndex(ctx, idx.Get(), b); err != nil {
			zap.S().With(zap.Error(err)).Errorf("ElasticCache: Failed to create index %s", idx.Get())
			return err
		}
	}

	return nil
}

func (i *index) createIndex(ctx context.Context, index string, mapping []byte) error {
	exists, err := i.client.IndexExists(index).Do(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	createIndex, err := i.client.CreateIndex(index).BodyString(string(mapping)).Do(ctx)
	if err != nil {
		return err
	}

	if createIndex.Acknowledged {
		zap.S().Infof("ElasticCache: Created index %s", index)
	}

	return nil
}

func (i *index) AddIndexRequest(index string, entity entity.Entity, reqAction RequestAction) {
	zap.L().With(
		zap.String("index", index),
		zap.String("slug", entity.Slug()),
		zap.String("action", string(reqAction)),
	).Debug("ElasticCache: AddIndexRequest")

	i.mu.Lock()
	defer i.mu.Unlock()

	i.addRequest(index, entity, IndexRequest, reqAction)
}

// AddUpdateRequest folds the update into a request already queued for the
// same document, so a document created and updated in one batch is indexed
// once with its final state.
func (i *index) AddUpdateRequest(index string, entity entity.Entity, reqAction RequestAction) {
	zap.L().With(
		zap.String("index", index),
		zap.String("slug", entity.Slug()),
		zap.String("action", string(reqAction)),
	).Debug("ElasticCache: AddUpdateRequest")

	i.mu.Lock()
	defer i.mu.Unlock()

	if cached := i.request(entity.Slug()); cached != nil {
		merged, err := mergeRequests(*cached, entity)
		if err != nil {
			zap.L().With(zap.Error(err), zap.String("slug", entity.Slug())).Error("ElasticCache: Failed to merge request")
		} else {
			i.addRequest(index, merged, cached.Type, reqAction)
			return
		}
	}

	i.addRequest(index, entity, UpdateRequest, reqAction)
}

func (i *index) addRequest(index string, entity entity.Entity, reqType RequestType, reqAction RequestAction) {
	i.cache.Set(entity.Slug(), Request{index, entity, reqType, reqAction}, cache.NoExpiration)
}

func (i *index) GetRequests() []Request {
	requests := make([]Request, 0)

	for _, item := range i.cache.Items() {
		requests = append(requests, item.Object.(Request))
	}

	return requests
}

func (i *index) request(slug string) *Request {
	if item, found := i.cache.Get(slug); found {
		req := item.(Request)
		return &req
	}

	return nil
}

// BatchPersist persists only once a full batch is queued.
func (i *index) BatchPersist() bool {
	if i.cache.ItemCount() < i.batchSize {
		return false
	}

	start := time.Now()
	actions := i.Persist()

	zap.L().With(
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("actions", actions),
	).Info("ElasticCache: Persisting data")

	return true
}

// Persist writes every queued request and returns how many were persisted.
func (i *index) Persist() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	persisted := 0
	bulk := i.client.Bulk()
	slugs := make([]string, 0)
	for _, r := range i.GetRequests() {
		if r.Type == IndexRequest {
			bulk.Add(elastic.NewBulkIndexRequest().Index(r.Index).Id(r.Entity.Slug()).Doc(r.Entity))
		} else if r.Type == UpdateRequest {
			bulk.Add(elastic.NewBulkUpdateRequest().Index(r.Index).Id(r.Entity.Slug()).Doc(r.Entity))
		}
		slugs = append(slugs, r.Entity.Slug())

		if bulk.NumberOfActions() >= i.batchSize {
			persisted += i.persist(bulk, slugs, 1)
			bulk = i.client.Bulk()
			slugs = make([]string, 0)
		}
	}

	if bulk.NumberOfActions() != 0 {
		persisted += i.persist(bulk, slugs, 1)
	}

	return persisted
}

// persist sends one bulk request. Requests that fail stay queued for the next
// Persist call.
func (i *index) persist(bulk *elastic.BulkService, slugs []string, attempt int) int {
	actions := bulk.NumberOfActions()
	zap.S().Debugf("ElasticCache: Persisting %d actions", actions)

	response, err := bulk.Refresh(i.refresh).Do(context.Background())
	if err != nil {
		if attempt < persistAttempts {
			zap.L().With(zap.Error(err), zap.Int("attempt", attempt)).Warn("ElasticCache: Failed to persist requests. Retrying...")
			time.Sleep(time.Duration(attempt) * time.Second)
			return i.persist(bulk, slugs, attempt+1)
		}
		zap.L().With(zap.Error(err)).Error("ElasticCache: Failed to persist requests")
		return 0
	}

	failed := make(map[string]bool)
	for _, item := range response.Failed() {
		zap.L().With(
			zap.Any("error", item.Error),
			zap.String("index", item.Index),
			zap.String("id", item.Id),
		).Error("ElasticCache: Failed to persist request")
		failed[item.Id] = true
	}

	for _, slug := range slugs {
		if !failed[slug] {
			i.cache.Delete(slug)
		}
	}

	return len(slugs) - len(failed)
}
