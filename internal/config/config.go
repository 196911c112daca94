package config

import (
	"github.com/ZilDuck/zilliqa-marketplace/internal/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"math/big"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env       string
	Debug     bool
	LogPath   string
	SentryDsn string
	HttpPort  string
	ApiUrl    string
	Identity  string

	EventsSupported bool
	WebhookUrls     []string

	Marketplace   MarketplaceConfig
	ElasticSearch ElasticSearchConfig
	Aws           AwsConfig
	Sqs           SqsConfig
}

type MarketplaceConfig struct {
	Admin             string
	CustodyAccount    string
	ReferralBonus     uint64
	MinSalePrice      uint64
	MinRentPrice      uint64
	FeePercentage     uint64
	DefaultExpiration time.Duration
}

type AwsConfig struct {
	AccessKey string
	SecretKey string
	Token     string
	Region    string
}

type SqsConfig struct {
	QueueUrl        string
	WaitTimeSeconds int64
	MaxMessages     int64
}

type ElasticSearchConfig struct {
	Index            string
	Aws              bool
	Hosts            []string
	Sniff            bool
	HealthCheck      bool
	Debug            bool
	Username         string
	Password         string
	BulkPersistCount int
	Refresh          string
}

// Init loads the .env file and an optional CONFIG_FILE, then installs the
// global logger for the named binary.
func Init(name string) {
	if err := godotenv.Load(".env"); err != nil {
		zap.L().With(zap.Error(err)).Debug("Config: No .env file loaded")
	}

	viper.AutomaticEnv()
	if file := getString("CONFIG_FILE", ""); file != "" {
		viper.SetConfigFile(file)
		if err := viper.ReadInConfig(); err != nil {
			zap.L().With(zap.Error(err), zap.String("file", file)).Fatal("Unable to init config")
		}
	}

	initLogger(name)
}

func initLogger(name string) {
	log.NewLogger(strings.Replace(Get().LogPath, "{name}", name, 1), Get().Debug, Get().SentryDsn)
}

func Get() *Config {
	return &Config{
		Env:             getString("ENV", ""),
		Debug:           getBool("DEBUG", false),
		LogPath:         getString("LOG_PATH", "/tmp/{name}.log"),
		SentryDsn:       getString("SENTRY_DSN", ""),
		HttpPort:        getString("HTTP_PORT", "8080"),
		ApiUrl:          getString("API_URL", "http://localhost:8080"),
		Identity:        getString("IDENTITY", ""),
		EventsSupported: getBool("EVENTS_SUPPORTED", true),
		WebhookUrls:     getSlice("WEBHOOK_URLS", make([]string, 0), ","),
		Marketplace: MarketplaceConfig{
			Admin:             getString("MARKETPLACE_ADMIN", ""),
			CustodyAccount:    getString("CUSTODY_ACCOUNT", "marketplace"),
			ReferralBonus:     getUint64("REFERRAL_BONUS", 0),
			MinSalePrice:      getUint64("MIN_SALE_PRICE", 0),
			MinRentPrice:      getUint64("MIN_RENT_PRICE", 0),
			FeePercentage:     getUint64("FEE_PERCENTAGE", 0),
			DefaultExpiration: getDuration("DEFAULT_EXPIRATION", 30*24*time.Hour),
		},
		ElasticSearch: ElasticSearchConfig{
			Index:            getString("ELASTIC_SEARCH_INDEX", "marketplace"),
			Aws:              getBool("ELASTIC_SEARCH_AWS", false),
			Hosts:            getSlice("ELASTIC_SEARCH_HOSTS", make([]string, 0), ","),
			Sniff:            getBool("ELASTIC_SEARCH_SNIFF", true),
			HealthCheck:      getBool("ELASTIC_SEARCH_HEALTH_CHECK", true),
			Debug:            getBool("ELASTIC_SEARCH_DEBUG", false),
			Username:         getString("ELASTIC_SEARCH_USERNAME", ""),
			Password:         getString("ELASTIC_SEARCH_PASSWORD", ""),
			BulkPersistCount: getInt("ELASTIC_SEARCH_BULK_PERSIST_COUNT", 300),
			Refresh:          getString("ELASTIC_SEARCH_REFRESH", "wait_for"),
		},
		Aws: AwsConfig{
			AccessKey: getString("AWS_ACCESS_KEY_ID", ""),
			SecretKey: getString("AWS_SECRET_KEY_ID", ""),
			Token:     getString("AWS_TOKEN", ""),
			Region:    getString("AWS_REGION", ""),
		},
		Sqs: SqsConfig{
			QueueUrl:        getString("SQS_QUEUE_URL", ""),
			WaitTimeSeconds: int64(getInt("SQS_WAIT_TIME_SECONDS", 20)),
			MaxMessages:     int64(getInt("SQS_MAX_MESSAGES", 10)),
		},
	}
}

func getString(key string, defaultValue string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}

	return defaultValue
}

func getInt(key string, defaultValue int) int {
	valStr := getString(key, "")
	val, _, err := big.ParseFloat(valStr, 10, 0, big.ToNearestEven)
	if err != nil {
		return defaultValue
	}

	intVal, _ := val.Int64()
	return int(intVal)
}

func getUint64(key string, defaultValue uint64) uint64 {
	valStr := getString(key, "")
	val, err := strconv.ParseUint(valStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return val
}

func getBool(key string, defaultValue bool) bool {
	valStr := getString(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	valStr := getString(key, "")
	if val, err := time.ParseDuration(valStr); err == nil {
		return val
	}

	return defaultValue
}

func getSlice(key string, defaultVal []string, sep string) []string {
	valStr := getString(key, "")
	if valStr == "" {
		return defaultVal
	}

	return strings.Split(valStr, sep)
}
