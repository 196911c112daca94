package config

import (
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestGet_ReadsEnvironment(t *testing.T) {
	viper.AutomaticEnv()
	t.Setenv("MARKETPLACE_ADMIN", "admin")
	t.Setenv("FEE_PERCENTAGE", "7")
	t.Setenv("DEFAULT_EXPIRATION", "36h")
	t.Setenv("WEBHOOK_URLS", "http://a,http://b")
	t.Setenv("ELASTIC_SEARCH_SNIFF", "false")
	t.Setenv("SQS_MAX_MESSAGES", "5")

	cfg := Get()

	assert.Equal(t, "admin", cfg.Marketplace.Admin)
	assert.Equal(t, uint64(7), cfg.Marketplace.FeePercentage)
	assert.Equal(t, 36*time.Hour, cfg.Marketplace.DefaultExpiration)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.WebhookUrls)
	assert.False(t, cfg.ElasticSearch.Sniff)
	assert.Equal(t, int64(5), cfg.Sqs.MaxMessages)
}

func TestGet_FallsBackOnInvalidValues(t *testing.T) {
	viper.AutomaticEnv()
	t.Setenv("FEE_PERCENTAGE", "-3")
	t.Setenv("DEFAULT_EXPIRATION", "soon")
	t.Setenv("EVENTS_SUPPORTED", "maybe")

	cfg := Get()

	assert.Equal(t, uint64(0), cfg.Marketplace.FeePercentage)
	assert.Equal(t, 720*time.Hour, cfg.Marketplace.DefaultExpiration)
	assert.True(t, cfg.EventsSupported)
	assert.Equal(t, "marketplace", cfg.Marketplace.CustodyAccount)
}
