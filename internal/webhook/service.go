package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"net/http"
)

var ErrBadStatusCode = errors.New("bad status code")

type Service interface {
	NotifyFromEvent(e entity.Event)
	Notify(e entity.Event) error
}

type service struct {
	urls   []string
	client *retryablehttp.Client
}

func NewService(urls []string, client *retryablehttp.Client) Service {
	return service{urls, client}
}

// NotifyFromEvent is the event listener form of Notify.
func (s service) NotifyFromEvent(e entity.Event) {
	_ = s.Notify(e)
}

// Notify posts the event envelope to every configured url. Every url is
// attempted; the last failure is returned.
func (s service) Notify(e entity.Event) error {
	envelope, err := entity.NewEventEnvelope(e)
	if err != nil {
		return err
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	var lastErr error
	for _, url := range s.urls {
		if err := s.post(url, body, e); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

func (s service) post(url string, body []byte, e entity.Event) error {
	req, err := retryablehttp.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", string(e.Type()))

	resp, err := s.client.Do(req)
	if err != nil {
		zap.L().With(
			zap.Error(err),
			zap.String("url", url),
			zap.String("type", string(e.Type())),
			zap.Uint64("listingId", e.ListingId()),
		).Error("Webhook: Failed to deliver event")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		zap.L().With(
			zap.Int("status", resp.StatusCode),
			zap.String("url", url),
			zap.String("type", string(e.Type())),
			zap.Uint64("listingId", e.ListingId()),
		).Error("Webhook: Failed to deliver event")
		return ErrBadStatusCode
	}

	zap.L().With(zap.String("url", url), zap.String("type", string(e.Type()))).Debug("Webhook: Event delivered")

	return nil
}
