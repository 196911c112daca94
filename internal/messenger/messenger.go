package messenger

import (
	"context"
	"encoding/json"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"go.uber.org/zap"
	"time"
)

type MessageService interface {
	SendMessage(body []byte) error
	PollMessages(ctx context.Context, messages chan<- *sqs.Message)
	DeleteMessage(message *sqs.Message) error

	PublishEvent(e entity.Event)
}

type messenger struct {
	client      sqsiface.SQSAPI
	queueUrl    string
	waitTime    int64
	maxMessages int64
}

const pollBackoff = 5 * time.Second

func NewMessenger(client sqsiface.SQSAPI, queueUrl string, waitTime, maxMessages int64) MessageService {
	return messenger{client, queueUrl, waitTime, maxMessages}
}

func (m messenger) SendMessage(body []byte) error {
	_, err := m.client.SendMessage(&sqs.SendMessageInput{
		QueueUrl:    aws.String(m.queueUrl),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("queue", m.queueUrl)).Error("[Queue] Failed to send message")
	}

	return err
}

// PublishEvent is the event listener that puts each event onto the queue.
func (m messenger) PublishEvent(e entity.Event) {
	envelope, err := entity.NewEventEnvelope(e)
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("type", string(e.Type()))).Error("[Queue] Failed to encode event")
		return
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("type", string(e.Type()))).Error("[Queue] Failed to encode event")
		return
	}

	if err := m.SendMessage(body); err == nil {
		zap.L().With(zap.String("type", string(e.Type())), zap.Uint64("listingId", e.ListingId())).Debug("[Queue] Event published")
	}
}

// PollMessages long-polls the queue until ctx is done, then closes messages.
func (m messenger) PollMessages(ctx context.Context, messages chan<- *sqs.Message) {
	defer close(messages)

	for ctx.Err() == nil {
		output, err := m.client.ReceiveMessageWithContext(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(m.queueUrl),
			MaxNumberOfMessages: aws.Int64(m.maxMessages),
			WaitTimeSeconds:     aws.Int64(m.waitTime),
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			zap.L().With(zap.Error(err), zap.String("queue", m.queueUrl)).Error("[Queue] Failed to receive messages")
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollBackoff):
			}
			continue
		}

		for _, message := range output.Messages {
			select {
			case messages <- message:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (m messenger) DeleteMessage(message *sqs.Message) error {
	_, err := m.client.DeleteMessage(&sqs.DeleteMessageInput{
		QueueUrl:      aws.String(m.queueUrl),
		ReceiptHandle: message.ReceiptHandle,
	})
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("queue", m.queueUrl)).Error("[Queue] Failed to delete message")
	}

	return err
}

// ReadEvent decodes the event carried by a queue message.
func ReadEvent(message *sqs.Message) (entity.Event, error) {
	var envelope entity.EventEnvelope
	if err := json.Unmarshal([]byte(aws.StringValue(message.Body)), &envelope); err != nil {
		return nil, err
	}

	return envelope.Event()
}
