package publisher

import (
	"context"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-service/book/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Publisher sends book events to a topic, keyed by book id.
// A nil producer turns Publish into a no-op.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *zap.Logger
}

func New(producer sarama.SyncProducer, topic string, log *zap.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
		log:      log.Named("publisher"),
	}
}

func (p *Publisher) Publish(_ context.Context, event model.BookEvent) error {
	if p.producer == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(event.BookID, 10)),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return errors.Wrap(err, "send event")
	}
	p.log.Debug("event published",
		zap.String("id", event.ID),
		zap.String("type", string(event.Type)),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

func (p *Publisher) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
