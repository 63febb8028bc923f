package publisher_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-service/book/internal/model"
	"github.com/Astemirdum/book-service/book/internal/publisher"
)

func TestPublisher_Publish(t *testing.T) {
	t.Parallel()
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)

	event := model.BookEvent{
		Type:            model.EventBookBorrowed,
		BookID:          7,
		TotalCopies:     3,
		AvailableCopies: 2,
		OccurredAt:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "7" {
			return errors.Errorf("key %q", key)
		}
		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var got model.BookEvent
		if err := json.Unmarshal(value, &got); err != nil {
			return err
		}
		if got.ID == "" || got.Type != model.EventBookBorrowed || got.AvailableCopies != 2 {
			return errors.Errorf("unexpected event %+v", got)
		}
		return nil
	})

	p := publisher.New(producer, "book-events", zap.NewNop())
	require.NoError(t, p.Publish(context.Background(), event))
	require.NoError(t, p.Close())
}

func TestPublisher_PublishFailure(t *testing.T) {
	t.Parallel()
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := publisher.New(producer, "book-events", zap.NewNop())
	err := p.Publish(context.Background(), model.BookEvent{Type: model.EventBookCreated, BookID: 1})
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

func TestPublisher_Noop(t *testing.T) {
	t.Parallel()
	p := publisher.New(nil, "book-events", zap.NewNop())
	require.NoError(t, p.Publish(context.Background(), model.BookEvent{}))
	require.NoError(t, p.Close())
}
