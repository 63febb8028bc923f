package handler

import (
	"context"

	"github.com/IBM/sarama"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-service/book/internal/errs"
	"github.com/Astemirdum/book-service/book/internal/model"
)

type availableCount func(ctx context.Context, bookID int64, isReturn bool) error

// Consumer applies borrow/return commands from the inventory topic.
type Consumer struct {
	availableCountHandler availableCount
	log                   *zap.Logger
	ready                 chan bool
}

func NewConsumer(availableCount availableCount, log *zap.Logger) *Consumer {
	return &Consumer{
		availableCountHandler: availableCount,
		log:                   log.Named("consumer"),
		ready:                 make(chan bool),
	}
}

// Ready is closed once the first session is set up.
func (consumer *Consumer) Ready() <-chan bool {
	return consumer.ready
}

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	select {
	case <-consumer.ready:
	default:
		close(consumer.ready)
	}
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			// a consumer group commits past any offset once a later one is marked,
			// so every command is marked; failed ones are logged and dropped
			consumer.handle(session.Context(), message)
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func (consumer *Consumer) handle(ctx context.Context, message *sarama.ConsumerMessage) {
	var req model.AvailableCountRequest
	if err := jsoniter.Unmarshal(message.Value, &req); err != nil || req.BookID <= 0 {
		consumer.log.Error("skip undecodable message",
			zap.String("value", string(message.Value)), zap.Error(err))
		return
	}

	if err := consumer.availableCountHandler(ctx, req.BookID, req.IsReturn); err != nil {
		consumer.log.Error("consumer.availableCountHandler",
			zap.Int64("bookId", req.BookID),
			zap.Bool("isReturn", req.IsReturn),
			zap.Bool("stateError", errs.IsStateError(err)),
			zap.Int64("offset", message.Offset),
			zap.Error(err))
		return
	}

	consumer.log.Debug("Message claimed:",
		zap.String("value", string(message.Value)),
		zap.Time("timestamp", message.Timestamp),
		zap.String("topic", message.Topic))
}
