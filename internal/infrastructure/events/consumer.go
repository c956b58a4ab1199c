package events

import (
	"context"
	"time"

	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Handler возвращает nil, только если событие обработано и смещение
// можно фиксировать.
type Handler func(ctx context.Context, env Envelope) error

// Reader часть kafka.Reader, которая нужна потребителю.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader         Reader
	handlerTimeout time.Duration
	retryDelay     time.Duration
}

// NewConsumer подписывает группу на топики событий. Для рассылки по
// WebSocket у каждой реплики API должна быть своя группа.
func NewConsumer(brokers []string, groupID string, topics ...string) *Consumer {
	return NewConsumerWithReader(kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	}))
}

func NewConsumerWithReader(r Reader) *Consumer {
	return &Consumer{reader: r, handlerTimeout: 10 * time.Second, retryDelay: time.Second}
}

// Run читает сообщения до отмены ctx. Нераспознанные сообщения фиксируются
// и пропускаются.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	defer c.reader.Close()

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Log.WithError(err).Warn("kafka: ошибка чтения сообщения")
			if !c.sleep(ctx) {
				return nil
			}
			continue
		}

		fields := logrus.Fields{"topic": m.Topic, "partition": m.Partition, "offset": m.Offset}
		env, err := DecodeEnvelope(m.Value)
		if err != nil {
			logger.Log.WithFields(fields).WithError(err).Warn("kafka: пропущено нераспознанное сообщение")
			c.commit(ctx, m, fields)
			continue
		}

		if !c.process(ctx, handle, env, fields) {
			return nil
		}
		c.commit(ctx, m, fields)
	}
}

// process повторяет обработку того же сообщения до успеха: читатель группы
// не вернёт незафиксированное сообщение до ребалансировки.
func (c *Consumer) process(ctx context.Context, handle Handler, env Envelope, fields logrus.Fields) bool {
	for {
		handleCtx, cancel := context.WithTimeout(ctx, c.handlerTimeout)
		err := handle(handleCtx, env)
		cancel()
		if err == nil {
			return true
		}
		logger.Log.WithFields(fields).WithField("event", env.Type).WithError(err).Error("kafka: ошибка обработки события")
		if !c.sleep(ctx) {
			return false
		}
	}
}

func (c *Consumer) commit(ctx context.Context, m kafka.Message, fields logrus.Fields) {
	if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
		logger.Log.WithFields(fields).WithError(err).Warn("kafka: не удалось зафиксировать смещение")
	}
}

func (c *Consumer) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.retryDelay):
		return true
	}
}
