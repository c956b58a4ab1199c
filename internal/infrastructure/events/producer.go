package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Writer часть kafka.Writer, которая нужна издателю.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Topics struct {
	Match   string
	Payment string
}

// KafkaPublisher публикует события матчей и платежей. Топик задаётся
// в каждом сообщении, поэтому один writer обслуживает оба потока.
type KafkaPublisher struct {
	writer Writer
	topics Topics
}

func NewKafkaPublisher(brokers []string, topics Topics) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}, topics)
}

func NewKafkaPublisherWithWriter(w Writer, topics Topics) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topics: topics}
}

func (p *KafkaPublisher) PublishMatch(ctx context.Context, ev repository.MatchEvent) error {
	env, err := MatchEnvelope(ev)
	if err != nil {
		return err
	}
	return p.write(ctx, p.topics.Match, env)
}

func (p *KafkaPublisher) PublishPayment(ctx context.Context, ev repository.PaymentEvent) error {
	env, err := PaymentEnvelope(ev)
	if err != nil {
		return err
	}
	return p.write(ctx, p.topics.Payment, env)
}

func (p *KafkaPublisher) write(ctx context.Context, topic string, env Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("events: не удалось сериализовать конверт: %w", err)
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(env.Key),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(env.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"topic": topic,
			"event": env.Type,
			"key":   env.Key,
		}).WithError(err).Error("kafka: ошибка записи")
		return fmt.Errorf("events: запись в %s: %w", topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
