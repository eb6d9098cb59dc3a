// Package kafka publica los eventos del libro de existencias en Kafka (un tópico por tipo de evento).
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/stock-ledger/internal/application/stock"
)

var _ stock.EventPublisher = (*Publisher)(nil)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// keyed eventos que definen su clave de partición.
type keyed interface {
	EventKey() string
}

// Publisher implementa stock.EventPublisher con un kafka.Writer sin tópico fijo.
type Publisher struct {
	writer messageWriter
}

// NewPublisher construye el publisher para los brokers dados.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
	}
}

// Publish serializa el evento en JSON y lo escribe en topic.
func (p *Publisher) Publish(ctx context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: serializar evento %s: %w", topic, err)
	}
	msg := kafka.Message{
		Topic: topic,
		Value: data,
		Time:  time.Now().UTC(),
	}
	if k, ok := event.(keyed); ok {
		msg.Key = []byte(k.EventKey())
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publicar %s: %w", topic, err)
	}
	return nil
}

// Close vacía y cierra el writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
