package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ScrapeEvent is published after each scraping run so downstream consumers
// (reporting, alerting) can react without polling the services.
type ScrapeEvent struct {
	RunID     string    `json:"run_id"`
	Network   string    `json:"network"`
	Keyword   string    `json:"keyword"`
	Saved     int       `json:"saved"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}

// Producer wraps a kafka writer. A nil Producer is valid and drops every
// event, which keeps the services runnable without a broker.
type Producer struct {
	writer *kafka.Writer
	log    *zap.SugaredLogger
}

// NewProducer returns nil when no brokers are configured.
func NewProducer(brokers []string, topic string, log *zap.SugaredLogger) *Producer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Producer{writer: writer, log: log}
}

// PublishScrape sends a scrape event keyed by network. Publish failures are
// logged, never surfaced: event delivery must not fail a scraping request.
func (p *Producer) PublishScrape(ctx context.Context, event ScrapeEvent) {
	if p == nil {
		return
	}
	if event.RunID == "" {
		event.RunID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Errorw("encode scrape event", "error", err)
		return
	}
	msg := kafka.Message{Key: []byte(event.Network), Value: payload}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Errorw("publish scrape event", "network", event.Network, "error", err)
	}
}

func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
