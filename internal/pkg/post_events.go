package pkg

import (
	"context"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// EventTypeHeader 消费方按该 header 分发帖子事件
const EventTypeHeader = "event-type"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PostEventProducer publishes board events keyed by post id, so every event
// of one post lands on the same partition in commit order.
type PostEventProducer struct {
	writer messageWriter
	topic  string
}

type PostEventConfig struct {
	Brokers []string
	Topic   string
}

func NewPostEventProducer(cfg PostEventConfig) (*PostEventProducer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("kafka brokers and topic are required: %w", ErrInvalidArgument)
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &PostEventProducer{writer: w, topic: cfg.Topic}, nil
}

func (p *PostEventProducer) Topic() string { return p.topic }

func (p *PostEventProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// SendPostEvent writes one event synchronously.
func (p *PostEventProducer) SendPostEvent(ctx context.Context, eventType string, postID uint64, payload []byte) error {
	msg, err := PostEventMessage(eventType, postID, payload)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s for post %d: %w", eventType, postID, err)
	}
	return nil
}

// PostEventMessage builds the kafka record for one post event.
func PostEventMessage(eventType string, postID uint64, payload []byte) (kafka.Message, error) {
	if eventType == "" || postID == 0 || len(payload) == 0 {
		return kafka.Message{}, fmt.Errorf("event type, post id and payload are required: %w", ErrInvalidArgument)
	}
	return kafka.Message{
		Key:     []byte(strconv.FormatUint(postID, 10)),
		Value:   payload,
		Headers: []kafka.Header{{Key: EventTypeHeader, Value: []byte(eventType)}},
	}, nil
}
