package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
	"github.com/segmentio/kafka-go"
	"github.com/zapeame/nostr-market/internal/cfg"
	"github.com/zapeame/nostr-market/internal/usecase"
	"github.com/zapeame/nostr-market/pkg/e"
	"github.com/zapeame/nostr-market/pkg/logger"
)

// listingFeedMessage — payload фида о публикации объявления.
// Потребители: индексация и аналитика ниже по потоку.
type listingFeedMessage struct {
	MessageID string `json:"message_id"`
	EventID   string `json:"event_id"`
	AuthorKey string `json:"author_key"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	Currency  string `json:"currency"`
	CreatedAt int64  `json:"created_at"`
	EmittedAt int64  `json:"emitted_at"`
}

// Producer пишет фид опубликованных объявлений в Kafka.
// Фид best-effort: ошибки записи не влияют на результат публикации.
type Producer struct {
	writer *kafka.Writer
	logger logger.Logger
	cfg    *cfg.KafkaCfg
}

func NewProducer(cfg *cfg.KafkaCfg, logger logger.Logger) (*Producer, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    10,
		BatchTimeout: 500 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warnf("Kafka producer error: %s", err.Error())
			}
		},
	}

	return &Producer{
		writer: writer,
		logger: logger,
		cfg:    cfg,
	}, nil
}

// PublishListingEvent пишет сообщение фида, ключ — идентификатор события,
// чтобы переиздания одного объявления попадали в одну партицию.
func (p *Producer) PublishListingEvent(ctx context.Context, req *usecase.ListingFeedReq) error {
	value, err := json.Marshal(listingFeedMessage{
		MessageID: uuid.NewString(),
		EventID:   req.EventID,
		AuthorKey: req.AuthorKey,
		Title:     req.Title,
		Price:     req.Price,
		Currency:  req.Currency,
		CreatedAt: req.CreatedAt,
		EmittedAt: time.Now().UnixNano(),
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(req.EventID),
		Value: value,
	})
}

// EnsureTopic создает топик фида, если его еще нет
func (p *Producer) EnsureTopic(timeout time.Duration) error {
	conn, err := kafka.Dial(p.cfg.NetworkMode, p.cfg.Brokers[0])
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(p.cfg.Topic)
	if err == nil && len(partitions) > 0 {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- conn.CreateTopics(kafka.TopicConfig{
			Topic:             p.cfg.Topic,
			NumPartitions:     p.cfg.Partitions,
			ReplicationFactor: p.cfg.ReplicationFactor,
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), fmt.Errorf("failed to create topic %s: %w", p.cfg.Topic, err))
		}
		return nil
	case <-time.After(timeout):
		_ = conn.Close()
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("timeout: %v, topic: %s", timeout, p.cfg.Topic))
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
