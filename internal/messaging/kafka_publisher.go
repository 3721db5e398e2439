package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/cypherlabdev/match-predictor/internal/models"
)

// messageWriter is the part of *kafka.Writer the publisher needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes every ranked match of a run to a Kafka topic
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	now    func() time.Time
	logger zerolog.Logger
}

// KafkaPublisherConfig holds Kafka producer configuration
type KafkaPublisherConfig struct {
	Brokers      []string      // e.g., ["localhost:9092"]
	Topic        string        // e.g., "match_predictions"
	WriteTimeout time.Duration // e.g., 10 * time.Second
}

// NewKafkaPublisher creates a new Kafka publisher
func NewKafkaPublisher(config KafkaPublisherConfig, logger zerolog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Topic:                  config.Topic,
		Balancer:               &kafka.Hash{}, // same match id, same partition
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           config.WriteTimeout,
		AllowAutoTopicCreation: true,
	}

	return newKafkaPublisher(writer, config.Topic, logger)
}

func newKafkaPublisher(writer messageWriter, topic string, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		topic:  topic,
		now:    time.Now,
		logger: logger.With().Str("component", "kafka_publisher").Logger(),
	}
}

// Name implements service.Sink
func (p *KafkaPublisher) Name() string {
	return "kafka"
}

// Emit publishes one message per match of the predictability view, keyed by
// match id, in a single batch
func (p *KafkaPublisher) Emit(ctx context.Context, report *models.Report) error {
	if len(report.ByPredictability) == 0 {
		return nil
	}

	publishedAt := p.now().UTC()
	msgs := make([]kafka.Message, 0, len(report.ByPredictability))

	for i, match := range report.ByPredictability {
		value, err := json.Marshal(models.PredictionMessage{
			RunID:       report.RunID,
			Rank:        i + 1,
			Match:       match,
			WindowDays:  report.WindowDays,
			PublishedAt: publishedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal prediction: %w", err)
		}

		key := match.ID
		if key == "" {
			key = fmt.Sprintf("%s:%s:%s", match.League, match.Team1, match.Team2)
		}

		msgs = append(msgs, kafka.Message{
			Key:   []byte(key),
			Value: value,
			Headers: []kafka.Header{
				{Key: "run_id", Value: []byte(report.RunID.String())},
				{Key: "verdict", Value: []byte(match.Verdict)},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish predictions: %w", err)
	}

	p.logger.Info().
		Str("topic", p.topic).
		Str("run_id", report.RunID.String()).
		Int("count", len(msgs)).
		Msg("published predictions")

	return nil
}

// Close flushes and closes the Kafka writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
