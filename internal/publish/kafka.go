package publish

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"watersafe/internal/config"
	"watersafe/internal/model"
)

// Publisher announces generated letters to downstream consumers.
type Publisher interface {
	PublishLetter(ctx context.Context, letter model.Letter) error
	Close() error
}

// LetterEvent is the wire shape of a letter announcement. The rendered
// document is not included.
type LetterEvent struct {
	Type           string    `json:"type"`
	LetterID       string    `json:"letter_id"`
	TemplateID     string    `json:"template_id"`
	Tier           int       `json:"tier"`
	SystemID       string    `json:"system_id"`
	SystemName     string    `json:"system_name"`
	ViolationID    string    `json:"violation_id,omitempty"`
	TaskID         string    `json:"task_id,omitempty"`
	RecipientCount int       `json:"recipient_count"`
	GeneratedAt    time.Time `json:"generated_at"`
	DueDate        time.Time `json:"due_date"`
}

func NewLetterEvent(l model.Letter) LetterEvent {
	return LetterEvent{
		Type:           "letter." + string(l.Status),
		LetterID:       l.ID,
		TemplateID:     l.TemplateID,
		Tier:           int(l.Tier),
		SystemID:       l.SystemID,
		SystemName:     l.SystemName,
		ViolationID:    l.ViolationID,
		TaskID:         l.TaskID,
		RecipientCount: l.RecipientCount,
		GeneratedAt:    l.GeneratedAt.UTC(),
		DueDate:        l.DueDate.UTC(),
	}
}

// Message keys letters by system so one system's letters stay ordered on a
// single partition.
func Message(l model.Letter) (kafka.Message, error) {
	value, err := json.Marshal(NewLetterEvent(l))
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(l.SystemID),
		Value: value,
		Time:  l.GeneratedAt,
	}, nil
}

type kafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewKafka(cfg config.PublishConfig, logger *slog.Logger) Publisher {
	if !cfg.Enabled {
		if logger != nil {
			logger.Info("letter publishing disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("letter publishing enabled", "brokers", cfg.Brokers, "topic", cfg.Topic)
	}
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
		logger: logger,
	}
}

func (p *kafkaPublisher) PublishLetter(ctx context.Context, l model.Letter) error {
	msg, err := Message(l)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
