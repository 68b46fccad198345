package repository

import (
	"context"
	"fmt"
	"path/filepath"

	"TrendPredictor/internal/domain/models"
	domrepo "TrendPredictor/internal/domain/repository"
)

// messageProducer is the subset of *kafka.Producer used here.
type messageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaEventPublisher implements EventPublisher. Model lifecycle events and
// served predictions go to separate topics so model-events consumers never
// see prediction traffic. Messages carry a "type" field.
type KafkaEventPublisher struct {
	producer         messageProducer
	topic            string
	predictionsTopic string
}

var _ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)

func NewKafkaEventPublisher(producer messageProducer, topic, predictionsTopic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic, predictionsTopic: predictionsTopic}
}

// PublishModelTrained keys the event by artifact path, so events for one
// model file stay ordered on a single partition.
func (p *KafkaEventPublisher) PublishModelTrained(ctx context.Context, ev *models.ModelTrainedEvent) error {
	ev.Type = models.EventModelTrained
	key := []byte(filepath.Clean(ev.ArtifactPath))
	if err := p.producer.Publish(ctx, p.topic, key, ev); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

func (p *KafkaEventPublisher) PublishPrediction(ctx context.Context, rec *models.PredictionRecord) error {
	payload := struct {
		Type string `json:"type"`
		*models.PredictionRecord
	}{Type: models.EventPrediction, PredictionRecord: rec}
	if err := p.producer.Publish(ctx, p.predictionsTopic, []byte(rec.Ticker), payload); err != nil {
		return fmt.Errorf("publish %s: %w", models.EventPrediction, err)
	}
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
