package outbox

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/mmynk/cakepot/internal/models"
)

// KafkaPublisher sends events to Kafka, one topic per event type.
type KafkaPublisher struct {
	producer    sarama.SyncProducer
	topicPrefix string
}

// NewKafkaPublisher connects a synchronous producer to brokers.
func NewKafkaPublisher(brokers []string, topicPrefix string) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll // Wait for all in-sync replicas
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true // Required by SyncProducer

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, topicPrefix), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer.
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topicPrefix string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topicPrefix: topicPrefix}
}

// Topic returns the Kafka topic an event topic is published to.
func (p *KafkaPublisher) Topic(eventTopic string) string {
	return p.topicPrefix + eventTopic
}

// Publish implements Publisher. The message key is the pot id so all events
// of a pot land on the same partition.
func (p *KafkaPublisher) Publish(_ context.Context, msg *models.OutboxMessage) error {
	_, _, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.Topic(msg.Topic),
		Key:   sarama.StringEncoder(msg.MessageKey),
		Value: sarama.StringEncoder(msg.Payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(msg.EventID)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send %s event: %w", msg.Topic, err)
	}
	return nil
}

// Close implements Publisher.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
