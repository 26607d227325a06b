package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/IBM/sarama"
	"github.com/joeydtaylor/webhook-handler/pkg/core"
	"github.com/joeydtaylor/webhook-handler/pkg/format"
	"github.com/joeydtaylor/webhook-handler/pkg/manifest"
)

// Kafka produces the JSON body to the topic named by the "topic" template, keyed
// by the optional "key" template. Producers are kept per broker list.
type Kafka struct {
	// Dial opens a producer; nil uses NewSyncProducer.
	Dial func(brokers []string, user, password string) (sarama.SyncProducer, error)

	mu        sync.Mutex
	producers map[string]sarama.SyncProducer
}

// NewSyncProducer builds a producer that waits for all in-sync replicas.
func NewSyncProducer(brokers []string, user, password string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	if user != "" {
		config.Net.SASL.Enable = true
		config.Net.SASL.User = user
		config.Net.SASL.Password = password
	}
	return sarama.NewSyncProducer(brokers, config)
}

func (h *Kafka) Handle(_ context.Context, opts manifest.Options, rc *core.RequestContext) error {
	brokers, err := opts.Strings("brokers", []string{"localhost:9092"})
	if err != nil {
		return err
	}
	user, err := opts.String("user", "")
	if err != nil {
		return err
	}
	password, err := opts.String("password", "")
	if err != nil {
		return err
	}
	topicTmpl, err := opts.String("topic", "")
	if err != nil {
		return err
	}
	if topicTmpl == "" {
		return errors.New("kafka: option \"topic\" is required")
	}
	keyTmpl, err := opts.String("key", "")
	if err != nil {
		return err
	}

	vars := rc.Vars()
	topic, err := format.Format(topicTmpl, vars)
	if err != nil {
		return err
	}
	data, err := rc.Body()
	if err != nil {
		return fmt.Errorf("kafka: encode body: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(data),
	}
	if keyTmpl != "" {
		key, err := format.Format(keyTmpl, vars)
		if err != nil {
			return err
		}
		msg.Key = sarama.StringEncoder(key)
	}

	p, err := h.producer(brokers, user, password)
	if err != nil {
		return fmt.Errorf("kafka: %w", err)
	}
	if _, _, err := p.SendMessage(msg); err != nil {
		return fmt.Errorf("kafka send %s: %w", topic, err)
	}
	return nil
}

func (h *Kafka) producer(brokers []string, user, password string) (sarama.SyncProducer, error) {
	id := user + "@" + strings.Join(brokers, ",")

	h.mu.Lock()
	defer h.mu.Unlock()
	if p, ok := h.producers[id]; ok {
		return p, nil
	}
	dial := h.Dial
	if dial == nil {
		dial = NewSyncProducer
	}
	p, err := dial(brokers, user, password)
	if err != nil {
		return nil, err
	}
	if h.producers == nil {
		h.producers = map[string]sarama.SyncProducer{}
	}
	h.producers[id] = p
	return p, nil
}

// Close releases every cached producer.
func (h *Kafka) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	var errs []error
	for id, p := range h.producers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka %s: %w", id, err))
		}
		delete(h.producers, id)
	}
	return errors.Join(errs...)
}
