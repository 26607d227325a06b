package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/go-redis/redismock/v9"
	"github.com/joeydtaylor/webhook-handler/pkg/manifest"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis_PublishAndList(t *testing.T) {
	db, mock := redismock.NewClientMock()
	dials := 0
	h := &Redis{Dial: func(addr, password string, n int) *redis.Client {
		dials++
		assert.Equal(t, "cache:6379", addr)
		return db
	}}
	rc := newContext(t, http.MethodPost, "/hook", `{"repository":{"name":"site"}}`)
	data := []byte(`{"repository":{"name":"site"}}`)

	mock.ExpectPublish("hooks.site", data).SetVal(1)
	require.NoError(t, h.Handle(context.Background(), manifest.Options{
		"addr": "cache:6379",
		"key":  "hooks.{obj[repository][name]}",
	}, rc))

	mock.ExpectRPush("queue:site", data).SetVal(1)
	require.NoError(t, h.Handle(context.Background(), manifest.Options{
		"addr": "cache:6379",
		"key":  "queue:{obj[repository][name]}",
		"mode": "list",
	}, rc))

	assert.Equal(t, 1, dials, "client is reused per address")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_Errors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	h := &Redis{Dial: func(string, string, int) *redis.Client { return db }}
	rc := newContext(t, http.MethodPost, "/", `{}`)

	err := h.Handle(context.Background(), manifest.Options{}, rc)
	assert.ErrorContains(t, err, `"key" is required`)

	err = h.Handle(context.Background(), manifest.Options{"key": "k", "mode": "stream"}, rc)
	assert.ErrorContains(t, err, `unknown mode "stream"`)

	mock.ExpectPublish("k", []byte(`{}`)).SetErr(errors.New("down"))
	err = h.Handle(context.Background(), manifest.Options{"key": "k"}, rc)
	assert.ErrorContains(t, err, "down")
}

func TestKafka_SendMessage(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"repository":{"name":"site"}}` {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})

	var gotBrokers []string
	h := &Kafka{Dial: func(brokers []string, _, _ string) (sarama.SyncProducer, error) {
		gotBrokers = brokers
		return sp, nil
	}}
	rc := newContext(t, http.MethodPost, "/hook", `{"repository":{"name":"site"}}`)

	require.NoError(t, h.Handle(context.Background(), manifest.Options{
		"brokers": []any{"k1:9092", "k2:9092"},
		"topic":   "hooks.{obj[repository][name]}",
		"key":     "{path}",
	}, rc))
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, gotBrokers)
	require.NoError(t, h.Close())
}

func TestKafka_Errors(t *testing.T) {
	rc := newContext(t, http.MethodPost, "/", `{}`)

	h := &Kafka{Dial: func([]string, string, string) (sarama.SyncProducer, error) {
		return nil, errors.New("no brokers")
	}}
	err := h.Handle(context.Background(), manifest.Options{}, rc)
	assert.ErrorContains(t, err, `"topic" is required`)

	err = h.Handle(context.Background(), manifest.Options{"topic": "t"}, rc)
	assert.ErrorContains(t, err, "no brokers")

	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	h = &Kafka{Dial: func([]string, string, string) (sarama.SyncProducer, error) { return sp, nil }}
	err = h.Handle(context.Background(), manifest.Options{"topic": "t"}, rc)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, h.Close())
}
