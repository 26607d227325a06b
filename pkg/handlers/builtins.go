package handlers

import (
	"errors"

	"github.com/joeydtaylor/webhook-handler/pkg/core"
	"github.com/joeydtaylor/webhook-handler/pkg/manifest"
	"go.uber.org/zap"
)

// Builtins holds the handlers that keep connections open between requests.
type Builtins struct {
	Redis *Redis
	Kafka *Kafka
}

// Register binds every built-in handler into reg under its config name.
func Register(reg *core.Registry, log *zap.Logger) *Builtins {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Builtins{Redis: &Redis{}, Kafka: &Kafka{}}

	reg.Register(string(manifest.HandlerPrint), Print{Log: log})
	reg.Register(string(manifest.HandlerDump), Dump{})
	reg.Register(string(manifest.HandlerRun), Run{Log: log})
	reg.Register(string(manifest.HandlerNull), Null)
	reg.Register(string(manifest.HandlerRedis), b.Redis)
	reg.Register(string(manifest.HandlerKafka), b.Kafka)
	return b
}

// Close releases broker connections held by the publish handlers.
func (b *Builtins) Close() error {
	return errors.Join(b.Redis.Close(), b.Kafka.Close())
}
