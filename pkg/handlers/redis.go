package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/joeydtaylor/webhook-handler/pkg/core"
	"github.com/joeydtaylor/webhook-handler/pkg/format"
	"github.com/joeydtaylor/webhook-handler/pkg/manifest"
	"github.com/redis/go-redis/v9"
)

const (
	redisModePublish = "publish"
	redisModeList    = "list"
)

// Redis sends the JSON body to the channel or list named by the "key" template.
// Clients are opened on first use and kept per address and db.
type Redis struct {
	// Dial opens a client; nil uses redis.NewClient.
	Dial func(addr, password string, db int) *redis.Client

	mu      sync.Mutex
	clients map[string]*redis.Client
}

func (h *Redis) Handle(ctx context.Context, opts manifest.Options, rc *core.RequestContext) error {
	addr, err := opts.String("addr", "localhost:6379")
	if err != nil {
		return err
	}
	password, err := opts.String("password", "")
	if err != nil {
		return err
	}
	db, err := opts.Int("db", 0)
	if err != nil {
		return err
	}
	mode, err := opts.String("mode", redisModePublish)
	if err != nil {
		return err
	}
	keyTmpl, err := opts.String("key", "")
	if err != nil {
		return err
	}
	if keyTmpl == "" {
		return errors.New("redis: option \"key\" is required")
	}

	key, err := format.Format(keyTmpl, rc.Vars())
	if err != nil {
		return err
	}
	data, err := rc.Body()
	if err != nil {
		return fmt.Errorf("redis: encode body: %w", err)
	}

	client := h.client(addr, password, db)
	switch mode {
	case redisModePublish:
		err = client.Publish(ctx, key, data).Err()
	case redisModeList:
		err = client.RPush(ctx, key, data).Err()
	default:
		return fmt.Errorf("redis: unknown mode %q", mode)
	}
	if err != nil {
		return fmt.Errorf("redis %s %s: %w", mode, key, err)
	}
	return nil
}

func (h *Redis) client(addr, password string, db int) *redis.Client {
	id := fmt.Sprintf("%s/%d", addr, db)

	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		return c
	}
	if h.clients == nil {
		h.clients = map[string]*redis.Client{}
	}
	dial := h.Dial
	if dial == nil {
		dial = func(addr, password string, db int) *redis.Client {
			return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
		}
	}
	c := dial(addr, password, db)
	h.clients[id] = c
	return c
}

// Close releases every cached client.
func (h *Redis) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	var errs []error
	for id, c := range h.clients {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis %s: %w", id, err))
		}
		delete(h.clients, id)
	}
	return errors.Join(errs...)
}
