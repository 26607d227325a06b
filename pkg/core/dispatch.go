package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/webhook-handler/pkg/codec"
	"github.com/joeydtaylor/webhook-handler/pkg/manifest"
	hmetrics "github.com/joeydtaylor/webhook-handler/pkg/middleware/metrics"
	"go.uber.org/zap"
)

// ErrUnsupportedMediaType is returned for requests whose body is not JSON.
var ErrUnsupportedMediaType = errors.New("content type is not application/json")

// HandlerError identifies the invocation that aborted a dispatch.
type HandlerError struct {
	Handler string
	Index   int
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s[%d]: %v", e.Handler, e.Index, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// Dispatcher turns a webhook request into handler invocations. It always answers
// 200 "OK\n"; failures are logged only in debug mode so the caller never retries
// on account of a local side effect.
type Dispatcher struct {
	Config   manifest.Config
	Registry *Registry
	Log      *zap.Logger
	Debug    bool
}

func NewDispatcher(cfg manifest.Config, reg *Registry, log *zap.Logger, debug bool) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{Config: cfg, Registry: reg, Log: log, Debug: debug}
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := d.handle(r); err != nil && d.Debug {
		d.Log.Error("webhook dispatch failed",
			zap.String("requestId", chimd.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("uri", r.URL.Path),
			zap.Error(err),
		)
	}
	writeOK(w)
}

func (d *Dispatcher) handle(r *http.Request) (err error) {
	rejected := true
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panic: %v", p)
		}
		switch {
		case err == nil:
			hmetrics.ObserveDispatch(hmetrics.OutcomeOK)
		case rejected:
			hmetrics.ObserveDispatch(hmetrics.OutcomeRejected)
		default:
			hmetrics.ObserveDispatch(hmetrics.OutcomeError)
		}
	}()

	if !isJSON(r.Header.Get("Content-Type")) {
		return ErrUnsupportedMediaType
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	var obj any
	if err := codec.JSONPayload.Unmarshal(body, &obj); err != nil {
		return err
	}
	raw, err := codec.Compact(body)
	if err != nil {
		return err
	}

	rejected = false
	// Side effects run to completion even if the caller hangs up.
	ctx := context.WithoutCancel(r.Context())
	rc := NewRequestContext(r, obj)
	rc.Raw = raw
	return d.Dispatch(ctx, rc)
}

// Dispatch invokes every configured handler once per option record, in config
// order. The first failure stops the remaining invocations.
func (d *Dispatcher) Dispatch(ctx context.Context, rc *RequestContext) error {
	for _, e := range d.Config.Entries {
		h := d.lookup(e.Name)
		for i, opts := range e.Options {
			start := time.Now()
			err := h.Handle(ctx, opts, rc)
			hmetrics.ObserveHandler(e.Name, err, time.Since(start))
			if err != nil {
				return &HandlerError{Handler: e.Name, Index: i, Err: err}
			}
		}
	}
	return nil
}

func (d *Dispatcher) lookup(name string) Handler {
	if d.Registry != nil {
		if h, ok := d.Registry.Lookup(name); ok {
			return h
		}
	}
	return Nop
}

func isJSON(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	return err == nil && mt == "application/json"
}
