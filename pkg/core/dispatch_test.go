package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joeydtaylor/webhook-handler/pkg/manifest"
	"github.com/joeydtaylor/webhook-handler/pkg/middleware/logger"
	httpx "github.com/joeydtaylor/webhook-handler/pkg/transport/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type call struct {
	handler string
	opts    manifest.Options
	rc      *RequestContext
}

type recorder struct {
	calls []call
}

func (r *recorder) handler(name string, err error) Handler {
	return HandlerFunc(func(_ context.Context, opts manifest.Options, rc *RequestContext) error {
		r.calls = append(r.calls, call{handler: name, opts: opts, rc: rc})
		return err
	})
}

func (r *recorder) names() []string {
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.handler)
	}
	return out
}

type fixture struct {
	rec  *recorder
	logs *observer.ObservedLogs
	mux  http.Handler
}

func newFixture(t *testing.T, cfg manifest.Config, debug, allMethods bool, failing map[string]error) *fixture {
	t.Helper()
	rec := &recorder{}
	reg := NewRegistry()
	for _, name := range []string{"print", "dump", "run"} {
		reg.Register(name, rec.handler(name, failing[name]))
	}
	reg.Register("null", Nop)

	core, logs := observer.New(zapcore.DebugLevel)
	d := NewDispatcher(cfg, reg, zap.New(core), debug)
	mux := BuildRouter(BuildDeps{
		Dispatcher: d,
		LogMW:      logger.NewMiddleware(zap.NewNop(), debug),
		Metrics:    http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("metrics")) }),
		Router:     httpx.NewChi(),
		AllMethods: allMethods,
	})
	return &fixture{rec: rec, logs: logs, mux: mux}
}

func (f *fixture) do(method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	f.mux.ServeHTTP(rr, req)
	return rr
}

func cfgOf(entries ...manifest.Entry) manifest.Config { return manifest.Config{Entries: entries} }

func entry(name string, n int) manifest.Entry {
	opts := make([]manifest.Options, n)
	for i := range opts {
		opts[i] = manifest.Options{"i": i}
	}
	return manifest.Entry{Name: name, Options: opts}
}

func assertOK(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK\n", rr.Body.String())
}

func TestDispatch_InvokesOncePerOptionRecordInOrder(t *testing.T) {
	f := newFixture(t, cfgOf(entry("run", 1), entry("print", 2), entry("dump", 1)), false, false, nil)

	rr := f.do(http.MethodPost, "/deploy/site", "application/json", `{"repository":{"name":"site"}}`)
	assertOK(t, rr)

	assert.Equal(t, []string{"run", "print", "print", "dump"}, f.rec.names())
	assert.Equal(t, 0, f.rec.calls[1].opts["i"])
	assert.Equal(t, 1, f.rec.calls[2].opts["i"])

	rc := f.rec.calls[0].rc
	assert.Equal(t, "POST", rc.Method)
	assert.Equal(t, "deploy/site", rc.Path)
	assert.Equal(t, "application/json", rc.Headers.Get("Content-Type"))
	assert.Equal(t, map[string]any{"repository": map[string]any{"name": "site"}}, rc.Obj)
}

func TestDispatch_RawBodyKeepsKeyOrder(t *testing.T) {
	f := newFixture(t, cfgOf(entry("dump", 1)), false, false, nil)

	assertOK(t, f.do(http.MethodPost, "/", "application/json", "{\n  \"z\": 1,\n  \"a\": {\"y\": 2.50, \"b\": [1, 2]}\n}\n"))
	require.Len(t, f.rec.calls, 1)

	rc := f.rec.calls[0].rc
	assert.Equal(t, `{"z":1,"a":{"y":2.50,"b":[1,2]}}`, string(rc.Raw))
	body, err := rc.Body()
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":{"y":2.50,"b":[1,2]}}`, string(body))
}

func TestDispatch_ContentTypeParameters(t *testing.T) {
	f := newFixture(t, cfgOf(entry("print", 1)), false, false, nil)

	assertOK(t, f.do(http.MethodPost, "/", "Application/JSON; charset=utf-8", `[]`))
	assert.Len(t, f.rec.calls, 1)
}

func TestDispatch_RejectsWithoutSideEffects(t *testing.T) {
	cases := []struct {
		name, contentType, body string
	}{
		{"non-json content type", "text/plain", `{"a":1}`},
		{"form content type", "application/x-www-form-urlencoded", "a=1"},
		{"missing content type", "", `{"a":1}`},
		{"malformed json", "application/json", `{"a":`},
		{"empty body", "application/json", ""},
		{"trailing data", "application/json", `{"a":1} x`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, cfgOf(entry("print", 1)), true, false, nil)

			assertOK(t, f.do(http.MethodPost, "/hook", tc.contentType, tc.body))
			assert.Empty(t, f.rec.calls)
			assert.Equal(t, 1, f.logs.FilterMessage("webhook dispatch failed").Len())
		})
	}
}

func TestDispatch_EmptyConfig(t *testing.T) {
	f := newFixture(t, manifest.Config{}, true, false, nil)

	assertOK(t, f.do(http.MethodPost, "/", "application/json", `{"a":1}`))
	assert.Empty(t, f.rec.calls)
	assert.Zero(t, f.logs.Len())
}

func TestDispatch_FailureAbortsLaterInvocations(t *testing.T) {
	boom := errors.New("boom")
	f := newFixture(t, cfgOf(entry("print", 1), entry("run", 2), entry("dump", 1)), true, false,
		map[string]error{"run": boom})

	assertOK(t, f.do(http.MethodPost, "/", "application/json", `{}`))
	assert.Equal(t, []string{"print", "run"}, f.rec.names())

	entries := f.logs.FilterMessage("webhook dispatch failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "handler run[0]: boom", entries[0].ContextMap()["error"])
}

func TestDispatch_ErrorsSilentWithoutDebug(t *testing.T) {
	f := newFixture(t, cfgOf(entry("print", 1)), false, false,
		map[string]error{"print": errors.New("boom")})

	assertOK(t, f.do(http.MethodPost, "/", "application/json", `{}`))
	assertOK(t, f.do(http.MethodPost, "/", "text/plain", `{}`))
	assert.Zero(t, f.logs.Len())
}

func TestDispatch_RecoversPanics(t *testing.T) {
	reg := NewRegistry()
	reg.Register("print", HandlerFunc(func(context.Context, manifest.Options, *RequestContext) error {
		panic("kaboom")
	}))
	core, logs := observer.New(zapcore.DebugLevel)
	d := NewDispatcher(cfgOf(entry("print", 1)), reg, zap.New(core), true)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	d.ServeHTTP(rr, req)

	assertOK(t, rr)
	entries := logs.FilterMessage("webhook dispatch failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "handler panic: kaboom", entries[0].ContextMap()["error"])
}

func TestDispatch_UnknownNameIsNoop(t *testing.T) {
	f := newFixture(t, cfgOf(entry("email", 1), entry("null", 3), entry("print", 1)), true, false, nil)

	assertOK(t, f.do(http.MethodPost, "/", "application/json", `{}`))
	assert.Equal(t, []string{"print"}, f.rec.names())
	assert.Zero(t, f.logs.Len())
}

func TestDispatch_HandlerErrorUnwraps(t *testing.T) {
	boom := errors.New("boom")
	reg := NewRegistry()
	reg.Register("run", HandlerFunc(func(context.Context, manifest.Options, *RequestContext) error { return boom }))
	d := NewDispatcher(cfgOf(entry("run", 1)), reg, nil, false)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	err := d.Dispatch(context.Background(), NewRequestContext(req, nil))

	var he *HandlerError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "run", he.Handler)
	assert.Equal(t, 0, he.Index)
	assert.ErrorIs(t, err, boom)
}

func TestRouter_PostOnlyAcknowledgesOtherMethods(t *testing.T) {
	f := newFixture(t, cfgOf(entry("print", 1)), false, false, nil)

	for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		assertOK(t, f.do(m, "/hook", "application/json", `{}`))
	}
	assert.Empty(t, f.rec.calls)
}

func TestRouter_AllMethodsDispatch(t *testing.T) {
	f := newFixture(t, cfgOf(entry("print", 1)), false, true, nil)

	for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
		assertOK(t, f.do(m, "/hook", "application/json", `{}`))
	}
	require.Len(t, f.rec.calls, 4)
	assert.Equal(t, "DELETE", f.rec.calls[3].rc.Method)
}

func TestRouter_OtherMethodsNotAllowed(t *testing.T) {
	f := newFixture(t, cfgOf(entry("print", 1)), false, true, nil)

	rr := f.do(http.MethodPatch, "/hook", "application/json", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Empty(t, f.rec.calls)
}

func TestRouter_PingAndMetrics(t *testing.T) {
	f := newFixture(t, manifest.Config{}, false, false, nil)

	rr := f.do(http.MethodGet, "/ping", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ".", rr.Body.String())

	rr = f.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, "metrics", rr.Body.String())
}

func TestRouter_RootPath(t *testing.T) {
	f := newFixture(t, cfgOf(entry("print", 1)), false, false, nil)

	assertOK(t, f.do(http.MethodPost, "/", "application/json", `{}`))
	require.Len(t, f.rec.calls, 1)
	assert.Equal(t, "", f.rec.calls[0].rc.Path)
}
