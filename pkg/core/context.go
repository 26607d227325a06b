package core

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/joeydtaylor/webhook-handler/pkg/codec"
)

// RequestContext is the per-request template source handed to every handler.
// It is built fresh for each request and never shared.
type RequestContext struct {
	Env     map[string]string
	Obj     any
	Raw     json.RawMessage // compact body, original key order
	Request *http.Request
	Method  string
	Path    string
	Headers http.Header
}

// NewRequestContext snapshots the environment and captures the request fields.
func NewRequestContext(r *http.Request, obj any) *RequestContext {
	return &RequestContext{
		Env:     environ(),
		Obj:     obj,
		Request: r,
		Method:  r.Method,
		Path:    strings.TrimPrefix(r.URL.Path, "/"),
		Headers: r.Header,
	}
}

// Body is the request body as compact JSON. It falls back to encoding Obj when
// the context was built without the raw body.
func (rc *RequestContext) Body() ([]byte, error) {
	if rc.Raw != nil {
		return []byte(rc.Raw), nil
	}
	return codec.JSONPayload.Marshal(rc.Obj)
}

// Vars exposes the context under the names usable in templates.
func (rc *RequestContext) Vars() map[string]any {
	vars := map[string]any{
		"env":     rc.Env,
		"obj":     rc.Obj,
		"method":  rc.Method,
		"path":    rc.Path,
		"headers": rc.Headers,
	}
	if r := rc.Request; r != nil {
		vars["req"] = map[string]any{
			"method":      r.Method,
			"uri":         r.RequestURI,
			"host":        r.Host,
			"remote_addr": r.RemoteAddr,
			"proto":       r.Proto,
			"path":        r.URL.Path,
			"query":       r.URL.RawQuery,
		}
	}
	return vars
}

func environ() map[string]string {
	kv := os.Environ()
	out := make(map[string]string, len(kv))
	for _, e := range kv {
		if k, v, ok := strings.Cut(e, "="); ok {
			out[k] = v
		}
	}
	return out
}
