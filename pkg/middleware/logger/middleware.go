package logger

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// maxLoggedBody caps request bodies copied into the access log.
const maxLoggedBody = 1 << 16 // 64 KiB

// Middleware writes one access-log line per request.
type Middleware struct {
	access  *zap.Logger
	logBody bool
}

// NewMiddleware logs to l. When logBody is set, small JSON request bodies are
// included in the log line.
func NewMiddleware(l *zap.Logger, logBody bool) *Middleware {
	if l == nil {
		l = zap.NewNop()
	}
	return &Middleware{access: l, logBody: logBody}
}

func (m *Middleware) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimd.NewWrapResponseWriter(w, r.ProtoMajor)

			// Peek at most maxLoggedBody+1 bytes and replay them ahead of the rest
			// so downstream still reads the whole body.
			var body []byte
			if m.logBody && r.Body != nil {
				head, err := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
				r.Body = replayBody{Reader: io.MultiReader(bytes.NewReader(head), r.Body), Closer: r.Body}
				if err == nil {
					body = head
				}
			}

			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}

			start := time.Now()
			defer func() {
				log := m.access.With(
					zap.String("dateTime", start.UTC().Format(time.RFC1123)),
					zap.String("requestId", chimd.GetReqID(r.Context())),
					zap.String("httpScheme", scheme),
					zap.String("httpProto", r.Proto),
					zap.String("httpMethod", r.Method),
					zap.String("remoteAddr", r.RemoteAddr),
					zap.String("uri", r.URL.Path),
					zap.String("contentType", r.Header.Get("Content-Type")),
					zap.Duration("lat", time.Since(start)),
					zap.Int("responseSize", ww.BytesWritten()),
					zap.Int("status", ww.Status()),
				)

				if shouldLogBody(r, body) {
					log.Info("request", zap.ByteString("requestData", body))
				} else {
					log.Info("request")
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// replayBody reads a peeked prefix followed by the unread body and closes the
// original body.
type replayBody struct {
	io.Reader
	io.Closer
}

// Only small JSON bodies on write methods are logged.
func shouldLogBody(r *http.Request, body []byte) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		return false
	}
	if len(body) == 0 || len(body) > maxLoggedBody {
		return false
	}
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}
