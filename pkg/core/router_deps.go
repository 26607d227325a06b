package core

import (
	"net/http"

	"github.com/joeydtaylor/webhook-handler/pkg/middleware/logger"
	httpx "github.com/joeydtaylor/webhook-handler/pkg/transport/httpx"
)

type BuildDeps struct {
	Dispatcher http.Handler
	LogMW      *logger.Middleware
	Metrics    http.Handler
	Router     httpx.Router
	// AllMethods dispatches GET, PUT and DELETE too; otherwise only POST does.
	AllMethods bool
}
