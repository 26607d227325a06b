package core

import (
	"net/http"

	chimd "github.com/go-chi/chi/v5/middleware"
	hmetrics "github.com/joeydtaylor/webhook-handler/pkg/middleware/metrics"
)

// webhookPath matches every path; the path itself is handed to templates.
const webhookPath = "/*"

func BuildRouter(d BuildDeps) http.Handler {
	r := d.Router
	r.Use(chimd.RequestID, chimd.Recoverer, chimd.Heartbeat("/ping"))
	if d.LogMW != nil {
		r.Use(d.LogMW.Middleware())
	}
	r.Use(hmetrics.Collect())

	r.MethodNotAllowed(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}))

	if d.Metrics != nil {
		r.Get("/metrics", d.Metrics)
	}

	var other http.Handler = http.HandlerFunc(acknowledge)
	if d.AllMethods {
		other = d.Dispatcher
	}
	r.Post(webhookPath, d.Dispatcher)
	r.Get(webhookPath, other)
	r.Put(webhookPath, other)
	r.Delete(webhookPath, other)

	return r.Mux()
}
