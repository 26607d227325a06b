package core

import "net/http"

const okBody = "OK\n"

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(okBody))
}

// acknowledge answers without dispatching; used for methods that are not enabled.
func acknowledge(w http.ResponseWriter, _ *http.Request) { writeOK(w) }
