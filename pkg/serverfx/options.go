package serverfx

import (
	"os"
	"strconv"
	"strings"
)

// Environment keys read by FromEnv.
const (
	EnvConfig     = "WEBHOOK_CFG"
	EnvDebug      = "WEBHOOK_DEBUG"
	EnvAllMethods = "WEBHOOK_ALL_METHODS"
	EnvLogDir     = "WEBHOOK_LOG_DIR"
	EnvListen     = "SERVER_LISTEN_ADDRESS"
	EnvTLSCert    = "SSL_SERVER_CERTIFICATE"
	EnvTLSKey     = "SSL_SERVER_KEY"

	DefaultListen = "0.0.0.0:8080"
	DefaultLogDir = "log"
)

// Options configures one webhook server.
type Options struct {
	Service    string // for logs only
	ConfigPath string // handler config file; "" or missing means defaults
	Debug      bool
	AllMethods bool // dispatch GET/PUT/DELETE as well as POST
	ListenAddr string
	LogDir     string
	TLSCert    string
	TLSKey     string
}

// FromEnv fills Options from the process environment.
func FromEnv() Options {
	return Options{
		Service:    "webhook-handler",
		ConfigPath: os.Getenv(EnvConfig),
		Debug:      envBool(EnvDebug),
		AllMethods: envBool(EnvAllMethods),
		ListenAddr: envOr(EnvListen, DefaultListen),
		LogDir:     envOr(EnvLogDir, DefaultLogDir),
		TLSCert:    os.Getenv(EnvTLSCert),
		TLSKey:     os.Getenv(EnvTLSKey),
	}
}

// ---- helpers ----

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// envBool accepts strconv.ParseBool spellings; any other non-empty value is true.
func envBool(k string) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return true
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
