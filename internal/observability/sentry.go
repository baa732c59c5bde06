package observability

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tickerbell/ticket-service/internal/config"
)

// InitSentry enables error reporting when a DSN is configured.
func InitSentry(cfg config.SentryConfig, app config.AppConfig) error {
	if cfg.DSN == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      app.Env,
		Release:          app.Version,
		AttachStacktrace: true,
	})
}

// FlushSentry waits for buffered events to be sent.
func FlushSentry() {
	sentry.Flush(2 * time.Second)
}

// CaptureError reports err with request tags. It is a no-op until
// InitSentry succeeds.
func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}
