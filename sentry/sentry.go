package sentry

import (
	"time"

	sentry "github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"retroplayer/config"
)

// Init configures the global sentry client. An empty DSN leaves sentry
// enabled in-process but sends nothing.
func Init(cfg config.SentryConfig) {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Release:          cfg.Release,
		TracesSampleRate: 1.0,
	}); err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	if cfg.DSN == "" {
		log.WithFields(log.Fields{"module": "sentry"}).Info("SENTRY_DSN not set, events will not be sent")
	}
}

// Flush waits up to timeout for buffered events to be delivered.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

func GetSentryGin() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{Repanic: true})
}

func SetContext(name string, value map[string]interface{}) {
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetContext(name, value)
	})
}

func ReportFatal(err error) {
	sentry.CaptureException(err)
	sentry.Flush(2 * time.Second)
}
