// Package sentryhelper gives background work its own Sentry hub so
// breadcrumbs and tags from one task do not leak into another.
package sentryhelper

import (
	"context"

	sentry "github.com/getsentry/sentry-go"
)

type contextKey string

const hubContextKey contextKey = "sentry_hub"

// StartTaskTransaction clones the current hub and starts a transaction on
// it for work that outlives the request that triggered it, such as a
// lyrics lookup running after the track has already started.
func StartTaskTransaction(ctx context.Context, name string, operation string, tags map[string]string) (context.Context, *sentry.Span) {
	hub := sentry.CurrentHub().Clone()
	ctx = context.WithValue(ctx, hubContextKey, hub)
	ctx = sentry.SetHubOnContext(ctx, hub)

	transaction := sentry.StartTransaction(ctx, name,
		sentry.WithOpName(operation),
		sentry.WithTransactionSource(sentry.SourceTask),
	)
	for k, v := range tags {
		transaction.SetTag(k, v)
	}

	hub.Scope().SetSpan(transaction)

	return transaction.Context(), transaction
}

// HubFromContext falls back to the current hub when ctx carries none.
func HubFromContext(ctx context.Context) *sentry.Hub {
	if ctx == nil {
		return sentry.CurrentHub()
	}
	if hub, ok := ctx.Value(hubContextKey).(*sentry.Hub); ok && hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

func AddBreadcrumb(ctx context.Context, category, message string) {
	HubFromContext(ctx).AddBreadcrumb(&sentry.Breadcrumb{
		Category: category,
		Message:  message,
		Level:    sentry.LevelInfo,
	}, nil)
}

func CaptureException(ctx context.Context, err error) *sentry.EventID {
	return HubFromContext(ctx).CaptureException(err)
}

func CaptureMessage(ctx context.Context, message string) *sentry.EventID {
	return HubFromContext(ctx).CaptureMessage(message)
}
