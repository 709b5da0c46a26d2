package utils

import (
	"context"
	"time"
)

const (
	// DefaultTimeout caps single document operations, including the atomic
	// blob-pair store after an index rebuild.
	DefaultTimeout = 10 * time.Second

	// LongTimeout caps multi-document work such as rendering a chat export.
	LongTimeout = 30 * time.Second

	// ShortTimeout caps lookups that only decorate a response, like the
	// onboarding profile read behind tutor persona selection.
	ShortTimeout = 2 * time.Second
)

func WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultTimeout)
}

func WithLongTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, LongTimeout)
}

func WithShortTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, ShortTimeout)
}
