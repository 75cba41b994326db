package engine

import (
	"io"
	"log/slog"
)

// ============================================================================
// ENGINE OPTIONS — Functional options for New()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Logger      *slog.Logger
	Placeholder string // summary text for questions without data
}

// DefaultPlaceholder is shown for scale questions that have no answers yet.
const DefaultPlaceholder = "no data yet"

// WithLogger routes engine debug logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithPlaceholder sets the text BuildSummary uses for absent values.
func WithPlaceholder(text string) Option {
	return func(c *config) {
		if text != "" {
			c.Placeholder = text
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Placeholder: DefaultPlaceholder,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
