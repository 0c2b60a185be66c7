package config

import (
	"context"
	"log/slog"

	intconfig "github.com/leapstack-labs/leapcatalog/internal/config"
)

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// cfgKey is used to store the loaded config in context.
type cfgKey struct{}

// WithLogger returns a context carrying the given logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// WithConfig returns a context carrying the loaded configuration.
func WithConfig(ctx context.Context, cfg *intconfig.Config) context.Context {
	return context.WithValue(ctx, cfgKey{}, cfg)
}

// GetConfig retrieves the loaded configuration from the command context.
func GetConfig(ctx context.Context) *intconfig.Config {
	if c, ok := ctx.Value(cfgKey{}).(*intconfig.Config); ok {
		return c
	}
	return nil
}
