// Package logger constructs the service's zap loggers.
package logger

import (
	"go.uber.org/zap"
)

// New creates a logger appropriate for the environment: human-readable in
// development, JSON in anything else.
func New(appEnv string) (*zap.Logger, error) {
	if appEnv == "development" {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// NewNamed creates an environment-appropriate logger named after the service.
func NewNamed(appEnv, name string) (*zap.Logger, error) {
	log, err := New(appEnv)
	if err != nil {
		return nil, err
	}
	return log.Named(name), nil
}
