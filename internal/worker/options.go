package worker

import (
	"io"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
)

type Options struct {
	// BufferSize is the capacity of the shared stream between the dedup gate
	// and the consumers.
	BufferSize int `validate:"min=1,max=100000"`

	// Prefetch is how many rows each publisher poll may pull at once.
	Prefetch int `validate:"min=1,max=10000"`

	// NumConsumers is the number of goroutines draining the shared stream.
	NumConsumers int `validate:"min=1,max=1024"`

	MinSchedulerSleep time.Duration `validate:"min=0"`
	MaxSchedulerSleep time.Duration `validate:"min=0"`
	MinRecoverySleep  time.Duration `validate:"min=0"`
	MaxRecoverySleep  time.Duration `validate:"min=0"`

	// RecoveryThreshold is how stale a non-terminal jobs row must be before
	// the recovery publisher picks it up.
	RecoveryThreshold time.Duration `validate:"min=0"`

	// Logger receives all worker logging. Defaults to a discard logger.
	Logger *slog.Logger

	// ErrFn receives handler and pipeline errors. Panics it raises are
	// swallowed. Defaults to a no-op.
	ErrFn func(error)
}

func (o Options) withDefaults() Options {
	if o.BufferSize == 0 {
		o.BufferSize = 10
	}
	if o.Prefetch == 0 {
		o.Prefetch = 10
	}
	if o.NumConsumers == 0 {
		o.NumConsumers = 2
	}
	if o.MaxSchedulerSleep == 0 {
		o.MaxSchedulerSleep = 10 * time.Second
	}
	if o.MaxRecoverySleep == 0 {
		o.MaxRecoverySleep = 10 * time.Second
	}
	if o.RecoveryThreshold == 0 {
		o.RecoveryThreshold = 20 * time.Minute
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.ErrFn == nil {
		o.ErrFn = func(error) {}
	}
	return o
}

func (o Options) validate() error {
	return validator.New().Struct(o)
}
