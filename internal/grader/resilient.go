package grader

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// ResilientGrader retries transient grader failures and stops calling the
// grader for a while after repeated failures.
type ResilientGrader struct {
	grader         FreeResponseGrader
	circuitBreaker circuitbreaker.CircuitBreaker[*Verdict]
	retrier        retry.Retry[*Verdict]
	logger         *slog.Logger
}

// ResilientConfig holds configuration for the resilient grader wrapper
type ResilientConfig struct {
	MaxAttempts      int
	InitialDelay     time.Duration
	MaxDelay         time.Duration
	FailureThreshold int
	OpenTimeout      time.Duration
	Logger           *slog.Logger
}

// DefaultResilientConfig returns defaults tuned for a chat completions API
func DefaultResilientConfig(logger *slog.Logger) ResilientConfig {
	return ResilientConfig{
		MaxAttempts:      3,
		InitialDelay:     500 * time.Millisecond,
		MaxDelay:         5 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		Logger:           logger,
	}
}

func NewResilientGrader(grader FreeResponseGrader, cfg ResilientConfig) *ResilientGrader {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rg := &ResilientGrader{
		grader: grader,
		logger: logger,
	}

	rg.circuitBreaker = circuitbreaker.New[*Verdict](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= cfg.FailureThreshold
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			rg.logger.Warn("Grader circuit breaker state change",
				"from", from.String(),
				"to", to.String())
		},
	})

	rg.retrier = retry.New[*Verdict](retry.Config{
		MaxAttempts:   cfg.MaxAttempts,
		InitialDelay:  cfg.InitialDelay,
		MaxDelay:      cfg.MaxDelay,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable:   IsRetryable,
	})

	return rg
}

func (r *ResilientGrader) Grade(ctx context.Context, req *Request) (*Verdict, error) {
	return r.circuitBreaker.Execute(ctx, func(ctx context.Context) (*Verdict, error) {
		return r.retrier.Do(ctx, func(ctx context.Context) (*Verdict, error) {
			return r.grader.Grade(ctx, req)
		})
	})
}

// IsRetryable reports whether err is a transient API failure. Malformed
// verdicts are never retried.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrMalformedVerdict) {
		return false
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	switch apiErr.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
