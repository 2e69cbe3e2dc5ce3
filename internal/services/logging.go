package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger *slog.Logger
}

func NewServiceLogger(logger *slog.Logger, service string) *ServiceLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &ServiceLogger{logger: logger.With("service", service)}
}

// Logger returns the underlying service-scoped logger.
func (l *ServiceLogger) Logger() *slog.Logger {
	return l.logger
}

// LogOperation logs the outcome of an operation. Expected failures such as
// validation or missing resources are logged below error level.
func (l *ServiceLogger) LogOperation(ctx context.Context, operation string, userID uint, resourceID uint, resourceType string, duration time.Duration, err error) {
	level := slog.LevelInfo
	status := "success"

	if err != nil {
		level = slog.LevelError
		status = "error"

		switch {
		case IsValidation(err) || IsBusinessRule(err) || IsTypeMismatch(err):
			level = slog.LevelWarn
			status = "validation_error"
		case IsUnauthorized(err):
			level = slog.LevelWarn
			status = "unauthorized"
		case IsNotFound(err):
			status = "not_found"
		case errors.Is(err, context.Canceled):
			level = slog.LevelWarn
			status = "canceled"
		}
	}

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.Uint64("user_id", uint64(userID)),
		slog.Uint64("resource_id", uint64(resourceID)),
		slog.String("resource_type", resourceType),
		slog.String("status", status),
		slog.Duration("duration", duration),
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))

		var validationErr ValidationErrors
		var businessErr *BusinessRuleError
		var permErr *PermissionError
		switch {
		case errors.As(err, &validationErr):
			attrs = append(attrs, slog.Int("validation_errors_count", len(validationErr)))
		case errors.As(err, &businessErr):
			attrs = append(attrs, slog.String("business_rule", businessErr.Rule))
		case errors.As(err, &permErr):
			attrs = append(attrs, slog.String("permission_action", permErr.Action))
		}
	}

	l.logger.LogAttrs(ctx, level, fmt.Sprintf("%s operation %s", operation, status), attrs...)
}

// Track returns a func that logs the operation with its elapsed time.
//
//	defer l.Track(ctx, "sync_exercises", userID, episodeID, "episode")(&err)
func (l *ServiceLogger) Track(ctx context.Context, operation string, userID, resourceID uint, resourceType string) func(*error) {
	start := time.Now()
	return func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		l.LogOperation(ctx, operation, userID, resourceID, resourceType, time.Since(start), err)
	}
}
