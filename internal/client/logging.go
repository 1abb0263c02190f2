package client

import (
	"log/slog"
	"time"

	"github.com/raphaelgruber/helpdesk-go/internal/models"
)

// maxLogLen is the maximum length of a logged request summary.
const maxLogLen = 200

// slowCallThreshold is the duration above which successful calls are
// logged at WARN level.
const slowCallThreshold = 5 * time.Second

// logCall records the outcome of one backend call.
// Failures log at WARN, slow calls at WARN, everything else at DEBUG.
func logCall(logger *slog.Logger, op, requestID, conversationID string, duration time.Duration, summary string, err error) {
	attrs := []any{
		"op", op,
		"request_id", requestID,
		"duration_ms", duration.Milliseconds(),
	}
	if conversationID != "" {
		attrs = append(attrs, "conversation_id", conversationID)
	}
	if summary != "" {
		attrs = append(attrs, "request", models.Truncate(summary, maxLogLen))
	}

	switch {
	case err != nil:
		attrs = append(attrs, "kind", Classify(err).String(), "error", err.Error())
		logger.Warn("backend call failed", attrs...)
	case duration > slowCallThreshold:
		logger.Warn("slow backend call", attrs...)
	default:
		logger.Debug("backend call completed", attrs...)
	}
}
