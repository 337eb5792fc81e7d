package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LogFilter narrows a log query. Nil / empty fields match everything.
type LogFilter struct {
	Date   *time.Time
	Status string
}

// LogRepository persists and queries delivery log entries.
type LogRepository interface {
	Insert(ctx context.Context, entry *LogEntry) error
	List(ctx context.Context, hospitalID uuid.UUID, filter LogFilter) ([]*LogEntry, error)
}
