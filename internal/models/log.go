package models

import (
	"time"

	"github.com/sirupsen/logrus"
)

// LogEntry is a recorded log line as shown by the console's log view.
type LogEntry struct {
	Time          time.Time      `json:"time"`
	Level         string         `json:"level"`
	Message       string         `json:"message"`
	CorrelationID string         `json:"correlationId,omitempty"`
	Fields        map[string]any `json:"fields,omitempty"`
}

// NewLogEntry copies entry. Errors are kept as their message so the entry
// stays serialisable.
func NewLogEntry(entry *logrus.Entry) *LogEntry {
	logEntry := &LogEntry{
		Time:    entry.Time,
		Level:   entry.Level.String(),
		Message: entry.Message,
	}

	for key, value := range entry.Data {
		if key == "correlation_id" {
			if id, ok := value.(string); ok {
				logEntry.CorrelationID = id
				continue
			}
		}

		if err, ok := value.(error); ok {
			value = err.Error()
		}

		if logEntry.Fields == nil {
			logEntry.Fields = make(map[string]any, len(entry.Data))
		}
		logEntry.Fields[key] = value
	}

	return logEntry
}
