package models

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewLogEntry(t *testing.T) {
	now := time.Now()

	entry := &logrus.Entry{
		Time:    now,
		Level:   logrus.WarnLevel,
		Message: "Failed to refresh profile",
		Data: logrus.Fields{
			"correlation_id": "abc-123",
			logrus.ErrorKey:  errors.New("token expired"),
			"username":       "alice",
		},
	}

	logEntry := NewLogEntry(entry)

	assert.Equal(t, now, logEntry.Time)
	assert.Equal(t, "warning", logEntry.Level)
	assert.Equal(t, "Failed to refresh profile", logEntry.Message)
	assert.Equal(t, "abc-123", logEntry.CorrelationID)
	assert.Equal(t, map[string]any{
		"error":    "token expired",
		"username": "alice",
	}, logEntry.Fields)

	// The entry does not share the logger's map
	entry.Data["username"] = "bob"
	assert.Equal(t, "alice", logEntry.Fields["username"])
}

func TestNewLogEntry_NoFields(t *testing.T) {
	logEntry := NewLogEntry(&logrus.Entry{Level: logrus.InfoLevel, Message: "Signed out"})

	assert.Equal(t, "info", logEntry.Level)
	assert.Nil(t, logEntry.Fields)
	assert.Empty(t, logEntry.CorrelationID)
}
