package config

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/inkpress/desk/internal/models"
)

const defaultLogBufferSize = 500

// deskLogger is a logrus hook that keeps the most recent entries in a ring
// buffer so the console can show them.
type deskLogger struct {
	eventBuffer []*models.LogEntry
	maxSize     int
	currentPos  int
	isFull      bool
	mu          sync.RWMutex
}

func newDeskLogger(size int) *deskLogger {
	if size <= 0 {
		size = defaultLogBufferSize
	}
	return &deskLogger{
		eventBuffer: make([]*models.LogEntry, size),
		maxSize:     size,
	}
}

// installLogBuffer makes hook the only ring buffer on the standard logger.
// Buffers from earlier loads are dropped, other hooks are kept.
func installLogBuffer(hook *deskLogger) {
	hooks := make(logrus.LevelHooks)
	for level, registered := range logrus.StandardLogger().Hooks {
		for _, h := range registered {
			if _, ok := h.(*deskLogger); ok {
				continue
			}
			hooks[level] = append(hooks[level], h)
		}
	}
	hooks.Add(hook)
	logrus.StandardLogger().ReplaceHooks(hooks)
}

func (t *deskLogger) Fire(entry *logrus.Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.eventBuffer[t.currentPos] = models.NewLogEntry(entry)
	t.currentPos = (t.currentPos + 1) % t.maxSize

	if t.currentPos == 0 {
		t.isFull = true
	}

	return nil
}

func (t *deskLogger) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
		logrus.InfoLevel,
	}
}

// GetEvents returns the buffered entries, oldest first.
func (t *deskLogger) GetEvents() []*models.LogEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.isFull {
		result := make([]*models.LogEntry, t.currentPos)
		copy(result, t.eventBuffer[:t.currentPos])
		return result
	}

	result := make([]*models.LogEntry, t.maxSize)
	copy(result, t.eventBuffer[t.currentPos:])
	copy(result[t.maxSize-t.currentPos:], t.eventBuffer[:t.currentPos])
	return result
}

func (t *deskLogger) GetRecentEvents(count int) []*models.LogEntry {
	events := t.GetEvents()
	if count <= 0 || len(events) <= count {
		return events
	}
	return events[len(events)-count:]
}
