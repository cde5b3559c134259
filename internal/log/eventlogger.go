package log

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// EventLogger records raw, untranslated input events for offline analysis
// of the hardware's non-standard codes. One line per event.
type EventLogger interface {
	Event(source string, evType, code uint16, value int32)
}

type eventLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewEventLogger wraps a writer. A nil writer yields a no-op logger.
func NewEventLogger(w io.Writer) EventLogger {
	return &eventLogger{w: w}
}

func (l *eventLogger) Event(source string, evType, code uint16, value int32) {
	if l.w == nil {
		return
	}
	line := fmt.Sprintf("%s %s type=%#04x code=%#04x value=%d\n",
		time.Now().Format("2006/01/02 15:04:05.000"), source, evType, code, value)
	l.mu.Lock()
	_, _ = l.w.Write([]byte(line))
	l.mu.Unlock()
}
