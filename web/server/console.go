package server

import (
	"fmt"
	"io"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	RenderID  string    `json:"renderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger by sending messages to a console channel
type WebLogger struct {
	renderID    string
	consoleChan chan<- ConsoleMessage
	mirror      io.Writer
}

// NewWebLogger creates a new web logger for a specific render.
// Messages are also written to mirror when it is not nil.
func NewWebLogger(renderID string, consoleChan chan<- ConsoleMessage, mirror io.Writer) core.Logger {
	return &WebLogger{
		renderID:    renderID,
		consoleChan: consoleChan,
		mirror:      mirror,
	}
}

// Printf implements core.Logger interface
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	if wl.mirror != nil {
		fmt.Fprintf(wl.mirror, "[%s] %s", wl.renderID, message)
	}

	// Send to web console if channel is available (non-blocking)
	if wl.consoleChan != nil {
		select {
		case wl.consoleChan <- ConsoleMessage{
			RenderID:  wl.renderID,
			Message:   message,
			Timestamp: time.Now(),
			Level:     "info",
		}:
		default:
			// Channel full, skip (don't block)
		}
	}
}
