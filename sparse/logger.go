package sparse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ScalarEvent is one logged scalar record.
type ScalarEvent struct {
	Tag   string  `json:"tag"`
	Value float64 `json:"value"`
	Step  int     `json:"step"`
}

// =============================================================================
// Example Logger Implementations
// =============================================================================

// ConsoleLogger prints scalar records to stdout, one line each.
type ConsoleLogger struct{}

func (l *ConsoleLogger) Name() string { return "console" }

func (l *ConsoleLogger) LogScalar(tag string, value float64, step int) {
	fmt.Printf("[SPARSE] %s: %.4f (step %d)\n", tag, value, step)
}

// ChannelLogger sends scalar records to a Go channel (for internal
// processing). Sends never block: when the channel is full the record is
// dropped rather than stalling the training loop.
type ChannelLogger struct {
	Events chan ScalarEvent
}

func NewChannelLogger(bufferSize int) *ChannelLogger {
	return &ChannelLogger{
		Events: make(chan ScalarEvent, bufferSize),
	}
}

func (l *ChannelLogger) Name() string { return "channel" }

func (l *ChannelLogger) LogScalar(tag string, value float64, step int) {
	select {
	case l.Events <- ScalarEvent{Tag: tag, Value: value, Step: step}:
	default:
		// Channel full, drop record to avoid blocking
	}
}

// HTTPLogger posts scalar records to an HTTP endpoint (for visualization).
type HTTPLogger struct {
	URL     string
	Timeout time.Duration
	client  *http.Client
}

func NewHTTPLogger(url string) *HTTPLogger {
	return &HTTPLogger{
		URL:     url,
		Timeout: 100 * time.Millisecond, // Fast timeout to not block training
		client: &http.Client{
			Timeout: 100 * time.Millisecond,
		},
	}
}

func (l *HTTPLogger) Name() string { return "http" }

func (l *HTTPLogger) LogScalar(tag string, value float64, step int) {
	data, err := json.Marshal(ScalarEvent{Tag: tag, Value: value, Step: step})
	if err != nil {
		return
	}

	// Fire and forget (non-blocking)
	go func() {
		resp, err := l.client.Post(l.URL, "application/json", bytes.NewReader(data))
		if err == nil && resp != nil {
			resp.Body.Close()
		}
	}()
}

// filterLoggers keeps the loggers whose names the selection allows. A zero
// selection allows everything.
func filterLoggers(loggers []Logger, allowed Selection) []Logger {
	if allowed.IsZero() || allowed.All() {
		return loggers
	}
	kept := make([]Logger, 0, len(loggers))
	for _, l := range loggers {
		if allowed.Contains(l.Name()) {
			kept = append(kept, l)
		}
	}
	return kept
}
