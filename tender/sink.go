package tender

import "log/slog"

// EventType tags a progress event.
type EventType string

const (
	EventLog      EventType = "log"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one unit of the progress narration for an orchestrator run.
// Any number of log events may precede exactly one terminal complete or
// error event.
type Event struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`
	Results []Record  `json:"results,omitempty"`
}

// Sink receives progress events for one orchestrator run, in exactly the
// order they are emitted. Single producer, single consumer, no batching.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event. Used by callers that only want the
// orchestrator's return value.
var Discard Sink = SinkFunc(func(Event) {})

// NewLogSink returns a sink that converts every event to a slog line.
// Scheduled runs have no connected caller, so their narration goes to the
// process log instead.
func NewLogSink(logger *slog.Logger) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return SinkFunc(func(e Event) {
		switch e.Type {
		case EventComplete:
			logger.Info("search: complete", "records", len(e.Results))
		case EventError:
			logger.Error("search: failed", "error", e.Message)
		default:
			logger.Info("search: progress", "message", e.Message)
		}
	})
}
