package task

import "sync"

// EventType identifies the type of a progress stream event.
type EventType string

// Stream event types. A stream carries zero or more progress events
// followed by exactly one terminal event (done or error).
const (
	EventProgress EventType = "progress"
	EventDone     EventType = "done"
	EventError    EventType = "error"
)

// Event is a single entry in a progress stream.
type Event struct {
	Type EventType `json:"type"`

	// Progress is a 0-100 percentage, set for progress events.
	Progress int `json:"progress,omitempty"`

	// Text is a short human-readable status phrase, set for progress events.
	Text string `json:"text,omitempty"`

	// ResultID identifies the produced record, set for done events.
	ResultID string `json:"result_id,omitempty"`

	// Message describes the failure, set for error events.
	Message string `json:"message,omitempty"`
}

// ProgressSink receives checkpoints from the execution engine. Exactly one
// of Done or Fail is called, after which further calls are ignored.
type ProgressSink interface {
	// Progress reports a checkpoint as a percentage and a status phrase.
	Progress(pct int, text string)

	// Done reports successful completion with the ID of the produced record.
	Done(resultID string)

	// Fail reports terminal failure with a human-readable message.
	Fail(message string)
}

// Stream is a ProgressSink whose events can be consumed over a channel.
// It guarantees ordered delivery and exactly one terminal event. The
// engine never blocks on a slow or departed consumer: progress events are
// dropped when the buffer is full, because the task store carries the
// authoritative state and a later poll recovers the true outcome.
type Stream struct {
	ch     chan Event
	mu     sync.Mutex
	closed bool
}

// NewStream creates a stream with the given event buffer size.
func NewStream(buffer int) *Stream {
	if buffer <= 0 {
		buffer = 16
	}
	return &Stream{ch: make(chan Event, buffer)}
}

// Events returns the channel to consume stream events from. The channel is
// closed immediately after the terminal event.
func (s *Stream) Events() <-chan Event {
	return s.ch
}

// Progress implements ProgressSink.
func (s *Stream) Progress(pct int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- Event{Type: EventProgress, Progress: pct, Text: text}:
	default:
		// Consumer is slow or gone; drop the checkpoint rather than stall
		// the engine.
	}
}

// Done implements ProgressSink.
func (s *Stream) Done(resultID string) {
	s.terminate(Event{Type: EventDone, ResultID: resultID})
}

// Fail implements ProgressSink.
func (s *Stream) Fail(message string) {
	s.terminate(Event{Type: EventError, Message: message})
}

func (s *Stream) terminate(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	select {
	case s.ch <- ev:
	default:
		// Buffer full: drain one progress event to make room so the
		// terminal event is never lost.
		select {
		case <-s.ch:
		default:
		}
		s.ch <- ev
	}
	close(s.ch)
}

// DiscardSink ignores all checkpoints. The dispatcher and run-now paths use
// it; clients observe those runs by polling the task store.
type DiscardSink struct{}

// Progress does nothing.
func (DiscardSink) Progress(pct int, text string) {}

// Done does nothing.
func (DiscardSink) Done(resultID string) {}

// Fail does nothing.
func (DiscardSink) Fail(message string) {}
