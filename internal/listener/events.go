package listener

import "time"

// Status texts shown to the user
const (
	StatusInitializing = "Initializing..."
	StatusCalibrating  = "Adjusting for ambient noise..."
	StatusReady        = "Ready! Speak now!"
	StatusListening    = "Listening..."
	StatusProcessing   = "Processing..."
	StatusCaptured     = "Captured segment..."
	StatusWaiting      = "Waiting for question completion…"
	StatusGotIt        = "Got it!"
	StatusServiceError = "Service error, retrying..."
	StatusAudioError   = "Audio error, retrying..."
	StatusError        = "Error, retrying..."
	StatusStopped      = "Stopped listening."
)

// EventKind distinguishes session events
type EventKind int

const (
	EventStatus EventKind = iota
	EventSegment
	EventQuestion
	EventCalibrated
)

// String returns the string representation of the kind
func (k EventKind) String() string {
	switch k {
	case EventStatus:
		return "status"
	case EventSegment:
		return "segment"
	case EventQuestion:
		return "question"
	case EventCalibrated:
		return "calibrated"
	default:
		return "unknown"
	}
}

// Event is an advisory notification for the UI. Delivery is best-effort:
// the dispatcher, not this stream, is the authoritative question sink.
type Event struct {
	Kind   EventKind
	Status string
	State  State

	// Text is the segment for EventSegment and the question for EventQuestion
	Text string

	// Rule is set on EventQuestion
	Rule Rule

	// Threshold is set on EventCalibrated
	Threshold float64

	// Confidence is the recognizer score on EventSegment, 0 when unknown
	Confidence float64

	At time.Time
}
