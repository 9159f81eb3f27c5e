package speech

import "context"

// ResultReason is the final state an engine reports for one synthesis call.
type ResultReason int

const (
	ReasonCompleted ResultReason = iota + 1
	ReasonCanceled
)

func (r ResultReason) String() string {
	switch r {
	case ReasonCompleted:
		return "SynthesizingAudioCompleted"
	case ReasonCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// CancellationReason explains why the engine canceled a synthesis.
type CancellationReason string

const (
	CancellationError       CancellationReason = "Error"
	CancellationEndOfStream CancellationReason = "EndOfStream"
)

// CancellationDetails accompanies a canceled result.
type CancellationDetails struct {
	Reason       CancellationReason
	ErrorCode    int
	ErrorDetails string
}

// Result is what the engine returned for a completed or canceled call.
type Result struct {
	Reason       ResultReason
	Audio        []byte
	Cancellation *CancellationDetails
}

// Engine turns an SSML document into encoded audio. A returned error means
// the call failed in a way that may succeed on retry; a canceled Result means
// the engine refused the request and retrying will not help.
type Engine interface {
	SpeakSSML(ctx context.Context, ssml string) (Result, error)
}
