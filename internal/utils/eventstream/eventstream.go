// Package eventstream defines the typed progress events emitted by a bulk
// import job and their wire framing as server-sent events. The codec is kept
// separate from the ingestion logic so it can be tested against crafted byte
// chunks on its own.
package eventstream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-contrib/sse"

	"github.com/kobisoft/mutabakat_app/internal/core/domain"
)

// Kind enumerates the event kinds of the progress protocol. A stream is
// always: one total, zero or more progress, then exactly one complete or
// error. Anything after a terminal event is a protocol violation.
type Kind string

const (
	KindTotal    Kind = "total"
	KindProgress Kind = "progress"
	KindComplete Kind = "complete"
	KindError    Kind = "error"
)

// IsTerminal reports whether the kind ends the stream.
func (k Kind) IsTerminal() bool {
	return k == KindComplete || k == KindError
}

// TotalPayload announces the row count before processing starts.
type TotalPayload struct {
	Total int `json:"total"`
}

// ProgressPayload reports incremental ingestion state. Percent is
// monotonically non-decreasing and reaches exactly 100 at completion.
type ProgressPayload struct {
	Index    int `json:"index"` // 1-based index of the last processed row
	Total    int `json:"total"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Percent  int `json:"percent"`
}

// CompletePayload carries the final job summary.
type CompletePayload struct {
	Summary domain.ImportSummary `json:"summary"`
}

// ErrorPayload ends a stream on a fatal ingestion failure. Rows already
// committed stay committed.
type ErrorPayload struct {
	ErrorKind string `json:"errorKind"`
	Message   string `json:"message"`
}

// Event is one element of the progress stream.
type Event struct {
	Kind Kind
	Data any
}

// Total, Progress, Complete and Error build well-formed events.
func Total(total int) Event {
	return Event{Kind: KindTotal, Data: TotalPayload{Total: total}}
}

func Progress(index, total, accepted, rejected int) Event {
	percent := 0
	if total > 0 {
		percent = index * 100 / total
	}
	return Event{Kind: KindProgress, Data: ProgressPayload{
		Index:    index,
		Total:    total,
		Accepted: accepted,
		Rejected: rejected,
		Percent:  percent,
	}}
}

func Complete(summary domain.ImportSummary) Event {
	return Event{Kind: KindComplete, Data: CompletePayload{Summary: summary}}
}

func Error(errorKind, message string) Event {
	return Event{Kind: KindError, Data: ErrorPayload{ErrorKind: errorKind, Message: message}}
}

// Writer frames events as SSE onto an io.Writer, flushing after each frame
// when the writer supports it.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w for event emission.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write encodes one event as an SSE frame. Payloads are JSON-encoded so the
// decoder can round-trip them.
func (sw *Writer) Write(ev Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", ev.Kind, err)
	}
	if err := sse.Encode(sw.w, sse.Event{
		Event: string(ev.Kind),
		Data:  string(data),
	}); err != nil {
		return fmt.Errorf("failed to write %s frame: %w", ev.Kind, err)
	}
	if f, ok := sw.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// Decode parses a byte stream of SSE frames back into typed events. Unknown
// event kinds fail decoding; a payload that does not match its kind's shape
// fails decoding.
func Decode(r io.Reader) ([]Event, error) {
	frames, err := sse.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sse frames: %w", err)
	}

	events := make([]Event, 0, len(frames))
	for _, frame := range frames {
		raw, ok := frame.Data.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected frame data type %T", frame.Data)
		}
		ev, err := decodeOne(Kind(frame.Event), []byte(raw))
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func decodeOne(kind Kind, data []byte) (Event, error) {
	switch kind {
	case KindTotal:
		var p TotalPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return Event{}, fmt.Errorf("bad total payload: %w", err)
		}
		return Event{Kind: kind, Data: p}, nil
	case KindProgress:
		var p ProgressPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return Event{}, fmt.Errorf("bad progress payload: %w", err)
		}
		return Event{Kind: kind, Data: p}, nil
	case KindComplete:
		var p CompletePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return Event{}, fmt.Errorf("bad complete payload: %w", err)
		}
		return Event{Kind: kind, Data: p}, nil
	case KindError:
		var p ErrorPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return Event{}, fmt.Errorf("bad error payload: %w", err)
		}
		return Event{Kind: kind, Data: p}, nil
	default:
		return Event{}, fmt.Errorf("unknown event kind %q", kind)
	}
}
