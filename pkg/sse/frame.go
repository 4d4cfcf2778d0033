package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Event names carried on the wire.
const (
	EventNotification = "notification"
	EventHeartbeat    = "heartbeat"
	EventConnected    = "connected"
)

// Frame is one server-sent event: a name and a single-line JSON payload.
type Frame struct {
	Event string
	Data  []byte
	ID    string
}

// NewFrame encodes payload as JSON under the given event name.
func NewFrame(event string, payload any) (Frame, error) {
	if event == "" || strings.ContainsAny(event, "\r\n") {
		return Frame{}, ErrInvalidEventName
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s frame: %w", event, err)
	}
	return Frame{Event: event, Data: data}, nil
}

// Decode unmarshals the frame payload into v.
func (f Frame) Decode(v any) error {
	if err := json.Unmarshal(f.Data, v); err != nil {
		return fmt.Errorf("decode %s frame: %w", f.Event, err)
	}
	return nil
}

// WriteTo writes the frame in text/event-stream format.
func (f Frame) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if f.ID != "" {
		buf.WriteString("id: ")
		buf.WriteString(f.ID)
		buf.WriteByte('\n')
	}
	buf.WriteString("event: ")
	buf.WriteString(f.Event)
	buf.WriteByte('\n')
	for line := range bytes.SplitSeq(f.Data, []byte{'\n'}) {
		buf.WriteString("data: ")
		buf.Write(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	return buf.WriteTo(w)
}

// DataLines returns the payload split into SSE data lines.
func (f Frame) DataLines() []string {
	return strings.Split(string(f.Data), "\n")
}
