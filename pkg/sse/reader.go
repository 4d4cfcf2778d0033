package sse

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// Reader parses a text/event-stream body into frames.
type Reader struct {
	r *bufio.Reader
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next frame that carries data. Comment lines, retry fields
// and frames without data are skipped. The event name defaults to "message".
// io.EOF is returned when the stream ends between frames.
func (r *Reader) Next() (Frame, error) {
	var (
		frame   Frame
		data    bytes.Buffer
		hasData bool
	)
	for {
		line, err := r.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF && hasData {
				return r.finish(frame, data.Bytes()), nil
			}
			return Frame{}, err
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if hasData {
				return r.finish(frame, data.Bytes()), nil
			}
			frame = Frame{}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			frame.Event = value
		case "id":
			frame.ID = value
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		}

		if err == io.EOF {
			if hasData {
				return r.finish(frame, data.Bytes()), nil
			}
			return Frame{}, io.EOF
		}
	}
}

func (r *Reader) finish(frame Frame, data []byte) Frame {
	if frame.Event == "" {
		frame.Event = "message"
	}
	frame.Data = bytes.Clone(data)
	return frame
}
