// Package nativehost speaks the browser native messaging protocol on
// stdin/stdout and bridges extension requests to the SubSleuth daemon.
// Frames are a 4-byte little-endian length followed by a JSON payload.
package nativehost

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// MaxMessageSize is the browser-imposed limit for host-to-extension frames.
const MaxMessageSize = 1 << 20

// Request is an incoming message from the extension. ID correlates the
// response.
type Request struct {
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Message json.RawMessage `json:"message,omitempty"`
}

// Response answers a Request. Unsolicited pushes use ID 0 and set Event.
type Response struct {
	ID     int    `json:"id"`
	Ok     bool   `json:"ok"`
	Event  string `json:"event,omitempty"`
	Error  string `json:"error,omitempty"`
	Result any    `json:"result,omitempty"`
}

// ReadMessage reads one frame from r.
func ReadMessage(r io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, err
	}
	if length > MaxMessageSize {
		return nil, fmt.Errorf("message too large: %d bytes (max %d)", length, MaxMessageSize)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteMessage writes msg as one frame to w.
func WriteMessage(w io.Writer, msg []byte) error {
	if len(msg) > MaxMessageSize {
		return fmt.Errorf("message too large: %d bytes (max %d)", len(msg), MaxMessageSize)
	}
	frame := make([]byte, 4+len(msg))
	binary.LittleEndian.PutUint32(frame, uint32(len(msg)))
	copy(frame[4:], msg)
	_, err := w.Write(frame)
	return err
}

// ParseRequest decodes a Request payload.
func ParseRequest(b []byte) (*Request, error) {
	var r Request
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// MakeSuccessResponse creates a JSON-encoded success response.
func MakeSuccessResponse(id int, result any) []byte {
	b, err := json.Marshal(Response{
		ID:     id,
		Ok:     true,
		Result: result,
	})
	if err != nil {
		return MakeErrorResponse(id, fmt.Errorf("encode result: %w", err))
	}
	return b
}

// MakeErrorResponse creates a JSON-encoded error response.
func MakeErrorResponse(id int, err error) []byte {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	b, _ := json.Marshal(Response{
		ID:    id,
		Ok:    false,
		Error: msg,
	})
	return b
}

// MakeEvent creates a JSON-encoded push frame for event.
func MakeEvent(event string, result any) ([]byte, error) {
	return json.Marshal(Response{
		Ok:     true,
		Event:  event,
		Result: result,
	})
}
