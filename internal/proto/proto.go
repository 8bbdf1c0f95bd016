// Package proto defines the IPC message shapes and framing used between
// prised (server) and prise (client) over a local Unix domain socket.
//
// Every message is one CBOR-encoded array, length-prefixed on the wire (see
// DecodeFrame). The first array element discriminates the shape:
//
//	[0, req_id, method, params]       - request  (peer expects a response)
//	[1, req_id, error, result]        - response  (error is nil on success)
//	[2, method, params]               - notification (no response expected)
//
// req_id is chosen by the sender and is monotonic (wrapping uint32) per
// direction; a peer may have many requests in flight and responses may
// arrive out of order. DecodeFrame returns ErrIncomplete when the buffer holds
// only a partial frame — callers append more bytes and retry; DecodeFrame
// never consumes bytes it cannot fully parse, so a short read never
// corrupts the stream.
package proto

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Kind discriminates the three message shapes on the wire.
type Kind byte

const (
	KindRequest      Kind = 0
	KindResponse     Kind = 1
	KindNotification Kind = 2
)

// MaxFrameSize caps a single frame's payload; larger frames are a protocol
// error and close the connection (§7: "too_large").
const MaxFrameSize = 8 << 20 // 8 MiB — generous for a full-screen redraw

// ErrIncomplete is returned by DecodeFrame when buf does not yet contain a
// complete frame. Callers should read more bytes and retry; buf is never
// mutated or partially consumed on this path.
var ErrIncomplete = errors.New("proto: incomplete frame")

// ErrTooLarge is returned when a frame's declared length exceeds
// MaxFrameSize. Per §7 this closes the connection.
var ErrTooLarge = errors.New("proto: frame too large")

// Request is the decoded form of a [0, id, method, params] message.
type Request struct {
	ID     uint32
	Method string
	Params cbor.RawMessage
}

// Response is the decoded form of a [1, id, error, result] message.
type Response struct {
	ID     uint32
	Err    *WireError
	Result cbor.RawMessage
}

// Notification is the decoded form of a [2, method, params] message.
type Notification struct {
	Method string
	Params cbor.RawMessage
}

// EncodeRequest serializes a request frame (header + CBOR body).
func EncodeRequest(id uint32, method string, params any) ([]byte, error) {
	return encodeFrame([]any{KindRequest, id, method, params})
}

// EncodeResponse serializes a response frame. werr is nil on success.
func EncodeResponse(id uint32, werr *WireError, result any) ([]byte, error) {
	return encodeFrame([]any{KindResponse, id, werr, result})
}

// EncodeNotification serializes a one-way notification frame.
func EncodeNotification(method string, params any) ([]byte, error) {
	return encodeFrame([]any{KindNotification, method, params})
}

func encodeFrame(v any) ([]byte, error) {
	body, err := cbor.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("proto: encode: %w", err)
	}
	if len(body) > MaxFrameSize {
		return nil, ErrTooLarge
	}
	hdr := make([]byte, 4, 4+len(body))
	binary.BigEndian.PutUint32(hdr, uint32(len(body)))
	return append(hdr, body...), nil
}

// Message is the decoded union of the three shapes; exactly one of Request,
// Response, Notification is non-nil.
type Message struct {
	Request      *Request
	Response     *Response
	Notification *Notification
}

// DecodeFrame attempts to decode one complete length-prefixed frame from the
// front of buf. On success it returns the decoded message and the number of
// bytes consumed. On a short buffer it returns (nil, 0, ErrIncomplete) and
// buf is untouched.
func DecodeFrame(buf []byte) (*Message, int, error) {
	if len(buf) < 4 {
		return nil, 0, ErrIncomplete
	}
	n := binary.BigEndian.Uint32(buf[:4])
	if n > MaxFrameSize {
		return nil, 0, ErrTooLarge
	}
	total := 4 + int(n)
	if len(buf) < total {
		return nil, 0, ErrIncomplete
	}
	body := buf[4:total]

	var raw []cbor.RawMessage
	if err := cbor.Unmarshal(body, &raw); err != nil {
		return nil, 0, fmt.Errorf("proto: malformed frame: %w", err)
	}
	if len(raw) == 0 {
		return nil, 0, fmt.Errorf("proto: empty message array")
	}

	var kind Kind
	if err := cbor.Unmarshal(raw[0], &kind); err != nil {
		return nil, 0, fmt.Errorf("proto: malformed kind: %w", err)
	}

	msg := &Message{}
	switch kind {
	case KindRequest:
		if len(raw) != 4 {
			return nil, 0, fmt.Errorf("proto: request wants 4 elements, got %d", len(raw))
		}
		req := &Request{Params: raw[3]}
		if err := cbor.Unmarshal(raw[1], &req.ID); err != nil {
			return nil, 0, fmt.Errorf("proto: malformed request id: %w", err)
		}
		if err := cbor.Unmarshal(raw[2], &req.Method); err != nil {
			return nil, 0, fmt.Errorf("proto: malformed request method: %w", err)
		}
		msg.Request = req

	case KindResponse:
		if len(raw) != 4 {
			return nil, 0, fmt.Errorf("proto: response wants 4 elements, got %d", len(raw))
		}
		resp := &Response{Result: raw[3]}
		if err := cbor.Unmarshal(raw[1], &resp.ID); err != nil {
			return nil, 0, fmt.Errorf("proto: malformed response id: %w", err)
		}
		if !isCBORNull(raw[2]) {
			var werr WireError
			if err := cbor.Unmarshal(raw[2], &werr); err != nil {
				return nil, 0, fmt.Errorf("proto: malformed response error: %w", err)
			}
			resp.Err = &werr
		}
		msg.Response = resp

	case KindNotification:
		if len(raw) != 3 {
			return nil, 0, fmt.Errorf("proto: notification wants 3 elements, got %d", len(raw))
		}
		note := &Notification{Params: raw[2]}
		if err := cbor.Unmarshal(raw[1], &note.Method); err != nil {
			return nil, 0, fmt.Errorf("proto: malformed notification method: %w", err)
		}
		msg.Notification = note

	default:
		return nil, 0, fmt.Errorf("proto: unknown message kind %d", kind)
	}

	return msg, total, nil
}

func isCBORNull(raw cbor.RawMessage) bool {
	return len(raw) == 1 && raw[0] == 0xf6
}
