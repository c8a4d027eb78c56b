package protocol

import (
	"bytes"
	"errors"
	"io"

	"github.com/danmuck/ibctl/internal/protocol/frame"
)

// SplitFields decodes a delimited payload into its field texts.
func SplitFields(payload []byte) ([]string, error) {
	if len(payload) == 0 {
		return []string{}, nil
	}
	if payload[len(payload)-1] != Delimiter {
		return nil, ErrTruncated
	}
	parts := bytes.Split(payload[:len(payload)-1], []byte{Delimiter})
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = string(p)
	}
	return out, nil
}

// ReadMessage reads one framed message and returns its fields.
func ReadMessage(r io.Reader, limits frame.Limits) ([]string, error) {
	payload, err := frame.Read(r, limits)
	if err != nil {
		if errors.Is(err, frame.ErrPayloadTooLarge) {
			return nil, ErrPayloadTooLarge
		}
		return nil, err
	}
	return SplitFields(payload)
}

// DecodeFrame splits one complete frame into its field texts.
func DecodeFrame(b []byte) ([]string, error) {
	payload, err := frame.Split(b, frame.DefaultLimits())
	if err != nil {
		return nil, err
	}
	return SplitFields(payload)
}
