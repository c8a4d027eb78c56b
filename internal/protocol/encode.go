package protocol

import (
	"strings"

	"github.com/danmuck/ibctl/internal/protocol/frame"
)

// Delimiter terminates every field on the wire.
const Delimiter byte = 0x00

// AppendPayload appends the delimited text of values to dst.
func AppendPayload(dst []byte, values []Value) ([]byte, error) {
	for i, v := range Flatten(values) {
		text, err := v.Text()
		if err != nil {
			if encErr, ok := err.(*EncodingError); ok {
				encErr.Index = i
			}
			return nil, err
		}
		if strings.IndexByte(text, Delimiter) >= 0 {
			return nil, &EncodingError{Index: i, Kind: v.kind, Reason: "field contains delimiter"}
		}
		dst = append(dst, text...)
		dst = append(dst, Delimiter)
	}
	return dst, nil
}

// EncodePayload returns the delimited text of values.
func EncodePayload(values []Value) ([]byte, error) {
	return AppendPayload(nil, values)
}

// EncodeFrame returns one complete length-prefixed request frame.
func EncodeFrame(values []Value) ([]byte, error) {
	buf := make([]byte, frame.PrefixLen, frame.PrefixLen+16*len(values))
	buf, err := AppendPayload(buf, values)
	if err != nil {
		return nil, err
	}
	payloadLen := len(buf) - frame.PrefixLen
	if uint64(payloadLen) > frame.DefaultLimits().MaxPayloadBytes {
		return nil, &EncodingError{Index: -1, Kind: KindGroup, Reason: ErrPayloadTooLarge.Error()}
	}
	frame.PutPrefix(buf, payloadLen)
	return buf, nil
}
