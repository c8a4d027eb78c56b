package frame

import (
	"encoding/binary"
	"errors"
	"io"
)

// PrefixLen is the size of the big-endian length prefix.
const PrefixLen = 4

// HandshakePrefix opens every connection ahead of the version frame.
var HandshakePrefix = []byte("API\x00")

var (
	ErrShortPrefix     = errors.New("frame: short length prefix")
	ErrShortPayload    = errors.New("frame: short payload")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
	ErrTrailingBytes   = errors.New("frame: trailing bytes after payload")
)

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes uint64
}

// DefaultLimits matches the gateway's largest accepted message.
func DefaultLimits() Limits {
	return Limits{
		MaxPayloadBytes: 0xFFFFFF,
	}
}

// Read reads one length-prefixed payload.
func Read(r io.Reader, limits Limits) ([]byte, error) {
	var prefix [PrefixLen]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrShortPrefix
		}
		return nil, err
	}
	n := uint64(binary.BigEndian.Uint32(prefix[:]))
	if n > limits.MaxPayloadBytes {
		return nil, ErrPayloadTooLarge
	}
	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return nil, ErrShortPayload
			}
			return nil, err
		}
	}
	return payload, nil
}

// Write writes payload behind its length prefix in a single call.
func Write(w io.Writer, payload []byte, limits Limits) error {
	if uint64(len(payload)) > limits.MaxPayloadBytes {
		return ErrPayloadTooLarge
	}
	_, err := w.Write(Append(nil, payload))
	return err
}

// Append appends the prefixed payload to dst.
func Append(dst []byte, payload []byte) []byte {
	var prefix [PrefixLen]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	dst = append(dst, prefix[:]...)
	return append(dst, payload...)
}

// PutPrefix stores n in the first PrefixLen bytes of buf.
func PutPrefix(buf []byte, n int) {
	binary.BigEndian.PutUint32(buf[:PrefixLen], uint32(n))
}

// Split parses exactly one frame and rejects any trailing bytes.
func Split(b []byte, limits Limits) ([]byte, error) {
	if len(b) < PrefixLen {
		return nil, ErrShortPrefix
	}
	n := uint64(binary.BigEndian.Uint32(b[:PrefixLen]))
	if n > limits.MaxPayloadBytes {
		return nil, ErrPayloadTooLarge
	}
	rest := uint64(len(b) - PrefixLen)
	if rest < n {
		return nil, ErrShortPayload
	}
	if rest > n {
		return nil, ErrTrailingBytes
	}
	return b[PrefixLen:], nil
}
