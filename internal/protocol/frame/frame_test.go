package frame

import (
	"bytes"
	"errors"
	"testing"
)

func TestReadWriteRoundTrip(t *testing.T) {
	payload := []byte("49\x001\x00")
	var buf bytes.Buffer
	if err := Write(&buf, payload, DefaultLimits()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	if buf.Len() != PrefixLen+len(payload) {
		t.Fatalf("unexpected frame len=%d", buf.Len())
	}
	if got := buf.Bytes()[:PrefixLen]; !bytes.Equal(got, []byte{0, 0, 0, byte(len(payload))}) {
		t.Fatalf("unexpected prefix: %v", got)
	}
	out, err := Read(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Fatalf("payload mismatch: %q", out)
	}
}

func TestReadShortPrefixIsDeterministic(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte{0, 1}), DefaultLimits())
	if !errors.Is(err, ErrShortPrefix) {
		t.Fatalf("expected ErrShortPrefix, got %v", err)
	}
}

func TestReadShortPayload(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte{0, 0, 0, 9, 'a'}), DefaultLimits())
	if !errors.Is(err, ErrShortPayload) {
		t.Fatalf("expected ErrShortPayload, got %v", err)
	}
}

func TestReadPayloadTooLarge(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte{0, 0, 1, 0}), Limits{MaxPayloadBytes: 16})
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestWritePayloadTooLarge(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, make([]byte, 32), Limits{MaxPayloadBytes: 16})
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no bytes written, got %d", buf.Len())
	}
}

func TestSplitRejectsTrailingBytes(t *testing.T) {
	b := Append(nil, []byte("x\x00"))
	if _, err := Split(b, DefaultLimits()); err != nil {
		t.Fatalf("split: %v", err)
	}
	if _, err := Split(append(b, 0), DefaultLimits()); !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("expected ErrTrailingBytes, got %v", err)
	}
	if _, err := Split(b[:len(b)-1], DefaultLimits()); !errors.Is(err, ErrShortPayload) {
		t.Fatalf("expected ErrShortPayload, got %v", err)
	}
}
