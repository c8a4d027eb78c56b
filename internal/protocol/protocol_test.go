package protocol

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/danmuck/ibctl/internal/protocol/frame"
	"github.com/shopspring/decimal"
)

func TestEncodeFrameRoundTrip(t *testing.T) {
	values := []Value{
		Int(1),
		Int(11),
		Int(42),
		String("AAPL"),
		Float(187.25),
		Float(0.1),
		Bool(true),
		Bool(false),
		Empty(),
		Decimal(decimal.RequireFromString("12.5")),
		Counted(2, String("a"), String("b")),
	}
	b, err := EncodeFrame(values)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	fields, err := DecodeFrame(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"1", "11", "42", "AAPL", "187.25", "0.1", "1", "0", "", "12.5", "2", "a", "b"}
	if len(fields) != len(want) {
		t.Fatalf("field count got=%d want=%d (%q)", len(fields), len(want), fields)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Fatalf("field[%d] got=%q want=%q", i, fields[i], want[i])
		}
	}
}

func TestEncodeFramePrefixMatchesPayload(t *testing.T) {
	b, err := EncodeFrame([]Value{Int(49), Int(1)})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{0, 0, 0, 5, '4', '9', 0, '1', 0}
	if !bytes.Equal(b, want) {
		t.Fatalf("frame got=%v want=%v", b, want)
	}
}

func TestFloatTextIsLocaleIndependent(t *testing.T) {
	cases := map[float64]string{
		1234567.5: "1234567.5",
		-0.25:     "-0.25",
		1e21:      "1000000000000000000000",
		100:       "100",
	}
	for in, want := range cases {
		got, err := Float(in).Text()
		if err != nil {
			t.Fatalf("text(%v): %v", in, err)
		}
		if got != want {
			t.Fatalf("text(%v) got=%q want=%q", in, got, want)
		}
	}
}

func TestEncodeRejectsNonFiniteFloat(t *testing.T) {
	_, err := EncodeFrame([]Value{Int(1), Float(math.NaN())})
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
	var encErr *EncodingError
	if !errors.As(err, &encErr) || encErr.Index != 1 {
		t.Fatalf("unexpected encoding error: %#v", err)
	}
}

func TestEncodeRejectsDelimiterInString(t *testing.T) {
	_, err := EncodeFrame([]Value{String("a\x00b")})
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
}

func TestUnsetSentinelsEncodeEmpty(t *testing.T) {
	if MaxInt(UnsetInt).Kind() != KindEmpty {
		t.Fatalf("expected empty for unset int")
	}
	if MaxFloat(UnsetFloat).Kind() != KindEmpty {
		t.Fatalf("expected empty for unset float")
	}
	if MaxFloat(1.5).Kind() != KindFloat {
		t.Fatalf("expected float for set value")
	}
}

func TestIsZero(t *testing.T) {
	zero := []Value{Empty(), String(""), Int(0), Float(0), Bool(false), Decimal(decimal.Zero), {}}
	for i, v := range zero {
		if !v.IsZero() {
			t.Fatalf("value[%d] kind=%s expected zero", i, v.Kind())
		}
	}
	nonZero := []Value{String("x"), Int(-1), Float(0.5), Bool(true), Group(), Counted(0)}
	for i, v := range nonZero {
		if v.IsZero() {
			t.Fatalf("value[%d] kind=%s expected non-zero", i, v.Kind())
		}
	}
}

func TestSplitFieldsRequiresTerminator(t *testing.T) {
	if _, err := SplitFields([]byte("a\x00b")); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	fields, err := SplitFields([]byte("\x00\x00"))
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(fields) != 2 || fields[0] != "" || fields[1] != "" {
		t.Fatalf("unexpected fields: %q", fields)
	}
}

func TestReadMessageFromStream(t *testing.T) {
	var buf bytes.Buffer
	for _, vs := range [][]Value{{Int(9), Int(1), Int(1000)}, {Int(15), Int(1), String("DU1,DU2")}} {
		b, err := EncodeFrame(vs)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		buf.Write(b)
	}
	first, err := ReadMessage(&buf, frame.DefaultLimits())
	if err != nil {
		t.Fatalf("read first: %v", err)
	}
	second, err := ReadMessage(&buf, frame.DefaultLimits())
	if err != nil {
		t.Fatalf("read second: %v", err)
	}
	if first[2] != "1000" || second[2] != "DU1,DU2" {
		t.Fatalf("unexpected messages: %q %q", first, second)
	}
}
