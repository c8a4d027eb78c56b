package session

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/ibctl/internal/protocol"
	"github.com/danmuck/ibctl/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

// ConnTimeLayout is the gateway's connection timestamp without zone.
const ConnTimeLayout = "20060102 15:04:05"

var ErrMalformedHello = errors.New("session: malformed server hello")

// VersionMismatchError reports disjoint client and server version ranges.
type VersionMismatchError struct {
	ClientMin int
	ClientMax int
	ServerMin int
	ServerMax int
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf(
		"session: no common version client=[%d,%d] server=[%d,%d]",
		e.ClientMin,
		e.ClientMax,
		e.ServerMin,
		e.ServerMax,
	)
}

func (e *VersionMismatchError) Is(target error) bool {
	return target == protocol.ErrVersionMismatch
}

// ServerHello is the gateway's answer to the version handshake.
type ServerHello struct {
	MaxVersion  int
	MinVersion  int
	ConnTime    time.Time
	RawConnTime string
}

// Negotiate selects min(clientMax, serverMax) and requires it to satisfy
// both minimums.
func Negotiate(clientMin, clientMax, serverMin, serverMax int) (int, error) {
	selected := clientMax
	if serverMax < selected {
		selected = serverMax
	}
	if selected < serverMin || selected < clientMin || selected <= 0 {
		return 0, &VersionMismatchError{
			ClientMin: clientMin,
			ClientMax: clientMax,
			ServerMin: serverMin,
			ServerMax: serverMax,
		}
	}
	return selected, nil
}

// HelloBytes is the raw prefix followed by the framed version range.
func HelloBytes(minVersion, maxVersion int, options string) []byte {
	text := fmt.Sprintf("v%d..%d", minVersion, maxVersion)
	if opts := strings.TrimSpace(options); opts != "" {
		text += " " + opts
	}
	out := append([]byte(nil), frame.HandshakePrefix...)
	return frame.Append(out, []byte(text))
}

// ParseVersionRange parses "vMIN..MAX" with optional trailing options.
func ParseVersionRange(text string) (int, int, string, error) {
	rangeText, options, _ := strings.Cut(strings.TrimSpace(text), " ")
	if !strings.HasPrefix(rangeText, "v") {
		return 0, 0, "", ErrMalformedHello
	}
	lo, hi, ok := strings.Cut(rangeText[1:], "..")
	if !ok {
		return 0, 0, "", ErrMalformedHello
	}
	minVersion, err := strconv.Atoi(lo)
	if err != nil {
		return 0, 0, "", fmt.Errorf("%w: %v", ErrMalformedHello, err)
	}
	maxVersion, err := strconv.Atoi(hi)
	if err != nil {
		return 0, 0, "", fmt.Errorf("%w: %v", ErrMalformedHello, err)
	}
	return minVersion, maxVersion, strings.TrimSpace(options), nil
}

// ReadServerHello reads the framed [version, connTime, minVersion?] reply.
func ReadServerHello(r io.Reader, limits frame.Limits) (ServerHello, error) {
	fields, err := protocol.ReadMessage(r, limits)
	if err != nil {
		return ServerHello{}, err
	}
	return ParseServerHello(fields)
}

func ParseServerHello(fields []string) (ServerHello, error) {
	if len(fields) < 2 {
		return ServerHello{}, fmt.Errorf("%w: fields=%d", ErrMalformedHello, len(fields))
	}
	maxVersion, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil || maxVersion <= 0 {
		return ServerHello{}, fmt.Errorf("%w: server version %q", ErrMalformedHello, fields[0])
	}
	hello := ServerHello{MaxVersion: maxVersion, RawConnTime: fields[1]}
	if len(fields) > 2 && strings.TrimSpace(fields[2]) != "" {
		minVersion, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			return ServerHello{}, fmt.Errorf("%w: server min version %q", ErrMalformedHello, fields[2])
		}
		hello.MinVersion = minVersion
	}
	if ts, err := ParseConnTime(fields[1]); err == nil {
		hello.ConnTime = ts
	}
	return hello, nil
}

// ParseConnTime parses "20060102 15:04:05 <zone>"; unknown zones fall back to UTC.
func ParseConnTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) < len(ConnTimeLayout) {
		return time.Time{}, fmt.Errorf("%w: connection time %q", ErrMalformedHello, raw)
	}
	loc := time.UTC
	if zone := strings.TrimSpace(raw[len(ConnTimeLayout):]); zone != "" {
		if l, err := time.LoadLocation(zone); err == nil {
			loc = l
		}
	}
	return time.ParseInLocation(ConnTimeLayout, raw[:len(ConnTimeLayout)], loc)
}

// Handshake runs the version exchange on rw and moves the session to Ready.
// Any failure is session-fatal.
func (s *Session) Handshake(rw io.ReadWriter, cfg Config) (ServerHello, error) {
	cfg = cfg.WithDefaults()
	if st := s.Status(); st.State != StateNegotiating {
		return ServerHello{}, fmt.Errorf("%w: handshake from %s", ErrInvalidTransition, st.State)
	}
	if _, err := rw.Write(HelloBytes(cfg.ClientMinVersion, cfg.ClientMaxVersion, cfg.ConnectOptions)); err != nil {
		terr := &protocol.TransportError{Op: "handshake", Err: err}
		s.Fail(terr)
		return ServerHello{}, terr
	}
	hello, err := ReadServerHello(rw, cfg.Limits)
	if err != nil {
		if !errors.Is(err, ErrMalformedHello) {
			err = &protocol.TransportError{Op: "handshake", Err: err}
		}
		s.Fail(err)
		return ServerHello{}, err
	}
	serverMin := hello.MinVersion
	if serverMin == 0 {
		serverMin = cfg.ClientMinVersion
	}
	version, err := Negotiate(cfg.ClientMinVersion, cfg.ClientMaxVersion, serverMin, hello.MaxVersion)
	if err != nil {
		s.Fail(err)
		return hello, err
	}
	if err := s.Negotiated(version); err != nil {
		return hello, err
	}
	log.Info().
		Str("endpoint", s.Endpoint()).
		Int("version", version).
		Str("conn_time", hello.RawConnTime).
		Msg("session.Negotiate ok")
	return hello, nil
}
