package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected                = errors.New("protocol: not connected")
	ErrInvalidParameter            = errors.New("protocol: invalid parameter")
	ErrUnsupportedForServerVersion = errors.New("protocol: unsupported for server version")
	ErrEncoding                    = errors.New("protocol: encoding error")
	ErrTransportFailure            = errors.New("protocol: transport failure")
	ErrVersionMismatch             = errors.New("protocol: version mismatch")
	ErrTruncated                   = errors.New("protocol: truncated data")
	ErrPayloadTooLarge             = errors.New("protocol: payload too large")
)

// ParameterError names the offending field of a rejected call.
type ParameterError struct {
	Op     string
	Field  string
	Reason string
}

func (e *ParameterError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("protocol: op=%s: invalid parameter: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("protocol: op=%s field=%s: invalid parameter: %s", e.Op, e.Field, e.Reason)
}

func (e *ParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// VersionError reports a feature the negotiated version cannot carry.
type VersionError struct {
	Op         string
	Field      string
	Required   int
	Negotiated int
}

func (e *VersionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("protocol: op=%s requires server version %d (negotiated %d)", e.Op, e.Required, e.Negotiated)
	}
	return fmt.Sprintf(
		"protocol: op=%s field=%s requires server version %d (negotiated %d)",
		e.Op,
		e.Field,
		e.Required,
		e.Negotiated,
	)
}

func (e *VersionError) Is(target error) bool {
	return target == ErrUnsupportedForServerVersion
}

// EncodingError is a contract violation while turning values into text.
type EncodingError struct {
	Index  int
	Kind   Kind
	Reason string
}

func (e *EncodingError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("protocol: encoding: %s", e.Reason)
	}
	return fmt.Sprintf("protocol: encoding: field=%d kind=%s: %s", e.Index, e.Kind, e.Reason)
}

func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}

// TransportError wraps a failed write or read on the byte stream.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("protocol: transport failure: %v", e.Err)
	}
	return fmt.Sprintf("protocol: transport failure op=%s: %v", e.Op, e.Err)
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransportFailure
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
