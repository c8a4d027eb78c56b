package auth

import (
	"errors"
	"testing"

	"github.com/danmuck/ibctl/internal/testutil/testlog"
)

func TestStaticTokenValidate(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		name    string
		stored  string
		input   string
		wantErr error
	}{
		{name: "empty token denied", stored: "", input: "abc", wantErr: ErrUnauthorized},
		{name: "mismatched token denied", stored: "abc", input: "xyz", wantErr: ErrUnauthorized},
		{name: "matching token accepted", stored: "abc", input: "abc", wantErr: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := (StaticToken{Token: tc.stored}).Validate(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected err %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{header: "Bearer s3cret", want: "s3cret"},
		{header: "bearer   s3cret ", want: "s3cret"},
		{header: "", wantErr: ErrMissingBearer},
		{header: "Basic dXNlcjpwdw==", wantErr: ErrMissingBearer},
		{header: "Bearer ", wantErr: ErrMissingBearer},
	}
	for _, tc := range tests {
		got, err := BearerToken(tc.header)
		if !errors.Is(err, tc.wantErr) {
			t.Fatalf("%q: expected err %v, got %v", tc.header, tc.wantErr, err)
		}
		if got != tc.want {
			t.Fatalf("%q: got %q want %q", tc.header, got, tc.want)
		}
	}
}

func TestCheckHeaderWithFuncValidator(t *testing.T) {
	testlog.Start(t)
	validator := FuncValidator(func(token string) error {
		if token != "ok" {
			return ErrUnauthorized
		}
		return nil
	})

	if err := CheckHeader(validator, "Bearer bad"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for bad token, got %v", err)
	}
	if err := CheckHeader(validator, "Bearer ok"); err != nil {
		t.Fatalf("expected success for ok token, got %v", err)
	}
	if err := CheckHeader(validator, "ok"); !errors.Is(err, ErrMissingBearer) {
		t.Fatalf("expected missing bearer, got %v", err)
	}
}
