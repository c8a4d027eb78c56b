package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/ibctl/internal/testutil/testlog"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadProfileTemplate(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "profile.toml")
	if err := WriteTemplate(path, "profile", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	cfg, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if cfg != DefaultProfile() {
		t.Fatalf("template drifted from defaults: %+v", cfg)
	}
}

func TestEndpointSelection(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultProfile()
	cases := []struct {
		mode Mode
		host Host
		want string
	}{
		{Paper, Gateway, "127.0.0.1:4002"},
		{Live, Gateway, "127.0.0.1:4001"},
		{Paper, TWS, "127.0.0.1:7497"},
		{Live, TWS, "127.0.0.1:7496"},
	}
	for _, tc := range cases {
		if got := cfg.Endpoint(tc.mode, tc.host); got != tc.want {
			t.Fatalf("%s/%s: got %s want %s", tc.mode, tc.host, got, tc.want)
		}
	}
}

func TestLoadProfilePartialKeepsDefaults(t *testing.T) {
	testlog.Start(t)
	path := writeFile(t, "profile.toml", "address = \"10.0.0.5\"\n\n[ports]\ngateway_paper = 5002\n")
	cfg, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if got := cfg.Endpoint(Paper, Gateway); got != "10.0.0.5:5002" {
		t.Fatalf("unexpected endpoint: %s", got)
	}
	if cfg.Ports.TWSLive != 7496 {
		t.Fatalf("expected default tws_live, got %d", cfg.Ports.TWSLive)
	}
}

func TestEndpointBracketsIPv6(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultProfile()
	cfg.Address = "::1"
	if got := cfg.Endpoint(Live, TWS); got != "[::1]:7496" {
		t.Fatalf("unexpected endpoint: %s", got)
	}
}

func TestLoadProfileRejectsInvalid(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"empty address": "address = \"  \"\n",
		"url address":   "address = \"tcp://localhost\"\n",
		"bad port":      "[ports]\ntws_live = 70000\n",
		"zero port":     "[ports]\ngateway_live = 0\n",
	}
	for name, body := range cases {
		path := writeFile(t, "profile.toml", body)
		if _, err := LoadProfile(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadProfileErrorsNamePath(t *testing.T) {
	testlog.Start(t)
	missing := filepath.Join(t.TempDir(), "missing.toml")
	_, err := LoadProfile(missing)
	if err == nil || !strings.Contains(err.Error(), "config load failed") {
		t.Fatalf("unexpected error: %v", err)
	}
	path := writeFile(t, "broken.toml", "address = \n")
	_, err = LoadProfile(path)
	if err == nil || !strings.Contains(err.Error(), "config parse failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseModeAndHost(t *testing.T) {
	testlog.Start(t)
	if m, err := ParseMode(" LIVE "); err != nil || m != Live {
		t.Fatalf("parse live: %v %v", m, err)
	}
	if m, err := ParseMode(""); err != nil || m != Paper {
		t.Fatalf("parse default: %v %v", m, err)
	}
	if _, err := ParseMode("demo"); err == nil {
		t.Fatalf("expected mode error")
	}
	if h, err := ParseHost("TWS"); err != nil || h != TWS {
		t.Fatalf("parse tws: %v %v", h, err)
	}
	if h, err := ParseHost(""); err != nil || h != Gateway {
		t.Fatalf("parse default: %v %v", h, err)
	}
	if _, err := ParseHost("desktop"); err == nil {
		t.Fatalf("expected host error")
	}
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	testlog.Start(t)
	path := writeFile(t, "ibctl.toml", "client_id = 1\n")
	if err := WriteTemplate(path, "ibctl", false); err == nil {
		t.Fatalf("expected overwrite refusal")
	}
	if err := WriteTemplate(path, "ibctl", true); err != nil {
		t.Fatalf("forced write: %v", err)
	}
	if _, err := Template("ghost"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
