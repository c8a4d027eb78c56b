package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/ibctl/internal/client"
	"github.com/danmuck/ibctl/internal/config"
)

type fileConfig struct {
	Profile              string   `toml:"profile"`
	Endpoint             string   `toml:"endpoint"`
	Mode                 string   `toml:"mode"`
	Host                 string   `toml:"host"`
	ClientID             int64    `toml:"client_id"`
	RateLimit            float64  `toml:"rate_limit"`
	Burst                int      `toml:"burst"`
	ConnectTimeout       string   `toml:"connect_timeout"`
	HandshakeTimeout     string   `toml:"handshake_timeout"`
	WriteTimeout         string   `toml:"write_timeout"`
	MaxConnectAttempts   int      `toml:"max_connect_attempts"`
	ConnectOptions       string   `toml:"connect_options"`
	OptionalCapabilities string   `toml:"optional_capabilities"`
	AdminAddr            string   `toml:"admin_addr"`
	AdminToken           string   `toml:"admin_token"`
	CorsOrigins          []string `toml:"cors_origins"`
	SnapshotSymbol       string   `toml:"snapshot_symbol"`
}

type ctlConfig struct {
	Client         client.Config
	Mode           config.Mode
	Host           config.Host
	ProfilePath    string
	AdminAddr      string
	AdminToken     string
	CorsOrigins    []string
	SnapshotSymbol string
}

func defaultCtlConfig() ctlConfig {
	return ctlConfig{
		Client: client.DefaultConfig(),
		Mode:   config.Paper,
		Host:   config.Gateway,
	}
}

// loadCtlConfig applies the keys present in path over the defaults. An
// explicit endpoint wins over the profile; a relative profile path is
// resolved against the config file's directory.
func loadCtlConfig(path string) (ctlConfig, error) {
	cfg := defaultCtlConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ctlConfig{}, fmt.Errorf("load ibctl config: %w", err)
	}

	if meta.IsDefined("mode") {
		if cfg.Mode, err = config.ParseMode(raw.Mode); err != nil {
			return ctlConfig{}, err
		}
	}
	if meta.IsDefined("host") {
		if cfg.Host, err = config.ParseHost(raw.Host); err != nil {
			return ctlConfig{}, err
		}
	}
	if meta.IsDefined("client_id") {
		cfg.Client.ClientID = raw.ClientID
	}
	if meta.IsDefined("rate_limit") {
		cfg.Client.RateLimit = raw.RateLimit
	}
	if meta.IsDefined("burst") {
		cfg.Client.Burst = raw.Burst
	}
	if meta.IsDefined("connect_timeout") {
		if err := parseDuration("connect_timeout", raw.ConnectTimeout, &cfg.Client.Session.ConnectTimeout); err != nil {
			return ctlConfig{}, err
		}
	}
	if meta.IsDefined("handshake_timeout") {
		if err := parseDuration("handshake_timeout", raw.HandshakeTimeout, &cfg.Client.Session.HandshakeTimeout); err != nil {
			return ctlConfig{}, err
		}
	}
	if meta.IsDefined("write_timeout") {
		if err := parseDuration("write_timeout", raw.WriteTimeout, &cfg.Client.Session.WriteTimeout); err != nil {
			return ctlConfig{}, err
		}
	}
	if meta.IsDefined("max_connect_attempts") {
		cfg.Client.Session.MaxConnectAttempts = raw.MaxConnectAttempts
	}
	if meta.IsDefined("connect_options") {
		cfg.Client.Session.ConnectOptions = strings.TrimSpace(raw.ConnectOptions)
	}
	if meta.IsDefined("optional_capabilities") {
		cfg.Client.OptionalCapabilities = strings.TrimSpace(raw.OptionalCapabilities)
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("admin_token") {
		cfg.AdminToken = strings.TrimSpace(raw.AdminToken)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = raw.CorsOrigins
	}
	if meta.IsDefined("snapshot_symbol") {
		cfg.SnapshotSymbol = strings.ToUpper(strings.TrimSpace(raw.SnapshotSymbol))
	}

	if meta.IsDefined("endpoint") && strings.TrimSpace(raw.Endpoint) != "" {
		cfg.Client.Endpoint = strings.TrimSpace(raw.Endpoint)
		return cfg, nil
	}

	profile := config.DefaultProfile()
	if meta.IsDefined("profile") && strings.TrimSpace(raw.Profile) != "" {
		cfg.ProfilePath = strings.TrimSpace(raw.Profile)
		if !filepath.IsAbs(cfg.ProfilePath) {
			cfg.ProfilePath = filepath.Join(filepath.Dir(path), cfg.ProfilePath)
		}
		if profile, err = config.LoadProfile(cfg.ProfilePath); err != nil {
			return ctlConfig{}, err
		}
	}
	cfg.Client.Endpoint = profile.Endpoint(cfg.Mode, cfg.Host)
	return cfg, nil
}

func parseDuration(key, raw string, dst *time.Duration) error {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("parse %s: must be positive", key)
	}
	*dst = d
	return nil
}
