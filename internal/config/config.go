// Package config loads the endpoint profile: one gateway address plus the
// four well-known ports for TWS and IB Gateway in live and paper mode.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type Mode int

const (
	Paper Mode = iota
	Live
)

func (m Mode) String() string {
	if m == Live {
		return "live"
	}
	return "paper"
}

// ParseMode accepts "live" or "paper"; empty means Paper.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "paper":
		return Paper, nil
	case "live":
		return Live, nil
	default:
		return Paper, fmt.Errorf("unknown mode: %s", raw)
	}
}

type Host int

const (
	Gateway Host = iota
	TWS
)

func (h Host) String() string {
	if h == TWS {
		return "tws"
	}
	return "gateway"
}

// ParseHost accepts "tws" or "gateway"; empty means Gateway.
func ParseHost(raw string) (Host, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "gateway", "ibgateway":
		return Gateway, nil
	case "tws":
		return TWS, nil
	default:
		return Gateway, fmt.Errorf("unknown host: %s", raw)
	}
}

type Ports struct {
	TWSLive      int `toml:"tws_live"`
	TWSPaper     int `toml:"tws_paper"`
	GatewayLive  int `toml:"gateway_live"`
	GatewayPaper int `toml:"gateway_paper"`
}

// DefaultPorts are the factory defaults of both applications.
func DefaultPorts() Ports {
	return Ports{
		TWSLive:      7496,
		TWSPaper:     7497,
		GatewayLive:  4001,
		GatewayPaper: 4002,
	}
}

func (p Ports) For(mode Mode, host Host) int {
	switch {
	case host == TWS && mode == Live:
		return p.TWSLive
	case host == TWS:
		return p.TWSPaper
	case mode == Live:
		return p.GatewayLive
	default:
		return p.GatewayPaper
	}
}

type Profile struct {
	Address string `toml:"address"`
	Ports   Ports  `toml:"ports"`
}

func DefaultProfile() Profile {
	return Profile{Address: "127.0.0.1", Ports: DefaultPorts()}
}

// Endpoint joins the address with the port selected by mode and host.
func (p Profile) Endpoint(mode Mode, host Host) string {
	return net.JoinHostPort(p.Address, strconv.Itoa(p.Ports.For(mode, host)))
}

// LoadProfile reads path over the defaults, so a file may name only the
// ports it changes.
func LoadProfile(path string) (Profile, error) {
	cfg := DefaultProfile()
	if err := loadToml(path, &cfg); err != nil {
		return Profile{}, err
	}
	cfg.Address = strings.TrimSpace(cfg.Address)
	if err := ValidateProfile(cfg); err != nil {
		return Profile{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateProfile(cfg Profile) error {
	if strings.TrimSpace(cfg.Address) == "" {
		return fmt.Errorf("profile missing address")
	}
	if strings.Contains(cfg.Address, "://") {
		return fmt.Errorf("profile address must be a host, got %s", cfg.Address)
	}
	for name, port := range map[string]int{
		"tws_live":      cfg.Ports.TWSLive,
		"tws_paper":     cfg.Ports.TWSPaper,
		"gateway_live":  cfg.Ports.GatewayLive,
		"gateway_paper": cfg.Ports.GatewayPaper,
	} {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("profile port %s out of range: %d", name, port)
		}
	}
	return nil
}
