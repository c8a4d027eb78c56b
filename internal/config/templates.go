package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "profile":
		return profileTemplate, nil
	case "ibctl":
		return ibctlTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const profileTemplate = `address = "127.0.0.1"

[ports]
tws_live = 7496
tws_paper = 7497
gateway_live = 4001
gateway_paper = 4002
`

const ibctlTemplate = `profile = "profile.toml"
mode = "paper"
host = "gateway"
client_id = 0

rate_limit = 50.0
burst = 50
connect_timeout = "5s"
handshake_timeout = "5s"
write_timeout = "15s"
max_connect_attempts = 3
connect_options = ""
optional_capabilities = ""

# Empty disables the admin HTTP server.
admin_addr = ""
admin_token = ""
cors_origins = ["http://localhost:3000"]

# Optional snapshot request after bootstrap.
snapshot_symbol = ""
`
