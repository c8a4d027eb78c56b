package observability

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SessionLogger derives a logger scoped to one gateway connection.
func SessionLogger(endpoint string, clientID int64) zerolog.Logger {
	return log.Logger.With().
		Str("endpoint", endpoint).
		Int64("client_id", clientID).
		Logger()
}
