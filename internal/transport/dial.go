package transport

import (
	"context"
	"math/rand"
	"net"
	"time"

	"github.com/danmuck/ibctl/internal/protocol/session"
	"github.com/rs/zerolog/log"
)

// DialFunc opens the raw stream; net.Dialer.DialContext satisfies it.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Dial connects to addr, retrying with backoff up to cfg.MaxConnectAttempts
// (unbounded when not positive). rng may be nil.
func Dial(ctx context.Context, addr string, cfg session.Config, rng *rand.Rand) (*Conn, error) {
	return DialWith(ctx, TCPDialer(cfg), addr, cfg, rng)
}

// TCPDialer returns a plain TCP DialFunc bounded by cfg.ConnectTimeout.
func TCPDialer(cfg session.Config) DialFunc {
	d := &net.Dialer{Timeout: cfg.WithDefaults().ConnectTimeout}
	return d.DialContext
}

func DialWith(ctx context.Context, dial DialFunc, addr string, cfg session.Config, rng *rand.Rand) (*Conn, error) {
	cfg = cfg.WithDefaults()
	var attempt int
	for {
		attempt++
		raw, err := dial(ctx, "tcp", addr)
		if err == nil {
			log.Debug().Str("addr", addr).Int("attempt", attempt).Msg("transport.Dial connected")
			return Wrap(raw, cfg.WriteTimeout), nil
		}
		log.Warn().Str("addr", addr).Int("attempt", attempt).Err(err).Msg("transport.Dial failed")
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !shouldRetry(cfg.MaxConnectAttempts, attempt) {
			return nil, err
		}
		if err := sleepBackoff(ctx, cfg.Backoff, attempt, rng); err != nil {
			return nil, err
		}
	}
}

func shouldRetry(maxAttempts, attempt int) bool {
	if maxAttempts <= 0 {
		return true
	}
	return attempt < maxAttempts
}

func sleepBackoff(ctx context.Context, cfg session.BackoffConfig, attempt int, rng *rand.Rand) error {
	delay := session.NextBackoffDelay(cfg, attempt, rng)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
