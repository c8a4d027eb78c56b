package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/danmuck/ibctl/internal/admin"
	"github.com/danmuck/ibctl/internal/client"
	"github.com/danmuck/ibctl/internal/config"
	"github.com/danmuck/ibctl/internal/logging"
	"github.com/danmuck/ibctl/internal/protocol/schema"
	"github.com/rs/zerolog/log"
)

const bootstrapTimeout = 10 * time.Second

func main() {
	path := flag.String("config", "cmd/ibctl/config.toml", "ibctl config path")
	initCfg := flag.Bool("init", false, "write config and profile templates next to -config and exit")
	force := flag.Bool("force", false, "overwrite existing files with -init")
	flag.Parse()

	logging.ConfigureRuntime()

	if *initCfg {
		if err := writeTemplates(*path, *force); err != nil {
			fmt.Fprintf(os.Stderr, "ibctl: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := loadCtlConfig(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ibctl: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "ibctl: %v\n", err)
		os.Exit(1)
	}
}

func writeTemplates(path string, force bool) error {
	if err := config.WriteTemplate(path, "ibctl", force); err != nil {
		return err
	}
	profile := filepath.Join(filepath.Dir(path), "profile.toml")
	if err := config.WriteTemplate(profile, "profile", force); err != nil {
		return err
	}
	log.Info().Str("config", path).Str("profile", profile).Msg("ibctl wrote templates")
	return nil
}

func run(ctx context.Context, cfg ctlConfig) error {
	c, err := client.New(cfg.Client)
	if err != nil {
		return err
	}

	adminErr := make(chan error, 1)
	if cfg.AdminAddr != "" {
		srv := admin.New(admin.Config{
			Addr:         cfg.AdminAddr,
			AllowOrigins: cfg.CorsOrigins,
			Token:        cfg.AdminToken,
		}, c)
		go func() { adminErr <- srv.Run(ctx) }()
	}

	log.Info().
		Str("endpoint", cfg.Client.Endpoint).
		Str("mode", cfg.Mode.String()).
		Str("host", cfg.Host.String()).
		Int64("client_id", cfg.Client.ClientID).
		Msg("ibctl connecting")
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer c.Disconnect()

	bootCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
	err = c.AwaitBootstrap(bootCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	log.Info().
		Int("server_version", c.ServerVersion()).
		Time("connection_time", c.ConnectionTime()).
		Strs("accounts", c.ManagedAccounts()).
		Msg("ibctl ready")

	if err := c.ReqCurrentTime(ctx); err != nil {
		return err
	}
	if err := c.ReqManagedAccts(ctx); err != nil {
		return err
	}
	if cfg.SnapshotSymbol != "" {
		contract := schema.Contract{Symbol: cfg.SnapshotSymbol, SecType: "STK", Exchange: "SMART", Currency: "USD"}
		id, err := c.ReqMktData(ctx, contract, client.MarketDataOptions{Snapshot: true})
		if err != nil {
			return err
		}
		log.Info().Int64("req_id", id).Str("symbol", cfg.SnapshotSymbol).Msg("ibctl snapshot requested")
	}

	return printMessages(ctx, c, adminErr)
}

// printMessages writes each inbound frame as one pipe-separated line until
// ctx is done or the session ends.
func printMessages(ctx context.Context, c *client.Client, adminErr <-chan error) error {
	msgs := c.Messages()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("ibctl shutting down")
			return nil
		case err := <-adminErr:
			if err != nil {
				return fmt.Errorf("admin: %w", err)
			}
		case m, ok := <-msgs:
			if !ok {
				if st := c.Status(); st.Err != nil {
					return st.Err
				}
				return nil
			}
			fmt.Printf("%s %s\n", m.ReceivedAt.Format("15:04:05.000"), strings.Join(m.Fields, "|"))
		}
	}
}
