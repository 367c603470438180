package main

import (
	_ "embed"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/klabast/ts-subscribe/internal/app"
	"github.com/klabast/ts-subscribe/internal/commands"
	"github.com/klabast/ts-subscribe/internal/logger"
	"github.com/klabast/ts-subscribe/internal/teamsnap"
)

//go:embed static/index.html
var indexHTML []byte

func main() {
	// Check for subcommands
	if len(os.Args) > 1 && os.Args[1] == "hash-key" {
		commands.HashKey(os.Args[2:])
		return
	}

	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	listen := flag.String("listen", "", "HTTP listen address (overrides config if set)")
	flag.Parse()

	// Secrets come from the environment; a local .env is honored when present.
	_ = godotenv.Load()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		logger.New("info").WithError(err).Fatal("failed to load config")
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	log := logger.New(cfg.LogLevel)

	accessToken := os.Getenv("TEAMSNAP_ACCESS_TOKEN")
	if accessToken == "" {
		log.Fatal("TEAMSNAP_ACCESS_TOKEN environment variable is required")
	}
	creds := teamsnap.Credentials{
		AccessToken:  accessToken,
		RefreshToken: os.Getenv("TEAMSNAP_REFRESH_TOKEN"),
		ClientID:     os.Getenv("TEAMSNAP_CLIENT_ID"),
		ClientSecret: os.Getenv("TEAMSNAP_CLIENT_SECRET"),
	}

	keyHash, err := app.LoadFeedKeyHash()
	if err != nil {
		log.WithError(err).Fatal("failed to load feed key")
	}
	cfg.KeyHash = keyHash
	if keyHash == "" {
		log.Warn("no feed key configured, feed is served without a key check (run `ts-subscribe hash-key`)")
	}

	client := teamsnap.New(creds, log)
	cache := app.NewCache(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	srv := app.NewServer(cfg, client, cache, log, indexHTML)

	log.WithFields(map[string]interface{}{
		"listen":   cfg.Listen,
		"timezone": cfg.Timezone,
		"ttl_s":    cfg.CacheTTLSeconds,
	}).Info("Starting ts-subscribe")

	if err := http.ListenAndServe(cfg.Listen, srv.Handler()); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
