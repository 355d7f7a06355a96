package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"dpmaster/internal/challenge"
	"dpmaster/internal/config"
	"dpmaster/internal/httpapi"
	"dpmaster/internal/master"
	"dpmaster/internal/servers"
	"dpmaster/internal/util"
)

func main() {
	configPath := flag.String("config", "config.json", "path to JSON config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	util.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir := servers.NewDirectory(cfg.ServerTimeout())
	challenges := challenge.NewStore(cfg.ChallengeTTL())
	m := master.New(cfg, dir, challenges)

	servers.StartJanitor(ctx, dir, cfg.JanitorInterval(),
		util.ComponentLogger("janitor"), challenges.Sweep)

	go func() {
		api := httpapi.NewServer(dir)
		if err := api.Start(ctx, cfg.APIPort); err != nil {
			log.Error().Err(err).Msg("http api failed")
		}
	}()

	if err := m.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("master server failed")
	}
}
