package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/skirmish/internal/config"
	"github.com/danmuck/skirmish/internal/logging"
	"github.com/danmuck/skirmish/internal/server"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "cmd/gameserver/config.toml", "server config path")
	addr := flag.String("addr", "", "listen address override")
	flag.Parse()

	logging.ConfigureRuntime("gameserver")
	settings, err := config.LoadServerConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load server config")
	}
	if *addr != "" {
		settings.Server.Addr = *addr
	}
	logging.Setup("gameserver", settings.Log)
	log.Info().Str("path", *configPath).Msg("loaded server config")

	srv, err := server.New(settings.Server)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("id", settings.Server.ID).
		Str("addr", settings.Server.Addr).
		Int("tick_rate", settings.Server.TickRate).
		Msg("gameserver started")
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("gameserver stopped")
	}
	log.Info().Msg("gameserver stopped")
}
