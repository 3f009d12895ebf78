package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Alexus55/DrawingImposter2/api"
	"github.com/Alexus55/DrawingImposter2/archive"
	"github.com/Alexus55/DrawingImposter2/game"
	"github.com/Alexus55/DrawingImposter2/util"
	"github.com/Alexus55/DrawingImposter2/ws"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	util.InitValidator()

	config, err := util.LoadConfig()

	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}

	if err := util.InitLogger(config.LogLevel, config.LogPretty); err != nil {
		log.Fatal().Err(err).Msg("configuring logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	words := game.DefaultWordList()
	if config.WordsFile != "" {
		if words, err = game.LoadWordList(config.WordsFile); err != nil {
			log.Fatal().Err(err).Msg("loading word list")
		}
	}
	log.Info().Int("words", words.Len()).Msg("word list loaded")

	var results archive.Archive
	if config.ArchiveEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     config.RedisAddress,
			Password: config.RedisPassword,
			DB:       0,
		})
		defer rdb.Close()

		redisArchive := archive.NewRedisArchive(rdb)

		// check redis connection status
		if err := redisArchive.Ping(ctx); err != nil {
			log.Fatal().Err(err).Str("addr", config.RedisAddress).Msg("connecting to redis")
		}

		results = redisArchive
	}

	manager := ws.NewManager(config, results, game.WithWords(words))
	server := api.NewServer(config, manager, results)

	if err := server.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
