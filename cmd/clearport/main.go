package main

import (
	"flag"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/layer-3/clearport/adapters/events"
	"github.com/layer-3/clearport/adapters/signer"
	"github.com/layer-3/clearport/adapters/store"
	"github.com/layer-3/clearport/config"
	"github.com/layer-3/clearport/ports"
	"github.com/layer-3/clearport/service"
	transporthttp "github.com/layer-3/clearport/transport/http"
	"github.com/layer-3/clearport/transport/ws"
)

func main() {
	configPath := flag.String("config", "clearport.toml", "path to the TOML config file")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	var transferStore ports.Store
	var eventPub ports.EventPublisher

	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to parse redis url")
		}
		redisClient := redis.NewClient(opts)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create redis publisher")
		}

		transferStore = store.NewRedisStore(redisClient)
		eventPub = events.NewWatermillPublisher(publisher)
	} else {
		transferStore = store.NewMemoryStore()
	}

	var defaultSigner ports.Signer
	if cfg.PrivateKey != "" {
		defaultSigner, err = signer.NewFromHex(cfg.PrivateKey)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to parse signing key")
		}
	}

	engine := service.NewEngine(
		ws.NewDialer(log),
		service.Config{
			NodeURL:     cfg.Node.URL,
			AssetToken:  cfg.Node.AssetToken,
			AppName:     cfg.Node.AppName,
			Application: cfg.Node.Application,
			Scope:       cfg.Node.Scope,
			Timeout:     cfg.Node.Timeout(),
		},
		transferStore,
		eventPub,
		log,
	)

	handlers := transporthttp.NewTransferHandlers(engine, transferStore, defaultSigner)
	router := transporthttp.SetupRouter(handlers)

	log.Info().Str("listen", cfg.HTTP.Listen).Str("node", cfg.Node.URL).Msg("starting clearport")
	if err := router.Run(cfg.HTTP.Listen); err != nil {
		log.Fatal().Err(err).Msg("server terminated")
	}
}
