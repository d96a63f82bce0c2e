package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/kollektive-hackathon/arbiter-agent/internal/arena"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/chain"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/config"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/middleware"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/ws"
	"github.com/kollektive-hackathon/arbiter-agent/internal/profile"
	"github.com/kollektive-hackathon/arbiter-agent/internal/view"
)

func main() {
	setupViper()
	setupZerolog()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	handles := chain.NewResolver()
	caller, err := handles.ReadHandle(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open read handle")
	}

	account := common.Address{}
	if cfg.PrivateKey != "" {
		writer, err := handles.WriteHandle(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open write handle")
		}
		account = writer.Account()
		log.Info().Str("account", account.Hex()).Msg("Signer configured")
	} else {
		log.Info().Msg("No signer configured, running read-only")
	}

	hub := ws.NewNotificationHub()
	engine := arena.NewEngine(cfg, caller, account, hub)
	pipeline := arena.NewPipeline(func(ctx context.Context) (arena.Writer, error) {
		return handles.WriteHandle(cfg)
	}, engine, hub, cfg.EmergencyClaimTimeout+cfg.EmergencyClaimMargin)
	names := profile.NewResolver(cfg, caller, pipeline, account)

	scheduler, err := arena.StartPolling(engine, cfg.PollInterval, cfg.RequestTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start polling scheduler")
	}

	server := &http.Server{
		Addr:        cfg.Port,
		Handler:     setupApiRouter(cfg, engine, pipeline, names, hub),
		ReadTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()
	log.Info().Str("addr", cfg.Port).Msg("Listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	if err := scheduler.Shutdown(); err != nil {
		log.Warn().Err(err).Msg("Error stopping scheduler")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Error stopping server")
	}
}

func setupApiRouter(cfg *config.Config, engine *arena.Engine, pipeline *arena.Pipeline, names *profile.Resolver, hub *ws.NotificationHub) *gin.Engine {
	apiRouter := gin.Default()
	routerGroup := apiRouter.Group("/arbiter-api")

	middleware.RegisterGlobalMiddleware(apiRouter)

	view.RegisterRoutes(routerGroup, cfg, engine, pipeline, names, hub)

	return apiRouter
}

func setupViper() {
	viper.AutomaticEnv()
	viper.SetConfigFile("./.env")
	_ = viper.ReadInConfig()
}

func setupZerolog() {
	zerolog.LevelFieldName = "severity"
	zerolog.TimestampFieldName = "time"
	zerolog.TimeFieldFormat = time.RFC3339Nano
}
