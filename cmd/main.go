package main

import (
	"context"

	auctionapp "github.com/cortega/playerauction/internal/auction/application"
	auctionws "github.com/cortega/playerauction/internal/auction/infra/websocket"
	rosterapp "github.com/cortega/playerauction/internal/roster/application"
	rosterhttp "github.com/cortega/playerauction/internal/roster/infra/http"
	"github.com/cortega/playerauction/internal/roster/infra/repository/postgres"
	"github.com/cortega/playerauction/internal/shared/config"
	"github.com/cortega/playerauction/internal/shared/db"
	"github.com/cortega/playerauction/internal/shared/db/migrations"
	"github.com/cortega/playerauction/internal/shared/httpserver"
	"github.com/cortega/playerauction/internal/shared/logger"
	ws "github.com/cortega/playerauction/internal/shared/websocket"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

func main() {
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting player auction server...")

	cfg := config.Load()

	if err := migrations.RunMigrations(cfg.PostgresDSN()); err != nil {
		log.Fatal("Database migration failed", zap.Error(err))
	}
	log.Info("Database migrations completed")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.GetPostgresPool(ctx, cfg.PostgresDSN())
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	defer pool.Close()

	playerRepo := postgres.NewPlayerRepository(pool)
	teamRepo := postgres.NewTeamRepository(pool)

	hub := ws.NewHub()
	go hub.Run(ctx)

	coordinator := auctionapp.NewCoordinator(
		playerRepo,
		teamRepo,
		auctionws.NewHubPublisher(hub),
		cfg.BidTimeout,
	)

	wsHandler := auctionws.NewAuctionWSHandler(ctx, coordinator, hub)
	go wsHandler.ListenForMessages(ctx)

	validate := validator.New()
	rosterService := rosterapp.NewRosterService(
		playerRepo,
		teamRepo,
		rosterapp.NewImportPlayersUseCase(playerRepo, validate),
		rosterapp.NewResetAuctionUseCase(playerRepo, teamRepo),
	)

	server := httpserver.NewServer()
	wsHandler.RegisterRoutes(server.App())
	rosterhttp.NewRosterHandler(rosterService, coordinator, validate).RegisterRoutes(server.App())

	if err := server.Start(cfg.HTTPAddr); err != nil {
		log.Fatal("HTTP server failed", zap.Error(err))
	}
}
