package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/museumtech/exhibition-manager/internal/config"
	"github.com/museumtech/exhibition-manager/internal/database"
	"github.com/museumtech/exhibition-manager/internal/handler"
	"github.com/museumtech/exhibition-manager/internal/middleware"
	"github.com/museumtech/exhibition-manager/internal/queue"
	"github.com/museumtech/exhibition-manager/internal/repository"
	"github.com/museumtech/exhibition-manager/internal/router"
	"github.com/museumtech/exhibition-manager/internal/service"
	"github.com/museumtech/exhibition-manager/web"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set env directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Redis is optional. When it is unreachable the response cache is
	// disabled and the content-event consumer is not started.
	rdb := config.NewRedisClient()
	cacheCfg := config.LoadCacheConfig()

	admins := repository.NewAdminRepo(db)
	exhibitions := repository.NewExhibitionRepo(db)
	stations := repository.NewStationRepo(db)
	events := service.NewContentPublisher(rdb, cacheCfg.Prefix)

	authH := handler.NewAuthHandler(cfg, admins)
	exhibitionH := handler.NewExhibitionHandler(cfg, exhibitions, events)
	stationH := handler.NewStationHandler(exhibitions, stations, events)

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH)
	router.RegisterAdmin(e, exhibitionH, stationH, cfg.JWTSecret, middleware.NewRedisCache(cacheCfg, rdb))
	web.Register(e)

	if rdb != nil {
		go func() {
			if err := queue.StartContentConsumer(rdb, cacheCfg.Prefix); err != nil {
				log.Printf("content-consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
