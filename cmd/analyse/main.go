package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/flavien-hugs/yimba-api/internal/auth"
	"github.com/flavien-hugs/yimba-api/internal/bootstrap"
	"github.com/flavien-hugs/yimba-api/internal/config"
	analysesvc "github.com/flavien-hugs/yimba-api/internal/services/analyse"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	app, err := bootstrap.New(context.Background(), "yimba-analyse", cfg, bootstrap.Options{WithMongo: true})
	if err != nil {
		log.Fatal(err)
	}

	mgr, err := auth.NewManager(cfg.JWT.Secret, cfg.JWT.Algorithm,
		cfg.JWT.AccessTTLMinutes, cfg.JWT.RefreshTTLMinutes)
	if err != nil {
		log.Fatal(err)
	}

	handler, err := analysesvc.NewHandler(app.Store, mgr, app.Log)
	if err != nil {
		log.Fatal(err)
	}
	handler.Register(app.Fiber)

	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
