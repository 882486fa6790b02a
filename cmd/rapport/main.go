package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/flavien-hugs/yimba-api/internal/bootstrap"
	"github.com/flavien-hugs/yimba-api/internal/config"
	"github.com/flavien-hugs/yimba-api/internal/report"
	rapportsvc "github.com/flavien-hugs/yimba-api/internal/services/rapport"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	app, err := bootstrap.New(context.Background(), "yimba-rapport", cfg, bootstrap.Options{WithMongo: true})
	if err != nil {
		log.Fatal(err)
	}

	builder, err := report.NewBuilder(app.Store, cfg.Report.FontPath, app.Log)
	if err != nil {
		log.Fatal(err)
	}
	renderer, err := report.NewRenderer(cfg.Report.TemplateDir)
	if err != nil {
		log.Fatal(err)
	}

	rapportsvc.NewHandler(builder, renderer, app.Log).Register(app.Fiber)

	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
