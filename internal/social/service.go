package social

import (
	"context"

	"github.com/flavien-hugs/yimba-api/internal/auth"
	"github.com/flavien-hugs/yimba-api/internal/bootstrap"
	"github.com/flavien-hugs/yimba-api/internal/cache"
	"github.com/flavien-hugs/yimba-api/internal/config"
	"github.com/flavien-hugs/yimba-api/internal/events"
	"github.com/flavien-hugs/yimba-api/internal/middleware"
	"github.com/flavien-hugs/yimba-api/internal/remote"
	"github.com/flavien-hugs/yimba-api/internal/scraper"
)

// PickScraper selects the network's scraper from the shared clients.
type PickScraper func(client *scraper.Client, news *scraper.NewsAPI) scraper.Scraper

// Serve composes and runs one network service: bootstrap skeleton, token
// manager, scraper client and the shared handler. The six network binaries
// differ only in the Network value and the scraper they pick.
func Serve(cfg *config.Config, name string, network Network, pick PickScraper) error {
	ctx := context.Background()
	app, err := bootstrap.New(ctx, name, cfg, bootstrap.Options{WithMongo: true, WithRedis: true})
	if err != nil {
		return err
	}

	mgr, err := auth.NewManager(cfg.JWT.Secret, cfg.JWT.Algorithm,
		cfg.JWT.AccessTTLMinutes, cfg.JWT.RefreshTTLMinutes)
	if err != nil {
		return err
	}

	if cfg.RateLimit.Enabled {
		app.Fiber.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	apify := scraper.NewClient(cfg.Apify, app.Log)
	news := scraper.NewNewsAPI(cfg.NewsAPI, app.Log)
	producer := events.NewProducer(cfg.KafkaBrokers(), cfg.Kafka.Topic, app.Log)
	defer producer.Close()

	handler, err := NewHandler(network, Deps{
		Store:    app.Store,
		Scraper:  pick(apify, news),
		Remote:   remote.New(cfg.Services, app.Log),
		Producer: producer,
		Cache:    cache.New(app.Redis, cfg.CacheTTL, app.Log),
		FontPath: cfg.Report.FontPath,
		Log:      app.Log,
	})
	if err != nil {
		return err
	}
	handler.Register(app.Fiber, mgr)
	return app.Run()
}
