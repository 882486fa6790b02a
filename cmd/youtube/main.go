package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/flavien-hugs/yimba-api/internal/config"
	"github.com/flavien-hugs/yimba-api/internal/scraper"
	"github.com/flavien-hugs/yimba-api/internal/social"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	pick := func(client *scraper.Client, _ *scraper.NewsAPI) scraper.Scraper {
		return client.Youtube()
	}
	if err := social.Serve(cfg, "yimba-youtube", social.Youtube, pick); err != nil {
		log.Fatal(err)
	}
}
