package scraper

import "context"

type googleCombined struct {
	serp Scraper
	news *NewsAPI
}

// GoogleCombined merges the Google SERP actor output with press articles
// from NewsAPI into a single record, the shape the google service persists.
func (c *Client) GoogleCombined(news *NewsAPI) Scraper {
	return &googleCombined{serp: c.Google(), news: news}
}

func (g *googleCombined) Scrape(ctx context.Context, keyword string) ([]Record, error) {
	articles, err := g.news.Everything(ctx, keyword)
	if err != nil {
		return nil, err
	}
	pages, err := g.serp.Scrape(ctx, keyword)
	if err != nil {
		return nil, err
	}
	var organic any
	if len(pages) > 0 {
		organic = pages[0]["organicResults"]
	}
	return []Record{{
		"google":  organic,
		"newsapi": articles,
	}}, nil
}
