package scraper

import "context"

// actorScraper binds one actor id and run-input builder to the shared client.
type actorScraper struct {
	client  *Client
	network string
	actorID string
	input   func(keyword string) map[string]any
}

func (s *actorScraper) Scrape(ctx context.Context, keyword string) ([]Record, error) {
	return s.client.CallActor(ctx, s.network, s.actorID, s.input(keyword))
}

// Facebook scrapes public posts matching a keyword.
func (c *Client) Facebook() Scraper {
	return &actorScraper{
		client:  c,
		network: "facebook",
		actorID: c.cfg.FacebookActor,
		input: func(keyword string) map[string]any {
			return map[string]any{
				"keywordList":  []string{keyword},
				"resultsLimit": 20,
			}
		},
	}
}

// Tiktok scrapes videos by hashtag.
func (c *Client) Tiktok() Scraper {
	return &actorScraper{
		client:  c,
		network: "tiktok",
		actorID: c.cfg.TiktokActor,
		input: func(keyword string) map[string]any {
			return map[string]any{
				"enableCheerioBoost":            true,
				"hashtags":                      []string{keyword},
				"resultsPerPage":                20,
				"shouldDownloadVideos":          true,
				"shouldDownloadCovers":          false,
				"shouldDownloadSlideshowImages": false,
				"disableEnrichAuthorStats":      true,
				"disableCheerioBoost":           false,
			}
		},
	}
}

// Twitter scrapes tweets from a handle.
func (c *Client) Twitter() Scraper {
	return &actorScraper{
		client:  c,
		network: "twitter",
		actorID: c.cfg.TwitterActor,
		input: func(keyword string) map[string]any {
			return map[string]any{
				"handles":       []string{keyword},
				"tweetsDesired": 10,
				"addUserInfo":   true,
				"startUrls":     []string{},
				"proxyConfig":   map[string]any{"useApifyProxy": true},
			}
		},
	}
}

// Instagram scrapes posts by hashtag.
func (c *Client) Instagram() Scraper {
	return &actorScraper{
		client:  c,
		network: "instagram",
		actorID: c.cfg.InstagramActor,
		input: func(keyword string) map[string]any {
			return map[string]any{
				"search":       keyword,
				"resultsType":  "posts",
				"resultsLimit": 20,
				"searchType":   "hashtag",
				"searchLimit":  20,
			}
		},
	}
}

// Youtube scrapes videos matching a search.
func (c *Client) Youtube() Scraper {
	return &actorScraper{
		client:  c,
		network: "youtube",
		actorID: c.cfg.YoutubeActor,
		input: func(keyword string) map[string]any {
			return map[string]any{
				"searchKeywords":      keyword,
				"maxResults":          10,
				"sortingOrder":        "views",
				"sortChannelShortsBy": "POPULAR",
				"maxResultsShorts":    0,
				"maxResultStreams":    0,
			}
		},
	}
}

// Google scrapes search-engine result pages.
func (c *Client) Google() Scraper {
	return &actorScraper{
		client:  c,
		network: "google",
		actorID: c.cfg.GoogleActor,
		input: func(keyword string) map[string]any {
			return map[string]any{
				"queries":          keyword,
				"maxPagesPerQuery": 20,
				"resultsPerPage":   20,
				"mobileResults":    true,
				"customDataFunction": `async ({ input, $, request, response, html }) => {
					return {
						pageTitle: $('title').text(),
					};
				};`,
			}
		},
	}
}
