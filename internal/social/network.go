package social

import "strings"

// StatFields names the raw data keys a network exposes for each counter.
// An empty name means the network does not report that counter.
type StatFields struct {
	Likes    string
	Shares   string
	Views    string
	Comments string
}

// Network describes how one social network maps onto the shared post
// pipeline: which data fields are searchable, where the post text lives
// and how engagement counters are named in the scraped payload.
type Network struct {
	// Name is the route prefix and the storage entity key.
	Name string

	// SearchFields are the data.* paths the search endpoint matches on.
	SearchFields []string

	// TextField holds the post text used for sentiment and word clouds.
	TextField string

	// Text overrides TextField extraction when the payload is nested.
	Text func(data map[string]any) string

	Stats StatFields

	// RequireProject gates scraping behind an existing project slug.
	RequireProject bool

	// Sentiment controls per-post scoring and forwarding to the analyse
	// service. Off for networks persisting aggregate documents.
	Sentiment bool
}

// PostText extracts the text of one persisted or scraped payload.
func (n Network) PostText(data map[string]any) string {
	if n.Text != nil {
		return n.Text(data)
	}
	if n.TextField == "" {
		return ""
	}
	text, _ := data[n.TextField].(string)
	return text
}

var Facebook = Network{
	Name:           "facebook",
	SearchFields:   []string{"data.hashtag", "data.text"},
	TextField:      "text",
	Stats:          StatFields{Likes: "likesCount", Shares: "sharesCount", Views: "viewsCount", Comments: "commentsCount"},
	RequireProject: true,
	Sentiment:      true,
}

var Tiktok = Network{
	Name:         "tiktok",
	SearchFields: []string{"data.searchHashtag.name", "data.hashtags", "data.text"},
	TextField:    "text",
	Stats:        StatFields{Likes: "diggCount", Shares: "shareCount", Views: "playCount", Comments: "commentCount"},
	Sentiment:    true,
}

var Twitter = Network{
	Name:         "twitter",
	SearchFields: []string{"data.hashtags", "data.text"},
	TextField:    "text",
	Stats:        StatFields{Likes: "favoriteCount", Shares: "retweetCount", Views: "viewCount", Comments: "replyCount"},
	Sentiment:    true,
}

var Instagram = Network{
	Name:         "instagram",
	SearchFields: []string{"data.hashtags", "data.alt"},
	TextField:    "caption",
	Stats:        StatFields{Likes: "likesCount", Comments: "commentsCount"},
	Sentiment:    true,
}

var Youtube = Network{
	Name:         "youtube",
	SearchFields: []string{"data.title", "data.text"},
	TextField:    "text",
	Stats:        StatFields{Likes: "likes", Shares: "shareCount", Views: "viewCount", Comments: "commentsCount"},
	Sentiment:    true,
}

// Google persists one aggregate document per scrape mixing search-engine
// results and press articles, so its text spans both result sets and no
// per-post sentiment is produced.
var Google = Network{
	Name:         "google",
	SearchFields: []string{"data.google.description", "data.google.title", "data.newsapi.title"},
	Text:         googleText,
}

func googleText(data map[string]any) string {
	var sb strings.Builder
	appendItems := func(items any, fields ...string) {
		list, ok := items.([]any)
		if !ok {
			return
		}
		for _, item := range list {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			for _, field := range fields {
				if text, ok := entry[field].(string); ok {
					sb.WriteString(text)
					sb.WriteString(" ")
				}
			}
		}
	}
	appendItems(data["google"], "title", "description")
	appendItems(data["newsapi"], "title", "description")
	return sb.String()
}
