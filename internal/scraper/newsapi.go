package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/flavien-hugs/yimba-api/internal/apperr"
	"github.com/flavien-hugs/yimba-api/internal/config"
	"github.com/flavien-hugs/yimba-api/internal/httpclient"
)

// NewsAPI fetches press articles matching a keyword from newsapi.org. It
// complements the Google actor on the google service, which merges both
// result sets into a single document.
type NewsAPI struct {
	cfg  config.NewsAPICfg
	http *httpclient.Client
	log  *zap.SugaredLogger
}

func NewNewsAPI(cfg config.NewsAPICfg, log *zap.SugaredLogger) *NewsAPI {
	return &NewsAPI{
		cfg:  cfg,
		http: httpclient.New(httpclient.Config{}),
		log:  log,
	}
}

type newsAPIResponse struct {
	Status       string   `json:"status"`
	TotalResults int      `json:"totalResults"`
	Articles     []Record `json:"articles"`
	Code         string   `json:"code"`
	Message      string   `json:"message"`
}

// Everything queries the /v2/everything endpoint sorted by relevancy.
func (n *NewsAPI) Everything(ctx context.Context, keyword string) ([]Record, error) {
	query := url.Values{}
	query.Set("q", keyword)
	query.Set("sortBy", "relevancy")
	query.Set("page", "5")

	endpoint := fmt.Sprintf("%s/everything?%s", strings.TrimRight(n.cfg.BaseURL, "/"), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("newsapi: build request: %w", err)
	}
	req.Header.Set("X-Api-Key", n.cfg.Key)

	resp, err := n.http.DoWithRetry(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: newsapi: %v", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	var out newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: newsapi: decode response: %v", apperr.ErrUpstream, err)
	}
	if out.Status != "ok" {
		n.log.Errorw("newsapi request rejected", "code", out.Code, "message", out.Message)
		return nil, fmt.Errorf("%w: the newsapi scraper run has failed", apperr.ErrUpstream)
	}
	return out.Articles, nil
}
