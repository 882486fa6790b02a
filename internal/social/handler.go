package social

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/flavien-hugs/yimba-api/internal/apperr"
	"github.com/flavien-hugs/yimba-api/internal/auth"
	"github.com/flavien-hugs/yimba-api/internal/cache"
	"github.com/flavien-hugs/yimba-api/internal/cloud"
	"github.com/flavien-hugs/yimba-api/internal/events"
	"github.com/flavien-hugs/yimba-api/internal/middleware"
	"github.com/flavien-hugs/yimba-api/internal/models"
	"github.com/flavien-hugs/yimba-api/internal/remote"
	"github.com/flavien-hugs/yimba-api/internal/scraper"
	"github.com/flavien-hugs/yimba-api/internal/sentiment"
	"github.com/flavien-hugs/yimba-api/internal/storage"
)

// Deps carries everything a network handler needs. Producer, Cache and
// Remote may be nil: events and caching degrade to no-ops, and Remote is
// only dereferenced by networks that validate projects or forward
// sentiment.
type Deps struct {
	Store    storage.Store
	Scraper  scraper.Scraper
	Remote   *remote.Client
	Producer *events.Producer
	Cache    *cache.Cache
	FontPath string
	Log      *zap.SugaredLogger
}

// Handler serves the shared endpoint surface of one network service:
// search, scrape, delete, statistics and word-cloud generation.
type Handler struct {
	network Network
	posts   *storage.Collection[models.Post]
	deps    Deps
}

func NewHandler(network Network, deps Deps) (*Handler, error) {
	posts, err := storage.NewCollection[models.Post](deps.Store, network.Name)
	if err != nil {
		return nil, err
	}
	return &Handler{network: network, posts: posts, deps: deps}, nil
}

// Register mounts the routes under /api/<network>. Scraping and reads are
// open to admins and clients, deletion to admins only.
func (h *Handler) Register(app *fiber.App, mgr *auth.Manager) {
	read := middleware.Bearer(mgr, "admin", "client")
	admin := middleware.Bearer(mgr, "admin")

	group := app.Group("/api/" + h.network.Name)
	group.Get("/@ping", h.ping)
	group.Get("/", read, h.search)
	group.Get("/:keyword/statistics", read, h.statistics)
	group.Get("/:keyword/cloudtags", read, h.cloudtags)
	group.Get("/:keyword", read, h.scrape)
	group.Delete("/:id", admin, h.remove)
}

func (h *Handler) ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "pong !"})
}

// SearchFilter builds the case-insensitive regex filter matching any term of
// the query against any of the network's searchable fields. Terms are matched
// verbatim so accented queries find accented text. An empty query matches
// everything.
func SearchFilter(query string, fields []string) bson.M {
	if strings.TrimSpace(query) == "" {
		return bson.M{}
	}
	var clauses []bson.M
	for _, term := range strings.Fields(query) {
		for _, field := range fields {
			clauses = append(clauses, bson.M{field: bson.M{"$regex": term, "$options": "i"}})
		}
	}
	return bson.M{"$or": clauses}
}

// KeywordFilter matches one keyword verbatim against the given fields.
func KeywordFilter(keyword string, fields []string) bson.M {
	clauses := make([]bson.M, 0, len(fields))
	for _, field := range fields {
		clauses = append(clauses, bson.M{field: bson.M{"$regex": keyword, "$options": "i"}})
	}
	return bson.M{"$or": clauses}
}

func (h *Handler) search(c *fiber.Ctx) error {
	query := c.Query("search")
	page := c.QueryInt("page", 1)
	size := c.QueryInt("size", 0)

	cacheKey := fmt.Sprintf("%s:search:%s:%d:%d", h.network.Name, query, page, size)
	var cached storage.Page[models.Post]
	if h.deps.Cache.Get(c.Context(), cacheKey, &cached) {
		return c.JSON(cached)
	}

	items, err := h.posts.Find(c.Context(), SearchFilter(query, h.network.SearchFields))
	if err != nil {
		return err
	}
	result := storage.Paginate(items, page, size)
	h.deps.Cache.Set(c.Context(), cacheKey, result)
	return c.JSON(result)
}

func (h *Handler) scrape(c *fiber.Ctx) error {
	keyword := c.Params("keyword")
	credential := middleware.Credential(c)
	ctx := c.Context()

	if h.network.RequireProject {
		if _, err := h.deps.Remote.ValidateProjectExists(ctx, slug.Make(keyword), credential); err != nil {
			return err
		}
	}

	records, err := h.deps.Scraper.Scrape(ctx, keyword)
	if err != nil {
		return err
	}

	saved := 0
	var failures []string
	for _, record := range records {
		post := models.Post{Data: record}
		var score sentiment.Score
		if h.network.Sentiment {
			// aggregate documents (google) stay unscored
			score = sentiment.Analyze(h.network.PostText(record))
			post.Analyse = score.Map()
		}
		id, err := h.posts.Save(ctx, &post)
		if err != nil {
			h.deps.Log.Errorw("save scraped post",
				"network", h.network.Name, "keyword", keyword, "error", err)
			failures = append(failures, err.Error())
			continue
		}
		saved++
		if h.network.Sentiment {
			h.forwardAnalyse(id, score, credential)
		}
	}

	h.deps.Producer.PublishScrape(ctx, events.ScrapeEvent{
		Network: h.network.Name,
		Keyword: keyword,
		Saved:   saved,
		Failed:  len(failures),
	})
	h.deps.Cache.Invalidate(ctx, h.network.Name+":*")

	body := fiber.Map{"message": "Scrapping successful!", "saved": saved, "failed": len(failures)}
	if len(failures) > 0 {
		body["errors"] = failures
	}
	return c.JSON(body)
}

func (h *Handler) forwardAnalyse(postID string, score sentiment.Score, credential string) {
	if h.deps.Remote == nil {
		return
	}
	payload := remote.AnalysePayload{
		PostID:   postID,
		Neutre:   score.Neutre,
		Negatif:  score.Negatif,
		Positif:  score.Positif,
		Compound: score.Compound,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.deps.Remote.ForwardAnalyse(ctx, payload, credential); err != nil {
			h.deps.Log.Warnw("forward analyse", "post_id", postID, "error", err)
		}
	}()
}

func (h *Handler) remove(c *fiber.Ctx) error {
	id := c.Params("id")
	count, err := h.posts.DeleteByID(c.Context(), id)
	if err != nil {
		return err
	}
	status := fiber.StatusOK
	if count == 0 {
		status = fiber.StatusNotFound
	}
	h.deps.Cache.Invalidate(c.Context(), h.network.Name+":*")
	return c.Status(status).JSON(fiber.Map{
		"oid":           id,
		"acknowledged":  true,
		"deleted_count": count,
	})
}

func number(data map[string]any, key string) int64 {
	if key == "" {
		return 0
	}
	switch v := data[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func (h *Handler) statistics(c *fiber.Ctx) error {
	keyword := c.Params("keyword")

	cacheKey := fmt.Sprintf("%s:statistics:%s", h.network.Name, keyword)
	var cached fiber.Map
	if h.deps.Cache.Get(c.Context(), cacheKey, &cached) {
		return c.JSON(cached)
	}

	posts, err := h.posts.Find(c.Context(), KeywordFilter(keyword, h.network.SearchFields))
	if err != nil {
		return err
	}

	var likes, shares, views, comments int64
	for _, post := range posts {
		likes += number(post.Data, h.network.Stats.Likes)
		shares += number(post.Data, h.network.Stats.Shares)
		views += number(post.Data, h.network.Stats.Views)
		comments += number(post.Data, h.network.Stats.Comments)
	}
	result := fiber.Map{
		"total_likes_count":    likes,
		"total_shares_count":   shares,
		"total_views_count":    views,
		"total_comments_count": comments,
		"total_posts_count":    len(posts),
	}
	h.deps.Cache.Set(c.Context(), cacheKey, result)
	return c.JSON(result)
}

func (h *Handler) cloudtags(c *fiber.Ctx) error {
	keyword := c.Params("keyword")

	cacheKey := fmt.Sprintf("%s:cloudtags:%s", h.network.Name, keyword)
	var cached []byte
	if h.deps.Cache.Get(c.Context(), cacheKey, &cached) {
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(cached)
	}

	posts, err := h.posts.Find(c.Context(), KeywordFilter(keyword, h.network.SearchFields))
	if err != nil {
		return err
	}

	var sb strings.Builder
	for _, post := range posts {
		sb.WriteString(h.network.PostText(post.Data))
		sb.WriteString(" ")
	}
	counts := cloud.Keywords(sb.String())
	if len(counts) == 0 {
		return fmt.Errorf("%w: no post matches keyword '%s'", apperr.ErrNotFound, keyword)
	}

	png, err := cloud.Image(counts, h.deps.FontPath)
	if err != nil {
		return err
	}
	h.deps.Cache.Set(c.Context(), cacheKey, png)
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}
