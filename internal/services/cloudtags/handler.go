// Package cloudtags implements the cross-network word-cloud service. It
// reads the text of every post matching a keyword on TikTok, Instagram,
// Facebook and YouTube and derives tags from the merged corpus.
package cloudtags

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/flavien-hugs/yimba-api/internal/apperr"
	"github.com/flavien-hugs/yimba-api/internal/auth"
	"github.com/flavien-hugs/yimba-api/internal/cloud"
	"github.com/flavien-hugs/yimba-api/internal/middleware"
	"github.com/flavien-hugs/yimba-api/internal/models"
	"github.com/flavien-hugs/yimba-api/internal/social"
	"github.com/flavien-hugs/yimba-api/internal/storage"
)

type source struct {
	network social.Network
	posts   *storage.Collection[models.Post]
}

type Handler struct {
	sources  []source
	mgr      *auth.Manager
	fontPath string
	log      *zap.SugaredLogger
}

func NewHandler(store storage.Store, mgr *auth.Manager, fontPath string, log *zap.SugaredLogger) (*Handler, error) {
	networks := []social.Network{social.Tiktok, social.Instagram, social.Facebook, social.Youtube}
	sources := make([]source, 0, len(networks))
	for _, network := range networks {
		posts, err := storage.NewCollection[models.Post](store, network.Name)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source{network: network, posts: posts})
	}
	return &Handler{sources: sources, mgr: mgr, fontPath: fontPath, log: log}, nil
}

func (h *Handler) Register(app *fiber.App) {
	read := middleware.Bearer(h.mgr, "admin", "client")

	group := app.Group("/api/cloudtags")
	group.Get("/@ping", h.ping)
	group.Get("/:keyword/image", read, h.image)
	group.Get("/:keyword", read, h.tags)
}

func (h *Handler) ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "pong !"})
}

func (h *Handler) collectText(ctx context.Context, keyword string) string {
	var sb strings.Builder
	for _, src := range h.sources {
		filter := social.SearchFilter(keyword, []string{"data." + src.network.TextField})
		posts, err := src.posts.Find(ctx, filter)
		if err != nil {
			h.log.Warnw("collect cloudtags text",
				"network", src.network.Name, "keyword", keyword, "error", err)
			continue
		}
		for _, post := range posts {
			sb.WriteString(src.network.PostText(post.Data))
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

func (h *Handler) tags(c *fiber.Ctx) error {
	keyword := c.Params("keyword")
	counts := cloud.Keywords(h.collectText(c.Context(), keyword))
	tags := make([]string, 0, len(counts))
	for word := range cloud.Top(counts, 200) {
		tags = append(tags, word)
	}
	sort.Strings(tags)
	return c.JSON(fiber.Map{"tags": tags})
}

func (h *Handler) image(c *fiber.Ctx) error {
	keyword := c.Params("keyword")
	counts := cloud.Keywords(h.collectText(c.Context(), keyword))
	if len(counts) == 0 {
		return fmt.Errorf("%w: no post matches keyword '%s'", apperr.ErrNotFound, keyword)
	}
	png, err := cloud.Image(counts, h.fontPath)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}
