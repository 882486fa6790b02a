package report

import (
	"context"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/flavien-hugs/yimba-api/internal/cloud"
	"github.com/flavien-hugs/yimba-api/internal/models"
	"github.com/flavien-hugs/yimba-api/internal/storage"
)

// Totals aggregates engagement counters for one network.
type Totals struct {
	Likes    int64 `json:"likes"`
	Shares   int64 `json:"shares"`
	Views    int64 `json:"views"`
	Comments int64 `json:"comments"`
}

// Data feeds the report template: per-network totals, the combined pie
// chart and the word cloud built from every post text matching the keyword.
type Data struct {
	Keyword     string
	PageTitle   string
	GeneratedAt time.Time

	Facebook  Totals
	Tiktok    Totals
	Youtube   Totals
	Instagram Totals
	Combined  Totals

	Keywords   []string
	ChartImage template.URL
	CloudImage template.URL
}

// Builder aggregates persisted posts into report data. It reads the same
// collections the network services write to.
type Builder struct {
	facebook  *storage.Collection[models.Post]
	tiktok    *storage.Collection[models.Post]
	youtube   *storage.Collection[models.Post]
	instagram *storage.Collection[models.Post]
	fontPath  string
	log       *zap.SugaredLogger
}

func NewBuilder(store storage.Store, fontPath string, log *zap.SugaredLogger) (*Builder, error) {
	b := &Builder{fontPath: fontPath, log: log}
	var err error
	if b.facebook, err = storage.NewCollection[models.Post](store, "facebook"); err != nil {
		return nil, err
	}
	if b.tiktok, err = storage.NewCollection[models.Post](store, "tiktok"); err != nil {
		return nil, err
	}
	if b.youtube, err = storage.NewCollection[models.Post](store, "youtube"); err != nil {
		return nil, err
	}
	if b.instagram, err = storage.NewCollection[models.Post](store, "instagram"); err != nil {
		return nil, err
	}
	return b, nil
}

func keywordFilter(keyword string, fields ...string) bson.M {
	clauses := make([]bson.M, 0, len(fields))
	for _, field := range fields {
		clauses = append(clauses, bson.M{field: bson.M{"$regex": keyword, "$options": "i"}})
	}
	return bson.M{"$or": clauses}
}

// number coerces the count types mongo and JSON hand back.
func number(data map[string]any, key string) int64 {
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

func (b *Builder) networkTotals(ctx context.Context, col *storage.Collection[models.Post], filter bson.M, likes, shares, views, comments string) (Totals, error) {
	posts, err := col.Find(ctx, filter)
	if err != nil {
		return Totals{}, err
	}
	var totals Totals
	for _, post := range posts {
		totals.Likes += number(post.Data, likes)
		if shares != "" {
			totals.Shares += number(post.Data, shares)
		}
		if views != "" {
			totals.Views += number(post.Data, views)
		}
		totals.Comments += number(post.Data, comments)
	}
	return totals, nil
}

func (b *Builder) collectText(ctx context.Context, col *storage.Collection[models.Post], filter bson.M, field string) string {
	posts, err := col.Find(ctx, filter)
	if err != nil {
		b.log.Warnw("collect report text", "field", field, "error", err)
		return ""
	}
	var sb strings.Builder
	for _, post := range posts {
		if text, ok := post.Data[field].(string); ok {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

// Build gathers totals, the pie chart and the word cloud for keyword.
func (b *Builder) Build(ctx context.Context, keyword string) (*Data, error) {
	data := &Data{
		Keyword:     keyword,
		PageTitle:   strings.ToUpper(keyword),
		GeneratedAt: time.Now().UTC(),
	}

	var err error
	data.Facebook, err = b.networkTotals(ctx,
		b.facebook, keywordFilter(keyword, "data.hashtag", "data.text"),
		"likesCount", "sharesCount", "viewsCount", "commentsCount")
	if err != nil {
		return nil, fmt.Errorf("facebook totals: %w", err)
	}

	data.Tiktok, err = b.networkTotals(ctx,
		b.tiktok, keywordFilter(keyword, "data.searchHashtag.name", "data.hashtags", "data.text"),
		"diggCount", "shareCount", "playCount", "commentCount")
	if err != nil {
		return nil, fmt.Errorf("tiktok totals: %w", err)
	}

	data.Youtube, err = b.networkTotals(ctx,
		b.youtube, keywordFilter(keyword, "data.title", "data.text"),
		"likes", "shareCount", "viewCount", "commentsCount")
	if err != nil {
		return nil, fmt.Errorf("youtube totals: %w", err)
	}

	data.Instagram, err = b.networkTotals(ctx,
		b.instagram, keywordFilter(keyword, "data.hashtags", "data.alt"),
		"likesCount", "", "", "commentsCount")
	if err != nil {
		return nil, fmt.Errorf("instagram totals: %w", err)
	}

	data.Combined = Totals{
		Likes:    data.Facebook.Likes + data.Tiktok.Likes + data.Youtube.Likes + data.Instagram.Likes,
		Shares:   data.Facebook.Shares + data.Tiktok.Shares + data.Youtube.Shares,
		Views:    data.Facebook.Views + data.Tiktok.Views + data.Youtube.Views,
		Comments: data.Facebook.Comments + data.Tiktok.Comments + data.Youtube.Comments + data.Instagram.Comments,
	}

	if uri, err := pieChart(data.Combined); err != nil {
		b.log.Warnw("render report chart", "keyword", keyword, "error", err)
	} else {
		data.ChartImage = uri
	}

	var text strings.Builder
	text.WriteString(b.collectText(ctx, b.tiktok, keywordFilter(keyword, "data.text"), "text"))
	text.WriteString(b.collectText(ctx, b.instagram, keywordFilter(keyword, "data.caption"), "caption"))
	text.WriteString(b.collectText(ctx, b.facebook, keywordFilter(keyword, "data.text"), "text"))
	text.WriteString(b.collectText(ctx, b.youtube, keywordFilter(keyword, "data.text"), "text"))

	counts := cloud.Keywords(text.String())
	for word := range cloud.Top(counts, 50) {
		data.Keywords = append(data.Keywords, word)
	}
	sort.Strings(data.Keywords)

	if len(counts) > 0 && b.fontPath != "" {
		png, err := cloud.Image(counts, b.fontPath)
		if err != nil {
			b.log.Warnw("render report cloud", "keyword", keyword, "error", err)
		} else {
			data.CloudImage = dataURI(png)
		}
	}
	return data, nil
}
