package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flavien-hugs/yimba-api/internal/models"
	"github.com/flavien-hugs/yimba-api/internal/storage"
)

func seedPosts(t *testing.T, store storage.Store, entity string, datas ...map[string]any) {
	t.Helper()
	col, err := storage.NewCollection[models.Post](store, entity)
	require.NoError(t, err)
	for _, data := range datas {
		_, err := col.Save(context.Background(), &models.Post{Data: data})
		require.NoError(t, err)
	}
}

func TestBuildAggregatesPerNetwork(t *testing.T) {
	store := storage.NewMemoryStore()
	seedPosts(t, store, "facebook",
		map[string]any{"text": "élections abidjan", "likesCount": 10, "sharesCount": 2, "viewsCount": 100, "commentsCount": 5},
		map[string]any{"text": "autre sujet", "likesCount": 99},
	)
	seedPosts(t, store, "tiktok",
		map[string]any{"text": "abidjan by night", "diggCount": 7, "shareCount": 1, "playCount": 50, "commentCount": 3},
	)
	seedPosts(t, store, "youtube",
		map[string]any{"title": "Vivre à Abidjan", "text": "documentaire abidjan", "likes": 4, "viewCount": 20, "commentsCount": 1},
	)
	seedPosts(t, store, "instagram",
		map[string]any{"alt": "abidjan plage", "caption": "la plage abidjan", "likesCount": 6, "commentsCount": 2},
	)

	b, err := NewBuilder(store, "", zap.NewNop().Sugar())
	require.NoError(t, err)

	data, err := b.Build(context.Background(), "abidjan")
	require.NoError(t, err)

	assert.Equal(t, "abidjan", data.Keyword)
	assert.Equal(t, "ABIDJAN", data.PageTitle)

	assert.Equal(t, Totals{Likes: 10, Shares: 2, Views: 100, Comments: 5}, data.Facebook)
	assert.Equal(t, Totals{Likes: 7, Shares: 1, Views: 50, Comments: 3}, data.Tiktok)
	assert.Equal(t, Totals{Likes: 4, Views: 20, Comments: 1}, data.Youtube)
	assert.Equal(t, Totals{Likes: 6, Comments: 2}, data.Instagram)

	assert.Equal(t, Totals{Likes: 27, Shares: 3, Views: 170, Comments: 11}, data.Combined)

	assert.NotEmpty(t, data.ChartImage)
	assert.Contains(t, data.Keywords, "abidjan")
	// no font configured: the cloud image stays empty, the report renders without it
	assert.Empty(t, data.CloudImage)
}

func TestBuildNoMatches(t *testing.T) {
	b, err := NewBuilder(storage.NewMemoryStore(), "", zap.NewNop().Sugar())
	require.NoError(t, err)

	data, err := b.Build(context.Background(), "rien")
	require.NoError(t, err)
	assert.Equal(t, Totals{}, data.Combined)
	assert.Empty(t, data.Keywords)
	assert.Empty(t, data.ChartImage)
}

func TestNumberCoercions(t *testing.T) {
	data := map[string]any{"a": 1, "b": int32(2), "c": int64(3), "d": 4.9, "e": "nope"}
	assert.EqualValues(t, 1, number(data, "a"))
	assert.EqualValues(t, 2, number(data, "b"))
	assert.EqualValues(t, 3, number(data, "c"))
	assert.EqualValues(t, 4, number(data, "d"))
	assert.EqualValues(t, 0, number(data, "e"))
	assert.EqualValues(t, 0, number(data, "missing"))
}
