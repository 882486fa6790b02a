package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/flavien-hugs/yimba-api/internal/apperr"
)

type note struct {
	Meta `bson:",inline"`

	Title string `bson:"title" json:"title"`
	Body  string `bson:"body,omitempty" json:"body,omitempty"`
}

func newNotes(t *testing.T) *Collection[note] {
	t.Helper()
	col, err := NewCollection[note](NewMemoryStore(), "project")
	require.NoError(t, err)
	return col
}

func TestNewCollectionRejectsUnknownEntity(t *testing.T) {
	_, err := NewCollection[note](NewMemoryStore(), "linkedin")
	assert.Error(t, err)
}

func TestCollectionSaveStampsMeta(t *testing.T) {
	col := newNotes(t)
	ctx := context.Background()

	doc := note{Title: "veille"}
	id, err := col.Save(ctx, &doc)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, doc.ID)
	assert.False(t, doc.CreatedAt.IsZero())

	got, err := col.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "veille", got.Title)
	assert.Equal(t, id, got.ID)
}

func TestCollectionGetMissing(t *testing.T) {
	col := newNotes(t)

	_, err := col.Get(context.Background(), "64d8a6f1e7a3b2c1d0e9f8a7")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCollectionUpdateFields(t *testing.T) {
	col := newNotes(t)
	ctx := context.Background()

	doc := note{Title: "avant"}
	id, err := col.Save(ctx, &doc)
	require.NoError(t, err)

	count, err := col.UpdateFields(ctx, id, bson.M{"title": "après"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := col.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "après", got.Title)
}

func TestCollectionUpdateKeepsIdentityAndCreatedAt(t *testing.T) {
	col := newNotes(t)
	ctx := context.Background()

	doc := note{Title: "avant"}
	id, err := col.Save(ctx, &doc)
	require.NoError(t, err)
	createdAt := doc.CreatedAt
	savedAt := doc.UpdatedAt

	// bson truncates timestamps to milliseconds on the roundtrip
	time.Sleep(5 * time.Millisecond)

	doc.Title = "après"
	count, err := col.Update(ctx, &doc)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := col.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "après", got.Title)
	assert.Equal(t, id, got.ID)
	assert.WithinDuration(t, createdAt, got.CreatedAt, time.Millisecond)
	assert.True(t, got.UpdatedAt.After(savedAt))
}

func TestCollectionUpdateFieldsRefreshesUpdatedAt(t *testing.T) {
	col := newNotes(t)
	ctx := context.Background()

	doc := note{Title: "avant"}
	id, err := col.Save(ctx, &doc)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	count, err := col.UpdateFields(ctx, id, bson.M{"title": "après"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := col.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.WithinDuration(t, doc.CreatedAt, got.CreatedAt, time.Millisecond)
	assert.True(t, got.UpdatedAt.After(doc.UpdatedAt))
}

func TestCollectionDeleteByID(t *testing.T) {
	col := newNotes(t)
	ctx := context.Background()

	doc := note{Title: "éphémère"}
	id, err := col.Save(ctx, &doc)
	require.NoError(t, err)

	count, err := col.DeleteByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = col.DeleteByID(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCollectionFindAndCount(t *testing.T) {
	col := newNotes(t)
	ctx := context.Background()

	for _, title := range []string{"football", "musique", "football féminin"} {
		doc := note{Title: title}
		_, err := col.Save(ctx, &doc)
		require.NoError(t, err)
	}

	filter := bson.M{"title": bson.M{"$regex": "football", "$options": "i"}}
	items, err := col.Find(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	count, err := col.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
