package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMemoryStoreInsertAndFindOne(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Insert(ctx, "facebook", bson.M{"data": bson.M{"text": "bonjour"}})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := store.FindOne(ctx, "facebook", bson.M{"_id": id})
	require.NoError(t, err)
	assert.Equal(t, id, doc["_id"])

	_, err = store.FindOne(ctx, "facebook", bson.M{"_id": "missing"})
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestMemoryStoreUniqueEmail(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, "user", bson.M{"email": "a@b.cd"})
	require.NoError(t, err)

	_, err = store.Insert(ctx, "user", bson.M{"email": "a@b.cd"})
	assert.Error(t, err)
}

func TestMemoryStoreRegexFilter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, "tiktok", bson.M{"data": bson.M{"text": "Vive le Football"}})
	require.NoError(t, err)
	_, err = store.Insert(ctx, "tiktok", bson.M{"data": bson.M{"text": "rien ici"}})
	require.NoError(t, err)

	docs, err := store.Find(ctx, "tiktok", bson.M{
		"data.text": bson.M{"$regex": "football", "$options": "i"},
	})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestMemoryStoreOrFilterOverArrays(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, "tiktok", bson.M{
		"data": bson.M{"hashtags": bson.A{"sport", "yimba"}},
	})
	require.NoError(t, err)

	docs, err := store.Find(ctx, "tiktok", bson.M{"$or": []bson.M{
		{"data.hashtags": bson.M{"$regex": "yimba", "$options": "i"}},
		{"data.text": bson.M{"$regex": "yimba", "$options": "i"}},
	}})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestMemoryStoreFindSortsNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	old := time.Now().Add(-time.Hour)
	_, err := store.Insert(ctx, "facebook", bson.M{"created_at": old, "data": bson.M{"n": 1}})
	require.NoError(t, err)
	_, err = store.Insert(ctx, "facebook", bson.M{"created_at": time.Now(), "data": bson.M{"n": 2}})
	require.NoError(t, err)

	docs, err := store.Find(ctx, "facebook", bson.M{})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	first, _ := docs[0]["data"].(bson.M)
	assert.Equal(t, 2, first["n"])
}

func TestMemoryStoreMergeAndDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Insert(ctx, "role", bson.M{"name": "Admin", "slug": "admin"})
	require.NoError(t, err)

	count, err := store.Merge(ctx, "role", id, bson.M{"name": "Administrateur"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	doc, err := store.FindOne(ctx, "role", bson.M{"_id": id})
	require.NoError(t, err)
	assert.Equal(t, "Administrateur", doc["name"])

	count, err = store.Delete(ctx, "role", id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = store.Delete(ctx, "role", id)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestValidateEntities(t *testing.T) {
	assert.NoError(t, ValidateEntities("facebook", "user", "role"))
	assert.Error(t, ValidateEntities("linkedin"))
}
