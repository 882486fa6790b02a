// Package storage implements the document mapper shared by every service:
// a thin client over MongoDB plus a generic per-entity collection API.
//
// Entities are registered in an explicit mapping table (logical name to
// physical collection) validated when the store is built; an unknown entity
// is a programming error surfaced at startup, not at query time.
package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/flavien-hugs/yimba-api/internal/apperr"
)

// ErrNoDocument reports an empty FindOne result.
var ErrNoDocument = fmt.Errorf("%w: no document found", apperr.ErrNotFound)

// Entities is the mapping from logical entity names to physical collection
// names. The physical names predate this service generation and are kept for
// compatibility with existing data.
var Entities = map[string]string{
	"facebook":  "FacebookInDB",
	"tiktok":    "TiktokInDB",
	"twitter":   "TwitterInDB",
	"instagram": "InstagramInDB",
	"youtube":   "YoutubeInDB",
	"google":    "GoogleInDB",
	"analyse":   "AnalyseInDB",
	"project":   "ProjectInDB",
	"role":      "RoleInDB",
	"user":      "UserInDB",
}

// UniqueKeys lists the fields that must be unique per entity. The Mongo
// store enforces them with unique sparse indexes, the memory store emulates
// them so tests observe the same conflicts.
var UniqueKeys = map[string][]string{
	"user": {"email"},
}

// Store is the minimal document API the services are written against. All
// documents travel as bson.M so both the Mongo store and the in-memory test
// store can serve the same handlers.
type Store interface {
	// Insert stores a new document and returns its generated id.
	Insert(ctx context.Context, entity string, doc bson.M) (string, error)
	// Merge $set-merges fields into the document with the given id and
	// returns the modified count. Last write wins, there is no conflict
	// detection.
	Merge(ctx context.Context, entity, id string, fields bson.M) (int64, error)
	// Delete removes by id and returns the deleted count. A missing id is
	// not an error, it simply reports zero matches.
	Delete(ctx context.Context, entity, id string) (int64, error)
	// FindOne returns the first matching document or ErrNoDocument.
	FindOne(ctx context.Context, entity string, filter bson.M) (bson.M, error)
	// Find returns all matching documents ordered by descending creation
	// time. Every call issues a fresh query.
	Find(ctx context.Context, entity string, filter bson.M) ([]bson.M, error)
	// Count returns the number of matching documents.
	Count(ctx context.Context, entity string, filter bson.M) (int64, error)
	// Close releases the underlying connections.
	Close(ctx context.Context) error
}

func collectionFor(entity string) (string, error) {
	name, ok := Entities[entity]
	if !ok {
		return "", fmt.Errorf("storage: unknown entity %q", entity)
	}
	return name, nil
}

// ValidateEntities checks that every requested entity is registered. Services
// call this at startup so a typo fails the boot, not the first request.
func ValidateEntities(names ...string) error {
	for _, n := range names {
		if _, err := collectionFor(n); err != nil {
			return err
		}
	}
	return nil
}
