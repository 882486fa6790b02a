package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Meta carries the identity and timestamps every persisted document has.
// The identifier is immutable after creation, created_at is set once and
// updated_at is refreshed on every mutating operation.
type Meta struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func (m *Meta) meta() *Meta { return m }

// Document is implemented by embedding Meta.
type Document interface{ meta() *Meta }

// Collection is the typed mapper for one entity. It stamps timestamps,
// translates between the model type and the raw document representation and
// delegates persistence to the injected Store.
type Collection[T any] struct {
	store  Store
	entity string
}

// NewCollection binds a model type to a registered entity. It fails when the
// entity is unknown or when *T does not embed Meta, so miswiring is caught at
// service startup.
func NewCollection[T any](store Store, entity string) (*Collection[T], error) {
	if _, err := collectionFor(entity); err != nil {
		return nil, err
	}
	var t T
	if _, ok := any(&t).(Document); !ok {
		return nil, fmt.Errorf("storage: %T does not embed storage.Meta", t)
	}
	return &Collection[T]{store: store, entity: entity}, nil
}

func toRaw(v any) (bson.M, error) {
	b, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func fromRaw(m bson.M, out any) error {
	b, err := bson.Marshal(m)
	if err != nil {
		return err
	}
	return bson.Unmarshal(b, out)
}

// Save inserts doc as a new record, generating an id and setting both
// timestamps, and returns the generated identifier.
func (c *Collection[T]) Save(ctx context.Context, doc *T) (string, error) {
	m := any(doc).(Document).meta()
	now := time.Now().UTC()
	if m.ID == "" {
		m.ID = primitive.NewObjectID().Hex()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	raw, err := toRaw(doc)
	if err != nil {
		return "", err
	}
	return c.store.Insert(ctx, c.entity, raw)
}

// Update merges every field of doc into the stored record matching its id.
// The caller fetches first; there is no conflict detection, last write wins.
func (c *Collection[T]) Update(ctx context.Context, doc *T) (int64, error) {
	m := any(doc).(Document).meta()
	m.UpdatedAt = time.Now().UTC()

	raw, err := toRaw(doc)
	if err != nil {
		return 0, err
	}
	// _id and created_at never change after insertion
	delete(raw, "_id")
	delete(raw, "created_at")
	return c.store.Merge(ctx, c.entity, m.ID, raw)
}

// UpdateFields merges the given fields into the record with the given id and
// refreshes updated_at.
func (c *Collection[T]) UpdateFields(ctx context.Context, id string, fields bson.M) (int64, error) {
	merged := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range fields {
		if k == "_id" || k == "created_at" {
			continue
		}
		merged[k] = v
	}
	return c.store.Merge(ctx, c.entity, id, merged)
}

// Delete removes the record matching the document's identifier.
func (c *Collection[T]) Delete(ctx context.Context, doc *T) (int64, error) {
	return c.DeleteByID(ctx, any(doc).(Document).meta().ID)
}

// DeleteByID removes by identifier. A missing id reports zero matches.
func (c *Collection[T]) DeleteByID(ctx context.Context, id string) (int64, error) {
	return c.store.Delete(ctx, c.entity, id)
}

// FindOne returns the first match or ErrNoDocument.
func (c *Collection[T]) FindOne(ctx context.Context, filter bson.M) (*T, error) {
	raw, err := c.store.FindOne(ctx, c.entity, filter)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := fromRaw(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get is FindOne by identifier.
func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	return c.FindOne(ctx, bson.M{"_id": id})
}

// Find returns all matches ordered by descending creation time. Each call
// issues a fresh query.
func (c *Collection[T]) Find(ctx context.Context, filter bson.M) ([]T, error) {
	raws, err := c.store.Find(ctx, c.entity, filter)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var t T
		if err := fromRaw(raw, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Count returns the number of matching records.
func (c *Collection[T]) Count(ctx context.Context, filter bson.M) (int64, error) {
	return c.store.Count(ctx, c.entity, filter)
}
