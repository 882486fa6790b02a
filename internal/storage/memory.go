package storage

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/flavien-hugs/yimba-api/internal/apperr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryStore is an in-process Store used by tests. It supports the filter
// subset the services actually issue: equality, $or, and case-insensitive
// $regex over dotted paths (descending into arrays the way Mongo does).
type memoryStore struct {
	mu   sync.RWMutex
	data map[string][]bson.M
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() Store {
	return &memoryStore{data: make(map[string][]bson.M)}
}

func (s *memoryStore) Insert(_ context.Context, entity string, doc bson.M) (string, error) {
	name, err := collectionFor(entity)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := doc["_id"]; !ok {
		doc["_id"] = primitive.NewObjectID().Hex()
	}
	for _, field := range UniqueKeys[entity] {
		val, ok := doc[field]
		if !ok || val == nil {
			continue
		}
		for _, existing := range s.data[name] {
			if existing[field] == val {
				return "", fmt.Errorf("%w: duplicate key %s=%v", apperr.ErrConflict, field, val)
			}
		}
	}
	s.data[name] = append(s.data[name], cloneDoc(doc))
	id, _ := doc["_id"].(string)
	return id, nil
}

func (s *memoryStore) Merge(_ context.Context, entity, id string, fields bson.M) (int64, error) {
	name, err := collectionFor(entity)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range s.data[name] {
		if doc["_id"] == id {
			for k, v := range fields {
				doc[k] = v
			}
			return 1, nil
		}
	}
	return 0, nil
}

func (s *memoryStore) Delete(_ context.Context, entity, id string) (int64, error) {
	name, err := collectionFor(entity)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.data[name]
	for i, doc := range docs {
		if doc["_id"] == id {
			s.data[name] = append(docs[:i], docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *memoryStore) FindOne(ctx context.Context, entity string, filter bson.M) (bson.M, error) {
	docs, err := s.Find(ctx, entity, filter)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNoDocument
	}
	return docs[0], nil
}

func (s *memoryStore) Find(_ context.Context, entity string, filter bson.M) ([]bson.M, error) {
	name, err := collectionFor(entity)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []bson.M
	for _, doc := range s.data[name] {
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, cloneDoc(doc))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return docTime(out[i], "created_at").After(docTime(out[j], "created_at"))
	})
	return out, nil
}

func (s *memoryStore) Count(ctx context.Context, entity string, filter bson.M) (int64, error) {
	docs, err := s.Find(ctx, entity, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

func (s *memoryStore) Close(context.Context) error { return nil }

func cloneDoc(doc bson.M) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func docTime(doc bson.M, key string) time.Time {
	switch v := doc[key].(type) {
	case time.Time:
		return v
	case primitive.DateTime:
		return v.Time()
	default:
		return time.Time{}
	}
}

// matches evaluates the Mongo filter subset used by the services.
func matches(doc bson.M, filter bson.M) (bool, error) {
	for key, cond := range filter {
		if key == "$or" {
			ok, err := matchOr(doc, cond)
			if err != nil || !ok {
				return false, err
			}
			continue
		}
		values := resolve(doc, strings.Split(key, "."))
		ok, err := matchValues(values, cond)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchOr(doc bson.M, cond any) (bool, error) {
	clauses, ok := cond.([]bson.M)
	if !ok {
		generic, isSlice := cond.([]any)
		if !isSlice {
			return false, fmt.Errorf("storage: unsupported $or clause %T", cond)
		}
		for _, c := range generic {
			m, isM := c.(bson.M)
			if !isM {
				return false, fmt.Errorf("storage: unsupported $or clause %T", c)
			}
			clauses = append(clauses, m)
		}
	}
	for _, clause := range clauses {
		ok, err := matches(doc, clause)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// resolve walks a dotted path, fanning out over arrays like Mongo does.
func resolve(v any, path []string) []any {
	if len(path) == 0 {
		switch t := v.(type) {
		case []any:
			return t
		case bson.A:
			return []any(t)
		}
		return []any{v}
	}
	switch t := v.(type) {
	case bson.M:
		if next, ok := t[path[0]]; ok {
			return resolve(next, path[1:])
		}
	case map[string]any:
		if next, ok := t[path[0]]; ok {
			return resolve(next, path[1:])
		}
	case []any:
		var out []any
		for _, elem := range t {
			out = append(out, resolve(elem, path)...)
		}
		return out
	case bson.A:
		var out []any
		for _, elem := range t {
			out = append(out, resolve(elem, path)...)
		}
		return out
	}
	return nil
}

func matchValues(values []any, cond any) (bool, error) {
	switch c := cond.(type) {
	case bson.M:
		pattern, hasRegex := c["$regex"]
		if !hasRegex {
			return false, fmt.Errorf("storage: unsupported operator in %v", c)
		}
		expr := fmt.Sprintf("%v", pattern)
		if opts, ok := c["$options"].(string); ok && strings.Contains(opts, "i") {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return false, err
		}
		for _, v := range values {
			if s, ok := v.(string); ok && re.MatchString(s) {
				return true, nil
			}
		}
		return false, nil
	default:
		for _, v := range values {
			if v == cond {
				return true, nil
			}
		}
		return false, nil
	}
}
