package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/flavien-hugs/yimba-api/internal/apperr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// URI builds a MongoDB connection string from a host list and extra options.
// retryWrites and majority write concern are always on.
func URI(hosts []string, extra map[string]string) string {
	opts := map[string]string{"retryWrites": "true", "w": "majority"}
	for k, v := range extra {
		opts[k] = v
	}
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("mongodb://")
	b.WriteString(strings.Join(hosts, ","))
	b.WriteString("/?")
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		fmt.Fprintf(&b, "%s=%s", k, opts[k])
	}
	return b.String()
}

type mongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB, pings it and returns a Store bound to dbname. The
// returned store owns the client; Close disconnects it.
func Connect(ctx context.Context, uri, user, password, dbname string, timeout time.Duration, log *zap.SugaredLogger) (Store, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().ApplyURI(uri)
	if user != "" {
		opts.SetAuth(options.Credential{Username: user, Password: password})
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		log.Errorf("mongodb connection failed: %v", err)
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Errorf("mongodb ping failed: %v", err)
		return nil, err
	}
	log.Infof("mongodb connected: db=%s", dbname)

	s := &mongoStore{client: client, db: client.Database(dbname)}
	if err := s.ensureIndexes(ctx); err != nil {
		log.Warnf("mongodb index creation failed: %v", err)
	}
	return s, nil
}

func (s *mongoStore) ensureIndexes(ctx context.Context) error {
	for entity, fields := range UniqueKeys {
		name, err := collectionFor(entity)
		if err != nil {
			return err
		}
		models := make([]mongo.IndexModel, 0, len(fields))
		for _, f := range fields {
			models = append(models, mongo.IndexModel{
				Keys:    bson.D{{Key: f, Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			})
		}
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

func (s *mongoStore) Insert(ctx context.Context, entity string, doc bson.M) (string, error) {
	name, err := collectionFor(entity)
	if err != nil {
		return "", err
	}
	if _, ok := doc["_id"]; !ok {
		doc["_id"] = primitive.NewObjectID().Hex()
	}
	res, err := s.db.Collection(name).InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("%w: %v", apperr.ErrConflict, err)
		}
		return "", err
	}
	id, _ := res.InsertedID.(string)
	return id, nil
}

func (s *mongoStore) Merge(ctx context.Context, entity, id string, fields bson.M) (int64, error) {
	name, err := collectionFor(entity)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Collection(name).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, fmt.Errorf("%w: %v", apperr.ErrConflict, err)
		}
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *mongoStore) Delete(ctx context.Context, entity, id string) (int64, error) {
	name, err := collectionFor(entity)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Collection(name).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *mongoStore) FindOne(ctx context.Context, entity string, filter bson.M) (bson.M, error) {
	name, err := collectionFor(entity)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	err = s.db.Collection(name).FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *mongoStore) Find(ctx context.Context, entity string, filter bson.M) ([]bson.M, error) {
	name, err := collectionFor(entity)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.db.Collection(name).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []bson.M
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, cur.Err()
}

func (s *mongoStore) Count(ctx context.Context, entity string, filter bson.M) (int64, error) {
	name, err := collectionFor(entity)
	if err != nil {
		return 0, err
	}
	return s.db.Collection(name).CountDocuments(ctx, filter)
}

func (s *mongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
