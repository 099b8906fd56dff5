// Package mongo backs the docstore contract with MongoDB collections. The
// snapshot subscription rides a change stream: every change event triggers a
// re-query so subscribers always receive a full replacement view.
package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/digitalboostplus/dtxent/internal/docstore"
)

// Store implements docstore.Store over a mongo database.
type Store struct {
	db  *mongo.Database
	log zerolog.Logger
}

// New wires a Store to an open database.
func New(db *mongo.Database, log zerolog.Logger) *Store {
	return &Store{db: db, log: log}
}

// Open dials a client and pings it before handing back the database handle.
func Open(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	return client, client.Database(database), nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return docstore.Document{}, docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Document{}, docstore.Remote("get", err)
	}
	return docstore.Document{ID: id, Fields: fieldsFromBSON(raw)}, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	resolved := docstore.ResolveTimestamps(fields, time.Now())
	col := s.db.Collection(collection)

	if merge {
		update := bson.M{"$set": bson.M(resolved)}
		_, err := col.UpdateByID(ctx, id, update, options.Update().SetUpsert(true))
		return docstore.Remote("set", err)
	}

	replacement := bson.M(resolved)
	_, err := col.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, replacement, options.Replace().SetUpsert(true))
	return docstore.Remote("set", err)
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	resolved := docstore.ResolveTimestamps(fields, time.Now())
	res, err := s.db.Collection(collection).UpdateByID(ctx, id, bson.M{"$set": bson.M(resolved)})
	if err != nil {
		return docstore.Remote("update", err)
	}
	if res.MatchedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.Collection(collection).DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	return docstore.Remote("delete", err)
}

func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	resolved := docstore.ResolveTimestamps(fields, time.Now())
	doc := bson.M(resolved)
	doc["_id"] = id

	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return "", docstore.Remote("add", err)
	}
	return id, nil
}

func (s *Store) List(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	filter := bson.D{}
	for field, want := range q.Eq {
		filter = append(filter, bson.E{Key: field, Value: want})
	}

	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}, {Key: "_id", Value: 1}})
	}

	cur, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, docstore.Remote("list", err)
	}
	defer cur.Close(ctx)

	var docs []docstore.Document
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, docstore.Remote("list", err)
		}
		id, _ := raw["_id"].(string)
		docs = append(docs, docstore.Document{ID: id, Fields: fieldsFromBSON(raw)})
	}
	if err := cur.Err(); err != nil {
		return nil, docstore.Remote("list", err)
	}
	return docs, nil
}

func (s *Store) Subscribe(ctx context.Context, collection string, q docstore.Query, fn docstore.SnapshotFunc) (docstore.CancelFunc, error) {
	stream, err := s.db.Collection(collection).Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, docstore.Remote("subscribe", err)
	}

	initial, err := s.List(ctx, collection, q)
	if err != nil {
		_ = stream.Close(ctx)
		return nil, err
	}
	fn(initial, nil)

	streamCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer stream.Close(context.Background())
		for stream.Next(streamCtx) {
			docs, err := s.List(streamCtx, collection, q)
			if err != nil {
				fn(nil, err)
				continue
			}
			fn(docs, nil)
		}
		if err := stream.Err(); err != nil && streamCtx.Err() == nil {
			fn(nil, docstore.Remote("subscribe", err))
		}
	}()

	return docstore.CancelFunc(cancel), nil
}

// fieldsFromBSON converts driver-native values into the loose shapes the
// normalizer understands: primitive.DateTime to time.Time, primitive.A to
// []any, nested documents to map[string]any. The _id key is dropped since the
// Document carries it separately.
func fieldsFromBSON(raw bson.M) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		out[k] = convertBSONValue(v)
	}
	return out
}

func convertBSONValue(v any) any {
	switch val := v.(type) {
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.M:
		out := make(map[string]any, len(val))
		for k, nested := range val {
			out[k] = convertBSONValue(nested)
		}
		return out
	case primitive.A:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = convertBSONValue(item)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = convertBSONValue(e.Value)
		}
		return out
	case int32:
		return int64(val)
	default:
		return v
	}
}
