package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VectorIndexName is the Atlas Vector Search index expected on each endpoint collection.
const VectorIndexName = "embedding_index"

// MongoDB implements Storage using MongoDB with Atlas Vector Search.
// Each spec collection maps to a Mongo collection; creation metadata lives in spec_collections.
type MongoDB struct {
	client      *mongo.Client
	db          *mongo.Database
	collections *mongo.Collection
}

// endpointDoc is the MongoDB document structure
type endpointDoc struct {
	ID        string    `bson:"_id"`
	Document  string    `bson:"document"`
	Metadata  Metadata  `bson:",inline"`
	Embedding []float32 `bson:"embedding"`
}

type collectionDoc struct {
	Name           string    `bson:"_id"`
	EmbeddingModel string    `bson:"embedding_model"`
	DistanceMetric string    `bson:"distance_metric"`
	CreatedAt      time.Time `bson:"created_at"`
}

type scoredDoc struct {
	endpointDoc `bson:",inline"`
	Score       float64 `bson:"score"`
}

// NewMongoDB creates a new MongoDB storage
func NewMongoDB(ctx context.Context, uri, database string) (*MongoDB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(database)
	return &MongoDB{
		client:      client,
		db:          db,
		collections: db.Collection("spec_collections"),
	}, nil
}

func (m *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoDB) EnsureCollection(ctx context.Context, name string, meta CollectionMeta) (CollectionMeta, error) {
	update := bson.D{{Key: "$setOnInsert", Value: bson.D{
		{Key: "embedding_model", Value: meta.EmbeddingModel},
		{Key: "distance_metric", Value: meta.DistanceMetric},
		{Key: "created_at", Value: time.Now().UTC()},
	}}}
	_, err := m.collections.UpdateOne(ctx, bson.D{{Key: "_id", Value: name}}, update, options.Update().SetUpsert(true))
	if err != nil {
		return CollectionMeta{}, fmt.Errorf("failed to create collection: %w", err)
	}

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "method", Value: 1}}},
		{Keys: bson.D{{Key: "requires_auth", Value: 1}}},
		{Keys: bson.D{{Key: "content_type", Value: 1}}},
	}
	if _, err := m.db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
		return CollectionMeta{}, fmt.Errorf("failed to create indexes: %w", err)
	}

	var doc collectionDoc
	if err := m.collections.FindOne(ctx, bson.D{{Key: "_id", Value: name}}).Decode(&doc); err != nil {
		return CollectionMeta{}, fmt.Errorf("failed to read collection: %w", err)
	}
	return CollectionMeta{
		EmbeddingModel: doc.EmbeddingModel,
		DistanceMetric: doc.DistanceMetric,
		CreatedAt:      doc.CreatedAt,
	}, nil
}

func (m *MongoDB) DropCollection(ctx context.Context, name string) error {
	if err := m.db.Collection(name).Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	if _, err := m.collections.DeleteOne(ctx, bson.D{{Key: "_id", Value: name}}); err != nil {
		return fmt.Errorf("failed to delete collection metadata: %w", err)
	}
	return nil
}

func (m *MongoDB) Upsert(ctx context.Context, collection string, records []Record) error {
	if err := m.exists(ctx, collection); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, len(records))
	for i, r := range records {
		doc := endpointDoc{ID: r.ID, Document: r.Document, Metadata: r.Metadata, Embedding: r.Vector}
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: r.ID}}).
			SetReplacement(doc).
			SetUpsert(true)
	}

	_, err := m.db.Collection(collection).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return fmt.Errorf("failed to upsert endpoints: %w", err)
	}
	return nil
}

func (m *MongoDB) Query(ctx context.Context, collection string, vector []float32, k int, where Where) ([]Hit, error) {
	if err := where.Validate(); err != nil {
		return nil, err
	}
	if err := m.exists(ctx, collection); err != nil {
		return nil, err
	}

	vs := bson.D{
		{Key: "index", Value: VectorIndexName},
		{Key: "path", Value: "embedding"},
		{Key: "queryVector", Value: vector},
		{Key: "numCandidates", Value: k * 10},
		{Key: "limit", Value: k},
	}
	if filter := where.Document(); filter != nil {
		vs = append(vs, bson.E{Key: "filter", Value: filter})
	}

	hits, err := m.vectorSearch(ctx, collection, vs)
	if !vectorHitsUsable(hits, err) {
		return m.bruteForce(ctx, collection, vector, k, where)
	}
	return hits, nil
}

// vectorHitsUsable reports whether the $vectorSearch answer can be trusted.
// Atlas answers an unknown index name with zero documents rather than an
// error, and servers without Atlas Search reject the stage outright; both
// go to the in-process ranking, which also returns nothing when nothing matches.
func vectorHitsUsable(hits []Hit, err error) bool {
	return err == nil && len(hits) > 0
}

// vectorSearch runs the Atlas $vectorSearch stage described by vs.
func (m *MongoDB) vectorSearch(ctx context.Context, collection string, vs bson.D) ([]Hit, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: vs}},
		{{Key: "$set", Value: bson.D{{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}}}}},
	}

	cursor, err := m.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var hits []Hit
	for cursor.Next(ctx) {
		var doc scoredDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		// cosine vectorSearchScore is (1 + cos) / 2
		hits = append(hits, Hit{
			ID:       doc.ID,
			Distance: 2 * (1 - doc.Score),
			Document: doc.Document,
			Metadata: doc.Metadata,
		})
	}
	return hits, cursor.Err()
}

func (m *MongoDB) bruteForce(ctx context.Context, collection string, vector []float32, k int, where Where) ([]Hit, error) {
	filter := bson.M{}
	if doc := where.Document(); doc != nil {
		filter = bson.M(doc)
	}

	cursor, err := m.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query endpoints: %w", err)
	}
	defer cursor.Close(ctx)

	var hits []Hit
	for cursor.Next(ctx) {
		var doc endpointDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		hits = append(hits, Hit{
			ID:       doc.ID,
			Distance: cosineDistance(vector, doc.Embedding),
			Document: doc.Document,
			Metadata: doc.Metadata,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return nearest(hits, k), nil
}

func (m *MongoDB) Count(ctx context.Context, collection string) (int, error) {
	if err := m.exists(ctx, collection); err != nil {
		return 0, err
	}
	n, err := m.db.Collection(collection).CountDocuments(ctx, bson.D{})
	return int(n), err
}

func (m *MongoDB) exists(ctx context.Context, name string) error {
	err := m.collections.FindOne(ctx, bson.D{{Key: "_id", Value: name}}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errCollectionNotFound(name)
	}
	return err
}
