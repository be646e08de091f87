package storage

import (
	"context"
	"fmt"
	"time"

	"turbineops/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// AuditCollection is the Mongo collection holding audit records.
const AuditCollection = "ingestion_logs"

// MongoAuditStore keeps the audit log in MongoDB.
type MongoAuditStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoAuditDoc struct {
	ObjectID        primitive.ObjectID `bson:"_id"`
	models.AuditLog `bson:",inline"`
}

// NewMongoAuditStore connects to uri and makes sure the "at" index exists.
func NewMongoAuditStore(ctx context.Context, uri, database string) (*MongoAuditStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	coll := client.Database(database).Collection(AuditCollection)
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "at", Value: -1}}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}

	return &MongoAuditStore{client: client, coll: coll}, nil
}

func (s *MongoAuditStore) Append(ctx context.Context, entry *models.AuditLog) error {
	res, err := s.coll.InsertOne(ctx, entry)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid.Hex()
	}
	return nil
}

func (s *MongoAuditStore) List(ctx context.Context, q AuditQuery) ([]models.AuditLog, int64, error) {
	filter := bson.M{}
	if q.Kind != "" {
		filter["kind"] = q.Kind
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}}).
		SetSkip(int64(q.offset())).
		SetLimit(int64(q.Limit))
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	var docs []mongoAuditDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}

	logs := make([]models.AuditLog, 0, len(docs))
	for _, d := range docs {
		entry := d.AuditLog
		entry.ID = d.ObjectID.Hex()
		logs = append(logs, entry)
	}
	return logs, total, nil
}

func (s *MongoAuditStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"at": bson.M{"$lt": before}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *MongoAuditStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoAuditStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
