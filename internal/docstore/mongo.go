package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// mongoStore binds the Store surface to a MongoDB client. The client
// pools connections internally, so one mongoStore is shared by every
// subsystem handle.
type mongoStore struct {
	client *mongo.Client
}

// ConnectMongo connects to MongoDB and probes liveness by listing
// database names under the given timeout.
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	s := &mongoStore{client: client}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.Ping(probeCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("probe mongo: %w", err)
	}
	return s, nil
}

func (s *mongoStore) Namespace(name string) Namespace {
	return &mongoNamespace{db: s.client.Database(name)}
}

func (s *mongoStore) Ping(ctx context.Context) error {
	_, err := s.client.ListDatabaseNames(ctx, bson.D{})
	return err
}

func (s *mongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type mongoNamespace struct {
	db *mongo.Database
}

func (n *mongoNamespace) Collection(name string) Collection {
	return &mongoCollection{col: n.db.Collection(name)}
}

func (n *mongoNamespace) ListCollections(ctx context.Context) ([]string, error) {
	names, err := n.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (n *mongoNamespace) HasCollection(ctx context.Context, name string) (bool, error) {
	names, err := n.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

func (n *mongoNamespace) Drop(ctx context.Context) error {
	return n.db.Drop(ctx)
}

type mongoCollection struct {
	col *mongo.Collection
}

func (c *mongoCollection) Name() string { return c.col.Name() }

func (c *mongoCollection) InsertOne(ctx context.Context, doc any) error {
	_, err := c.col.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	}
	return err
}

func (c *mongoCollection) FindOne(ctx context.Context, filter Filter, out any) error {
	err := c.col.FindOne(ctx, bson.M(filter)).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (c *mongoCollection) FindAll(ctx context.Context, filter Filter, sortField string, out any) error {
	opts := options.Find()
	if sortField != "" {
		opts.SetSort(bson.D{{Key: sortField, Value: 1}})
	}
	cur, err := c.col.Find(ctx, bson.M(filter), opts)
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}

func (c *mongoCollection) Count(ctx context.Context, filter Filter) (int64, error) {
	return c.col.CountDocuments(ctx, bson.M(filter))
}

func (c *mongoCollection) UpdateOne(ctx context.Context, filter Filter, set Filter) (int64, error) {
	res, err := c.col.UpdateOne(ctx, bson.M(filter), bson.M{"$set": bson.M(set)})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (c *mongoCollection) ReplaceOne(ctx context.Context, filter Filter, doc any) (int64, error) {
	res, err := c.col.ReplaceOne(ctx, bson.M(filter), doc)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (c *mongoCollection) DeleteOne(ctx context.Context, filter Filter) (int64, error) {
	res, err := c.col.DeleteOne(ctx, bson.M(filter))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (c *mongoCollection) EnsureUniqueIndex(ctx context.Context, field string) error {
	_, err := c.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (c *mongoCollection) Drop(ctx context.Context) error {
	return c.col.Drop(ctx)
}
