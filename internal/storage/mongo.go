// Package storage is the document store adapter: a thin wrapper over the
// MongoDB driver offering bounded find / aggregate / count primitives plus
// the result sanitizers the entity repositories share.
//
// The adapter is strictly read-only. Store faults propagate unchanged,
// wrapped in *errs.StoreError; the adapter never masks or retries.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/haasonsaas/chaingate/internal/errs"
)

// PageLimits clamps the limit applied to every paged query.
type PageLimits struct {
	Min int64
	Max int64
}

// Clamp returns n forced into [Min, Max]. A zero PageLimits passes n through.
func (p PageLimits) Clamp(n int64) int64 {
	if p.Min == 0 && p.Max == 0 {
		return n
	}
	if n < p.Min {
		return p.Min
	}
	if n > p.Max {
		return p.Max
	}
	return n
}

// Store wraps a MongoDB database handle with a per-call timeout and the
// page-size clamps from configuration.
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
	limits  PageLimits
}

// Connect dials the store and verifies the connection with a ping.
func Connect(ctx context.Context, url, name string, timeout time.Duration, limits PageLimits) (*Store, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &Store{
		client:  client,
		db:      client.Database(name),
		timeout: timeout,
		limits:  limits,
	}, nil
}

// Close releases the connection pool.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// FindOne returns the single document matching filter, or nil when nothing
// matches. projection may be nil.
func (s *Store) FindOne(ctx context.Context, collection string, filter, projection bson.M) (bson.M, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	opts := options.FindOne()
	if projection != nil {
		opts.SetProjection(projection)
	}

	var doc bson.M
	err := s.db.Collection(collection).FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, &errs.StoreError{Op: "findOne " + collection, Err: err}
	}
	return doc, nil
}

// Find returns at most limit documents matching filter in the given sort
// order. limit is clamped to the configured page limits; limit <= 0 after
// clamping yields an empty result without touching the store.
func (s *Store) Find(ctx context.Context, collection string, filter bson.M, projection bson.M, sort bson.D, limit int64) ([]bson.M, error) {
	limit = s.limits.Clamp(limit)
	if limit <= 0 {
		return nil, nil
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	opts := options.Find().SetSort(sort).SetLimit(limit)
	if projection != nil {
		opts.SetProjection(projection)
	}

	cur, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, &errs.StoreError{Op: "find " + collection, Err: err}
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, &errs.StoreError{Op: "find " + collection, Err: err}
	}
	return docs, nil
}

// Aggregate executes the pipeline stages in order, then applies sort,
// limit, and projection as trailing stages. 64-bit integers survive the
// pipeline: the driver decodes BSON int64 without widening.
func (s *Store) Aggregate(ctx context.Context, collection string, stages []bson.D, sort bson.D, projection bson.M, limit int64) ([]bson.M, error) {
	limit = s.limits.Clamp(limit)
	if limit <= 0 {
		return nil, nil
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	pipeline := make([]bson.D, 0, len(stages)+3)
	pipeline = append(pipeline, stages...)
	if len(sort) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sort}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	if projection != nil {
		pipeline = append(pipeline, bson.D{{Key: "$project", Value: projection}})
	}

	cur, err := s.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, &errs.StoreError{Op: "aggregate " + collection, Err: err}
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, &errs.StoreError{Op: "aggregate " + collection, Err: err}
	}
	return docs, nil
}

// CountDocuments returns the collection's document count.
func (s *Store) CountDocuments(ctx context.Context, collection string) (uint64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	n, err := s.db.Collection(collection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, &errs.StoreError{Op: "count " + collection, Err: err}
	}
	return uint64(n), nil
}
