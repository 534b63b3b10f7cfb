package chain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// fakeStore scripts responses per operation and records the last query.
type fakeStore struct {
	findOneFn   func(collection string, filter bson.M) (bson.M, error)
	findFn      func(collection string, filter bson.M, sort bson.D, limit int64) ([]bson.M, error)
	aggregateFn func(collection string, stages []bson.D, sort bson.D, projection bson.M, limit int64) ([]bson.M, error)

	lastCollection string
	lastFilter     bson.M
	lastSort       bson.D
	lastStages     []bson.D
	lastProjection bson.M
	lastLimit      int64
}

func (f *fakeStore) FindOne(ctx context.Context, collection string, filter, projection bson.M) (bson.M, error) {
	f.lastCollection = collection
	f.lastFilter = filter
	if f.findOneFn == nil {
		return nil, nil
	}
	return f.findOneFn(collection, filter)
}

func (f *fakeStore) Find(ctx context.Context, collection string, filter, projection bson.M, sort bson.D, limit int64) ([]bson.M, error) {
	f.lastCollection = collection
	f.lastFilter = filter
	f.lastSort = sort
	f.lastLimit = limit
	if f.findFn == nil {
		return nil, nil
	}
	return f.findFn(collection, filter, sort, limit)
}

func (f *fakeStore) Aggregate(ctx context.Context, collection string, stages []bson.D, sort bson.D, projection bson.M, limit int64) ([]bson.M, error) {
	f.lastCollection = collection
	f.lastStages = stages
	f.lastSort = sort
	f.lastProjection = projection
	f.lastLimit = limit
	if f.aggregateFn == nil {
		return nil, nil
	}
	return f.aggregateFn(collection, stages, sort, projection, limit)
}

// statisticAt returns a findOne scriptlet serving the chain statistic and
// delegating everything else to next.
func statisticAt(height uint64, next func(collection string, filter bson.M) (bson.M, error)) func(collection string, filter bson.M) (bson.M, error) {
	return func(collection string, filter bson.M) (bson.M, error) {
		if collection == CollChainStatistic {
			return bson.M{"current": bson.M{
				"height":    int64(height),
				"scoreLow":  int64(1),
				"scoreHigh": int64(2),
			}}, nil
		}
		if next == nil {
			return nil, nil
		}
		return next(collection, filter)
	}
}
