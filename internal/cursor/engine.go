package cursor

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/haasonsaas/chaingate/internal/errs"
)

// Store is the document-store surface the engine consumes. Implemented by
// *storage.Store; tests substitute a fake.
type Store interface {
	FindOne(ctx context.Context, collection string, filter, projection bson.M) (bson.M, error)
	Find(ctx context.Context, collection string, filter, projection bson.M, sort bson.D, limit int64) ([]bson.M, error)
	Aggregate(ctx context.Context, collection string, stages []bson.D, sort bson.D, projection bson.M, limit int64) ([]bson.M, error)
}

// HeightFunc reports the current chain tip, for descriptors that depend on
// the chain statistic.
type HeightFunc func(ctx context.Context) (uint64, error)

// Engine pages one entity collection. It holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	store  Store
	desc   Descriptor
	height HeightFunc
}

// New builds an engine for the descriptor. The descriptor is static
// per-entity configuration; a malformed one is a programming error.
func New(store Store, desc Descriptor, height HeightFunc) *Engine {
	if len(desc.SortKey) == 0 || desc.SortKey[len(desc.SortKey)-1] != "_id" {
		panic(fmt.Sprintf("cursor: descriptor for %q: sort key must end in _id", desc.Collection))
	}
	if desc.Sanitize == nil {
		panic(fmt.Sprintf("cursor: descriptor for %q: missing sanitizer", desc.Collection))
	}
	if desc.DependsOnChainStatistic && height == nil {
		panic(fmt.Sprintf("cursor: descriptor for %q: chain-dependent but no height func", desc.Collection))
	}
	return &Engine{store: store, desc: desc, height: height}
}

// From returns up to n documents strictly preceding the anchor, newest
// first.
func (e *Engine) From(ctx context.Context, anchor Anchor, n int64) ([]bson.M, error) {
	return e.page(ctx, From, anchor, n)
}

// Since returns up to n documents strictly following the anchor, newest
// first.
func (e *Engine) Since(ctx context.Context, anchor Anchor, n int64) ([]bson.M, error) {
	return e.page(ctx, Since, anchor, n)
}

func (e *Engine) page(ctx context.Context, dir Direction, anchor Anchor, n int64) ([]bson.M, error) {
	if n <= 0 {
		return nil, nil
	}

	if anchor.IsAbsolute() {
		// Nothing precedes the lowest document; nothing follows the highest.
		if top := anchor.keyword.top(); (dir == From) != top {
			return nil, nil
		}
	}

	tuple, err := e.resolveAnchor(ctx, anchor)
	if err != nil {
		return nil, err
	}

	match := e.combine(rangeCondition(e.desc.SortKey, tuple, dir))
	sort := sortOrder(e.desc.SortKey, dir)

	var docs []bson.M
	if e.desc.needsPipeline() {
		stages := make([]bson.D, 0, len(e.desc.Computed)+1+len(e.desc.PostStages))
		stages = append(stages, e.computedStages()...)
		stages = append(stages, bson.D{{Key: "$match", Value: match}})
		stages = append(stages, e.desc.PostStages...)
		docs, err = e.store.Aggregate(ctx, e.desc.Collection, stages, sort, e.scaffoldProjection(), n)
	} else {
		docs, err = e.store.Find(ctx, e.desc.Collection, match, nil, sort, n)
	}
	if err != nil {
		return nil, err
	}
	// The store may widen the limit to its configured page minimum.
	if int64(len(docs)) > n {
		docs = docs[:n]
	}

	if dir == Since {
		reverse(docs)
	}
	return e.desc.Sanitize(docs), nil
}

// resolveAnchor turns the anchor into a tuple over the sort key.
func (e *Engine) resolveAnchor(ctx context.Context, anchor Anchor) ([]any, error) {
	if anchor.IsAbsolute() {
		var topHeight any
		if e.desc.DependsOnChainStatistic {
			h, err := e.height(ctx)
			if err != nil {
				return nil, err
			}
			topHeight = int64(h + 1)
		}
		return sentinelTuple(e.desc.SortKey, anchor.keyword.top(), topHeight), nil
	}

	// The anchor is located in the global order of the collection; the
	// entity's base filter narrows pages, not anchor positions.
	doc, err := e.anchorDocument(ctx, anchor.filter)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errs.NotFound("no anchor document in %s", e.desc.Collection)
	}
	return tupleFromDocument(doc, e.desc.SortKey), nil
}

func (e *Engine) anchorDocument(ctx context.Context, filter bson.M) (bson.M, error) {
	if len(e.desc.Computed) == 0 {
		return e.store.FindOne(ctx, e.desc.Collection, filter, nil)
	}

	// Computed sort fields must be materialized for the anchor as well so
	// the tuple and the page ordering agree.
	stages := make([]bson.D, 0, len(e.desc.Computed)+1)
	stages = append(stages, bson.D{{Key: "$match", Value: filter}})
	stages = append(stages, e.computedStages()...)
	docs, err := e.store.Aggregate(ctx, e.desc.Collection, stages, nil, nil, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// computedStages materializes each computed field in order; one stage per
// field so later expressions may reference earlier results.
func (e *Engine) computedStages() []bson.D {
	stages := make([]bson.D, 0, len(e.desc.Computed))
	for _, cf := range e.desc.Computed {
		stages = append(stages, bson.D{{Key: "$addFields", Value: bson.M{cf.Path: cf.Expr}}})
	}
	return stages
}

// combine ANDs the range condition with the entity's standing constraints.
func (e *Engine) combine(cond bson.M) bson.M {
	clauses := []bson.M{cond}
	if e.desc.BaseFilter != nil {
		clauses = append(clauses, e.desc.BaseFilter)
	}
	switch e.desc.Aggregates {
	case AggregateExclude:
		clauses = append(clauses, bson.M{"meta.aggregateId": bson.M{"$exists": false}})
	case AggregateRequire:
		clauses = append(clauses, bson.M{"meta.aggregateId": bson.M{"$exists": true}})
	}
	if len(clauses) == 1 {
		return cond
	}
	return bson.M{"$and": clauses}
}

// scaffoldProjection excludes every materialized field from the result.
func (e *Engine) scaffoldProjection() bson.M {
	paths := e.desc.scaffold()
	if len(paths) == 0 {
		return nil
	}
	projection := make(bson.M, len(paths))
	for _, path := range paths {
		projection[path] = 0
	}
	return projection
}

func reverse(docs []bson.M) {
	for i, j := 0, len(docs)-1; i < j; i, j = i+1, j-1 {
		docs[i], docs[j] = docs[j], docs[i]
	}
}
