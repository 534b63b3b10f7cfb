package chain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/haasonsaas/chaingate/internal/cursor"
	"github.com/haasonsaas/chaingate/internal/errs"
	"github.com/haasonsaas/chaingate/internal/storage"
)

// Blocks pages and fetches block documents.
type Blocks struct {
	store  cursor.Store
	chain  *Chain
	engine *cursor.Engine
}

// NewBlocks builds the block repository.
func NewBlocks(store cursor.Store, chain *Chain) *Blocks {
	desc := cursor.Descriptor{
		Collection:              CollBlocks,
		SortKey:                 []string{"block.height", "_id"},
		DependsOnChainStatistic: true,
		Sanitize:                storage.StripIDs,
	}
	return &Blocks{
		store:  store,
		chain:  chain,
		engine: cursor.New(store, desc, chain.HeightFunc()),
	}
}

// AnchorAtHeight builds the natural-key anchor for a block height.
func (b *Blocks) AnchorAtHeight(height uint64) cursor.Anchor {
	return cursor.At(bson.M{"block.height": int64(height)})
}

// From pages blocks strictly below the anchor, newest first.
func (b *Blocks) From(ctx context.Context, anchor cursor.Anchor, n int64) ([]bson.M, error) {
	return b.engine.From(ctx, anchor, n)
}

// Since pages blocks strictly above the anchor, newest first.
func (b *Blocks) Since(ctx context.Context, anchor cursor.Anchor, n int64) ([]bson.M, error) {
	return b.engine.Since(ctx, anchor, n)
}

// AtHeight fetches the single block at a height. A height above the tip is
// reported as not-found with the tip shortfall named, so the route layer
// answers 404 before probing the collection.
func (b *Blocks) AtHeight(ctx context.Context, height uint64) (bson.M, error) {
	tip, err := b.chain.Height(ctx)
	if err != nil {
		return nil, err
	}
	if height == 0 || height > tip {
		return nil, errs.NotFound("chain height %d is too small for block %d", tip, height)
	}

	doc, err := b.store.FindOne(ctx, CollBlocks, bson.M{"block.height": int64(height)}, nil)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errs.NotFound("block at height %d", height)
	}
	return storage.StripID(doc), nil
}

// Range returns an ascending window of up to limit blocks starting at
// height. The limit grid is validated by the route layer; the store clamp
// still bounds the page.
func (b *Blocks) Range(ctx context.Context, height uint64, limit int64) ([]bson.M, error) {
	filter := bson.M{"block.height": bson.M{
		"$gte": int64(height),
		"$lt":  int64(height) + limit,
	}}
	sort := bson.D{{Key: "block.height", Value: 1}}
	docs, err := b.store.Find(ctx, CollBlocks, filter, nil, sort, limit)
	if err != nil {
		return nil, err
	}
	return storage.StripIDs(docs), nil
}
