package chain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/haasonsaas/chaingate/internal/cursor"
	"github.com/haasonsaas/chaingate/internal/errs"
	"github.com/haasonsaas/chaingate/internal/storage"
)

// Mosaics pages and fetches mosaic documents.
type Mosaics struct {
	store  cursor.Store
	engine *cursor.Engine
}

// NewMosaics builds the mosaic repository.
func NewMosaics(store cursor.Store) *Mosaics {
	desc := cursor.Descriptor{
		Collection: CollMosaics,
		SortKey:    []string{"mosaic.startHeight", "_id"},
		Sanitize:   storage.PromoteIDsToMeta,
	}
	return &Mosaics{store: store, engine: cursor.New(store, desc, nil)}
}

// AnchorAtID builds the natural-key anchor for a mosaic id.
func (m *Mosaics) AnchorAtID(id uint64) cursor.Anchor {
	return cursor.At(bson.M{"mosaic.id": int64(id)})
}

// From pages mosaics strictly below the anchor, newest first.
func (m *Mosaics) From(ctx context.Context, anchor cursor.Anchor, limit int64) ([]bson.M, error) {
	return m.engine.From(ctx, anchor, limit)
}

// Since pages mosaics strictly above the anchor, newest first.
func (m *Mosaics) Since(ctx context.Context, anchor cursor.Anchor, limit int64) ([]bson.M, error) {
	return m.engine.Since(ctx, anchor, limit)
}

// ByID fetches the single mosaic with the given id.
func (m *Mosaics) ByID(ctx context.Context, id uint64) (bson.M, error) {
	doc, err := m.store.FindOne(ctx, CollMosaics, bson.M{"mosaic.id": int64(id)}, nil)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errs.NotFound("mosaic %016X", id)
	}
	return storage.PromoteIDToMeta(doc), nil
}
