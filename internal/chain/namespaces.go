package chain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/haasonsaas/chaingate/internal/cursor"
	"github.com/haasonsaas/chaingate/internal/errs"
	"github.com/haasonsaas/chaingate/internal/storage"
)

// Well-known namespace ids. The network currency and harvest mosaics are
// the mosaics these namespaces alias.
const (
	NamespaceCurrencyID uint64 = 0x85BBEA6CC462B244
	NamespaceHarvestID  uint64 = 0x941299B2B7E1291C
)

// Namespaces pages namespace documents and resolves well-known aliases.
type Namespaces struct {
	store  cursor.Store
	engine *cursor.Engine
}

// NewNamespaces builds the namespace repository.
func NewNamespaces(store cursor.Store) *Namespaces {
	desc := cursor.Descriptor{
		Collection: CollNamespaces,
		SortKey:    []string{"namespace.startHeight", "_id"},
		Sanitize:   storage.PromoteIDsToMeta,
	}
	return &Namespaces{store: store, engine: cursor.New(store, desc, nil)}
}

// AnchorAtID builds the natural-key anchor for a namespace id.
func (n *Namespaces) AnchorAtID(id uint64) cursor.Anchor {
	return cursor.At(bson.M{"namespace.level0": int64(id)})
}

// From pages namespaces strictly below the anchor, newest first.
func (n *Namespaces) From(ctx context.Context, anchor cursor.Anchor, limit int64) ([]bson.M, error) {
	return n.engine.From(ctx, anchor, limit)
}

// Since pages namespaces strictly above the anchor, newest first.
func (n *Namespaces) Since(ctx context.Context, anchor cursor.Anchor, limit int64) ([]bson.M, error) {
	return n.engine.Since(ctx, anchor, limit)
}

// ByID fetches the single namespace with the given id.
func (n *Namespaces) ByID(ctx context.Context, id uint64) (bson.M, error) {
	doc, err := n.store.FindOne(ctx, CollNamespaces, bson.M{"namespace.level0": int64(id)}, nil)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errs.NotFound("namespace %016X", id)
	}
	return storage.PromoteIDToMeta(doc), nil
}

// CurrencyMosaicID resolves the mosaic aliased by the network currency
// namespace. Re-read per query: aliases may change and must not be cached.
func (n *Namespaces) CurrencyMosaicID(ctx context.Context) (int64, error) {
	return n.aliasedMosaicID(ctx, NamespaceCurrencyID)
}

// HarvestMosaicID resolves the mosaic aliased by the network harvest
// namespace.
func (n *Namespaces) HarvestMosaicID(ctx context.Context) (int64, error) {
	return n.aliasedMosaicID(ctx, NamespaceHarvestID)
}

func (n *Namespaces) aliasedMosaicID(ctx context.Context, namespaceID uint64) (int64, error) {
	doc, err := n.store.FindOne(ctx, CollNamespaces,
		bson.M{"namespace.level0": int64(namespaceID)},
		bson.M{"namespace.alias": 1})
	if err != nil {
		return 0, err
	}
	if doc == nil {
		return 0, errs.NotFound("well-known namespace %016X", namespaceID)
	}

	ns, _ := doc["namespace"].(bson.M)
	alias, _ := ns["alias"].(bson.M)
	id, ok := alias["mosaicId"]
	if !ok {
		return 0, errs.NotFound("namespace %016X has no mosaic alias", namespaceID)
	}
	switch v := id.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	default:
		return 0, errs.NotFound("namespace %016X alias is not a mosaic", namespaceID)
	}
}
