package chain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/haasonsaas/chaingate/internal/cursor"
	"github.com/haasonsaas/chaingate/internal/errs"
	"github.com/haasonsaas/chaingate/internal/storage"
)

// Group selects a transaction collection.
type Group int

const (
	// Confirmed is the main transactions collection.
	Confirmed Group = iota
	// Unconfirmed holds transactions not yet in a block.
	Unconfirmed
	// Partial holds aggregate-bonded dependents awaiting cosignatures.
	Partial
)

func (g Group) collection() string {
	switch g {
	case Unconfirmed:
		return CollUnconfirmed
	case Partial:
		return CollPartial
	default:
		return CollTransactions
	}
}

// aggregateMode returns the aggregate-presence toggle for the group. Only
// the partial collection wants dependents; everywhere else they would
// duplicate their enclosing aggregate.
func (g Group) aggregateMode() cursor.AggregateMode {
	if g == Partial {
		return cursor.AggregateRequire
	}
	return cursor.AggregateExclude
}

// Filter names accepted by the transfer sub-machine.
const (
	FilterMosaic   = "mosaic"
	FilterMultisig = "multisig"
)

var transactionSortKey = []string{"meta.height", "meta.index", "_id"}

// Transactions pages and fetches the three transaction collections.
type Transactions struct {
	store      cursor.Store
	chain      *Chain
	namespaces *Namespaces
}

// NewTransactions builds the transaction repository.
func NewTransactions(store cursor.Store, chain *Chain, namespaces *Namespaces) *Transactions {
	return &Transactions{store: store, chain: chain, namespaces: namespaces}
}

// AnchorAtHash builds the opaque-id anchor for a transaction hash.
func (t *Transactions) AnchorAtHash(hash []byte) cursor.Anchor {
	return cursor.At(bson.M{"meta.hash": hash})
}

// AnchorAtID builds the opaque-id anchor for a store document id.
func (t *Transactions) AnchorAtID(id primitive.ObjectID) cursor.Anchor {
	return cursor.At(bson.M{"_id": id})
}

func (t *Transactions) engine(group Group, baseFilter bson.M, postStages []bson.D, scaffold []string) *cursor.Engine {
	desc := cursor.Descriptor{
		Collection:              group.collection(),
		SortKey:                 transactionSortKey,
		BaseFilter:              baseFilter,
		PostStages:              postStages,
		ScaffoldPaths:           scaffold,
		Aggregates:              group.aggregateMode(),
		DependsOnChainStatistic: true,
		Sanitize:                storage.PromoteIDsToMeta,
	}
	return cursor.New(t.store, desc, t.chain.HeightFunc())
}

// Page pages a transaction collection with no type restriction.
func (t *Transactions) Page(ctx context.Context, group Group, dir cursor.Direction, anchor cursor.Anchor, n int64) ([]bson.M, error) {
	return t.run(ctx, t.engine(group, nil, nil, nil), dir, anchor, n)
}

// PageByType pages confirmed transactions of one type.
func (t *Transactions) PageByType(ctx context.Context, dir cursor.Direction, anchor cursor.Anchor, typeName string, n int64) ([]bson.M, error) {
	code, err := TransactionTypeCode(typeName)
	if err != nil {
		return nil, err
	}
	eng := t.engine(Confirmed, bson.M{"transaction.type": code}, nil, nil)
	return t.run(ctx, eng, dir, anchor, n)
}

// PageByTypeWithFilter pages confirmed transactions of one type through a
// named sub-filter. Only the transfer filters exist; an unknown (type,
// filter) pair is a hard error.
func (t *Transactions) PageByTypeWithFilter(ctx context.Context, dir cursor.Direction, anchor cursor.Anchor, typeName, filterName string, n int64) ([]bson.M, error) {
	code, err := TransactionTypeCode(typeName)
	if err != nil {
		return nil, err
	}
	if code != TypeTransfer {
		return nil, errs.InvalidFormat("no filters exist for transaction type %q", typeName)
	}

	base := bson.M{"transaction.type": code}
	var eng *cursor.Engine
	switch filterName {
	case FilterMosaic:
		stages, scaffold, err := t.mosaicFilterStages(ctx)
		if err != nil {
			return nil, err
		}
		eng = t.engine(Confirmed, base, stages, scaffold)
	case FilterMultisig:
		stages, scaffold := multisigFilterStages()
		eng = t.engine(Confirmed, base, stages, scaffold)
	default:
		return nil, errs.InvalidFormat("transaction filter %q", filterName)
	}
	return t.run(ctx, eng, dir, anchor, n)
}

func (t *Transactions) run(ctx context.Context, eng *cursor.Engine, dir cursor.Direction, anchor cursor.Anchor, n int64) ([]bson.M, error) {
	if dir == cursor.Since {
		return eng.Since(ctx, anchor, n)
	}
	return eng.From(ctx, anchor, n)
}

// mosaicFilterStages keeps transfers carrying at least one mosaic that is
// not a network mosaic. The well-known ids are re-resolved per query.
func (t *Transactions) mosaicFilterStages(ctx context.Context) ([]bson.D, []string, error) {
	currencyID, err := t.namespaces.CurrencyMosaicID(ctx)
	if err != nil {
		return nil, nil, err
	}
	harvestID, err := t.namespaces.HarvestMosaicID(ctx)
	if err != nil {
		return nil, nil, err
	}

	hasMosaics := bson.M{"$reduce": bson.M{
		"input":        bson.M{"$ifNull": bson.A{"$transaction.mosaics", bson.A{}}},
		"initialValue": false,
		"in": bson.M{"$or": bson.A{
			"$$value",
			bson.M{"$not": bson.M{"$in": bson.A{"$$this.id", bson.A{currencyID, harvestID}}}},
		}},
	}}

	stages := []bson.D{
		{{Key: "$addFields", Value: bson.M{"hasMosaics": hasMosaics}}},
		{{Key: "$match", Value: bson.M{"hasMosaics": true}}},
	}
	return stages, []string{"hasMosaics"}, nil
}

// multisigFilterStages keeps transfers referencing at least one address
// registered in the multisig collection.
func multisigFilterStages() ([]bson.D, []string) {
	stages := []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from":         CollMultisigs,
			"localField":   "meta.addresses",
			"foreignField": "multisig.accountAddress",
			"as":           "multisigEntries",
		}}},
		{{Key: "$match", Value: bson.M{"multisigEntries.0": bson.M{"$exists": true}}}},
	}
	return stages, []string{"multisigEntries"}
}

// One fetches a single transaction by hash or document id from the group's
// collection. Aggregates come back with their dependent sub-transactions
// attached under transaction.transactions.
func (t *Transactions) One(ctx context.Context, group Group, filter bson.M) (bson.M, error) {
	doc, err := t.store.FindOne(ctx, group.collection(), filter, nil)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errs.NotFound("transaction in %s", group.collection())
	}
	if err := t.attachDependents(ctx, group, doc); err != nil {
		return nil, err
	}
	return storage.PromoteIDToMeta(doc), nil
}

func (t *Transactions) attachDependents(ctx context.Context, group Group, doc bson.M) error {
	tx, _ := doc["transaction"].(bson.M)
	code, ok := tx["type"]
	if !ok || !isAggregateType(asInt32(code)) {
		return nil
	}
	id, ok := doc["_id"].(primitive.ObjectID)
	if !ok {
		return nil
	}

	deps, err := t.store.Find(ctx, group.collection(),
		bson.M{"meta.aggregateId": id}, nil,
		bson.D{{Key: "meta.index", Value: 1}}, dependentFetchLimit)
	if err != nil {
		return err
	}
	tx["transactions"] = storage.PromoteIDsToMeta(deps)
	return nil
}

// dependentFetchLimit bounds the sub-transactions attached to an aggregate.
// The protocol caps aggregates well below this.
const dependentFetchLimit = 1000

// AtHeight returns the confirmed transactions of the block at height, in
// block order.
func (t *Transactions) AtHeight(ctx context.Context, height uint64, limit int64) ([]bson.M, error) {
	tip, err := t.chain.Height(ctx)
	if err != nil {
		return nil, err
	}
	if height == 0 || height > tip {
		return nil, errs.NotFound("chain height %d is too small for block %d", tip, height)
	}

	filter := bson.M{
		"meta.height":      int64(height),
		"meta.aggregateId": bson.M{"$exists": false},
	}
	docs, err := t.store.Find(ctx, CollTransactions, filter, nil,
		bson.D{{Key: "meta.index", Value: 1}}, limit)
	if err != nil {
		return nil, err
	}
	return storage.PromoteIDsToMeta(docs), nil
}

func asInt32(v any) int32 {
	switch n := v.(type) {
	case int32:
		return n
	case int64:
		return int32(n)
	case int:
		return int32(n)
	default:
		return 0
	}
}
