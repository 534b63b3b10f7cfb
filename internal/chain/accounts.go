package chain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/haasonsaas/chaingate/internal/cursor"
	"github.com/haasonsaas/chaingate/internal/errs"
	"github.com/haasonsaas/chaingate/internal/keys"
	"github.com/haasonsaas/chaingate/internal/storage"
)

// View selects the account sort order. Each view's primary field is
// computed per query from the account document.
type View int

const (
	// ViewImportance orders by the last recorded importance value.
	ViewImportance View = iota
	// ViewHarvestedBlocks orders by activity-bucket count.
	ViewHarvestedBlocks
	// ViewHarvestedFees orders by summed fees paid across buckets.
	ViewHarvestedFees
	// ViewCurrencyBalance orders by held amount of the network currency
	// mosaic.
	ViewCurrencyBalance
	// ViewHarvestBalance orders by held amount of the network harvest
	// mosaic.
	ViewHarvestBalance
)

// Accounts pages account documents under the computed sort orders.
type Accounts struct {
	store      cursor.Store
	namespaces *Namespaces
}

// NewAccounts builds the account repository.
func NewAccounts(store cursor.Store, namespaces *Namespaces) *Accounts {
	return &Accounts{store: store, namespaces: namespaces}
}

// AnchorAtAddress builds the account-key anchor for a decoded address.
func (a *Accounts) AnchorAtAddress(addr keys.Address) cursor.Anchor {
	return cursor.At(bson.M{"account.address": addr.Bytes()})
}

// Page pages accounts for the view. Balance views resolve the well-known
// mosaic id before the query; the id is deliberately not cached because
// the alias may change.
func (a *Accounts) Page(ctx context.Context, view View, dir cursor.Direction, anchor cursor.Anchor, n int64) ([]bson.M, error) {
	desc, err := a.descriptor(ctx, view)
	if err != nil {
		return nil, err
	}
	eng := cursor.New(a.store, desc, nil)
	if dir == cursor.Since {
		return eng.Since(ctx, anchor, n)
	}
	return eng.From(ctx, anchor, n)
}

// ByAddress fetches the single account with the given address.
func (a *Accounts) ByAddress(ctx context.Context, addr keys.Address) (bson.M, error) {
	doc, err := a.store.FindOne(ctx, CollAccounts, bson.M{"account.address": addr.Bytes()}, nil)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errs.NotFound("account %s", addr)
	}
	return storage.StripID(doc), nil
}

func (a *Accounts) descriptor(ctx context.Context, view View) (cursor.Descriptor, error) {
	desc := cursor.Descriptor{
		Collection: CollAccounts,
		Sanitize:   storage.StripIDs,
	}

	switch view {
	case ViewImportance:
		desc.SortKey = []string{"account.importance", "account.publicKeyHeight", "_id"}
		desc.Computed = []cursor.ComputedField{
			{Path: "account.importance", Expr: lastImportanceExpr()},
		}
	case ViewHarvestedBlocks:
		desc.SortKey = []string{"account.harvestedBlocks", "account.publicKeyHeight", "_id"}
		desc.Computed = []cursor.ComputedField{
			{Path: "account.harvestedBlocks", Expr: harvestedBlocksExpr()},
		}
	case ViewHarvestedFees:
		desc.SortKey = []string{"account.harvestedFees", "account.harvestedBlocks", "account.publicKeyHeight", "_id"}
		desc.Computed = []cursor.ComputedField{
			{Path: "account.harvestedBlocks", Expr: harvestedBlocksExpr()},
			{Path: "account.harvestedFees", Expr: harvestedFeesExpr()},
		}
	case ViewCurrencyBalance, ViewHarvestBalance:
		mosaicID, err := a.balanceMosaicID(ctx, view)
		if err != nil {
			return cursor.Descriptor{}, err
		}
		desc.SortKey = []string{"account.balance", "account.publicKeyHeight", "_id"}
		desc.Computed = []cursor.ComputedField{
			{Path: "account.balance", Expr: balanceExpr(mosaicID)},
		}
	default:
		return cursor.Descriptor{}, errs.InvalidFormat("account view %d", view)
	}
	return desc, nil
}

// balanceMosaicID resolves each balance view against its own namespace.
func (a *Accounts) balanceMosaicID(ctx context.Context, view View) (int64, error) {
	if view == ViewHarvestBalance {
		return a.namespaces.HarvestMosaicID(ctx)
	}
	return a.namespaces.CurrencyMosaicID(ctx)
}

// lastImportanceExpr extracts the newest importances entry, defaulting to
// zero for accounts that have never held importance.
func lastImportanceExpr() bson.M {
	return bson.M{"$ifNull": bson.A{
		bson.M{"$arrayElemAt": bson.A{"$account.importances.value", -1}},
		longZero,
	}}
}

func harvestedBlocksExpr() bson.M {
	return bson.M{"$size": bson.M{"$ifNull": bson.A{"$account.activityBuckets", bson.A{}}}}
}

func harvestedFeesExpr() bson.M {
	return bson.M{"$reduce": bson.M{
		"input":        bson.M{"$ifNull": bson.A{"$account.activityBuckets", bson.A{}}},
		"initialValue": longZero,
		"in":           bson.M{"$add": bson.A{"$$value", "$$this.totalFeesPaid"}},
	}}
}

// balanceExpr sums the account's holdings of one mosaic. The accumulator
// seed is an explicit long zero so the sum never narrows.
func balanceExpr(mosaicID int64) bson.M {
	return bson.M{"$reduce": bson.M{
		"input":        bson.M{"$ifNull": bson.A{"$account.mosaics", bson.A{}}},
		"initialValue": longZero,
		"in": bson.M{"$add": bson.A{
			"$$value",
			bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$$this.id", mosaicID}},
				"$$this.amount",
				longZero,
			}},
		}},
	}}
}
