package chain

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/haasonsaas/chaingate/internal/cursor"
	"github.com/haasonsaas/chaingate/internal/errs"
	"github.com/haasonsaas/chaingate/internal/keys"
)

func testAddress(t *testing.T) keys.Address {
	t.Helper()
	publicKey := make([]byte, keys.PublicKeySize)
	publicKey[0] = 1
	addr, err := keys.AddressFromPublicKey(publicKey, keys.NetworkMijinTest)
	if err != nil {
		t.Fatalf("AddressFromPublicKey error = %v", err)
	}
	return addr
}

func accountsFixture(aliases map[uint64]int64) (*Accounts, *fakeStore) {
	store := &fakeStore{findOneFn: aliasedNamespaces(aliases)}
	return NewAccounts(store, NewNamespaces(store)), store
}

func TestAccountViewSortKeys(t *testing.T) {
	accounts, store := accountsFixture(map[uint64]int64{
		NamespaceCurrencyID: 111,
		NamespaceHarvestID:  222,
	})

	tests := []struct {
		name string
		view View
		want bson.D
	}{
		{"importance", ViewImportance, bson.D{
			{Key: "account.importance", Value: -1},
			{Key: "account.publicKeyHeight", Value: -1},
			{Key: "_id", Value: -1},
		}},
		{"harvested blocks", ViewHarvestedBlocks, bson.D{
			{Key: "account.harvestedBlocks", Value: -1},
			{Key: "account.publicKeyHeight", Value: -1},
			{Key: "_id", Value: -1},
		}},
		{"harvested fees", ViewHarvestedFees, bson.D{
			{Key: "account.harvestedFees", Value: -1},
			{Key: "account.harvestedBlocks", Value: -1},
			{Key: "account.publicKeyHeight", Value: -1},
			{Key: "_id", Value: -1},
		}},
		{"currency balance", ViewCurrencyBalance, bson.D{
			{Key: "account.balance", Value: -1},
			{Key: "account.publicKeyHeight", Value: -1},
			{Key: "_id", Value: -1},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := accounts.Page(context.Background(), tt.view, cursor.From, cursor.Absolute(cursor.Most), 25); err != nil {
				t.Fatalf("Page error = %v", err)
			}
			if !reflect.DeepEqual(store.lastSort, tt.want) {
				t.Errorf("sort = %v, want %v", store.lastSort, tt.want)
			}
		})
	}
}

// Each balance view must resolve its own namespace alias; the currency
// view must not read the harvest mosaic.
func TestBalanceViewsUseMatchingMosaic(t *testing.T) {
	tests := []struct {
		name string
		view View
		want int64
	}{
		{"currency", ViewCurrencyBalance, 111},
		{"harvest", ViewHarvestBalance, 222},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts, store := accountsFixture(map[uint64]int64{
				NamespaceCurrencyID: 111,
				NamespaceHarvestID:  222,
			})

			if _, err := accounts.Page(context.Background(), tt.view, cursor.From, cursor.Absolute(cursor.Most), 25); err != nil {
				t.Fatalf("Page error = %v", err)
			}

			addFields := store.lastStages[0][0]
			if addFields.Key != "$addFields" {
				t.Fatalf("first stage = %q", addFields.Key)
			}
			reduce := addFields.Value.(bson.M)["account.balance"].(bson.M)["$reduce"].(bson.M)
			cond := reduce["in"].(bson.M)["$add"].(bson.A)[1].(bson.M)["$cond"].(bson.A)
			eq := cond[0].(bson.M)["$eq"].(bson.A)
			if eq[1] != tt.want {
				t.Errorf("balance mosaic id = %v, want %d", eq[1], tt.want)
			}
		})
	}
}

func TestBalancePageShape(t *testing.T) {
	accounts, store := accountsFixture(map[uint64]int64{
		NamespaceCurrencyID: 111,
		NamespaceHarvestID:  222,
	})

	if _, err := accounts.Page(context.Background(), ViewCurrencyBalance, cursor.From, cursor.Absolute(cursor.Most), 25); err != nil {
		t.Fatalf("Page error = %v", err)
	}

	// addFields precedes the range match; the computed field never
	// reaches the caller.
	if key := store.lastStages[1][0].Key; key != "$match" {
		t.Errorf("second stage = %q, want $match", key)
	}
	if !reflect.DeepEqual(store.lastProjection, bson.M{"account.balance": 0}) {
		t.Errorf("projection = %v", store.lastProjection)
	}
	if store.lastLimit != 25 {
		t.Errorf("limit = %d", store.lastLimit)
	}
}

func TestHarvestedFeesComputesBothFields(t *testing.T) {
	accounts, store := accountsFixture(nil)

	if _, err := accounts.Page(context.Background(), ViewHarvestedFees, cursor.From, cursor.Absolute(cursor.Most), 10); err != nil {
		t.Fatalf("Page error = %v", err)
	}

	// Two addFields stages, blocks count first (it is part of the sort
	// key after fees).
	first := store.lastStages[0][0].Value.(bson.M)
	if _, ok := first["account.harvestedBlocks"]; !ok {
		t.Errorf("first addFields = %v", first)
	}
	second := store.lastStages[1][0].Value.(bson.M)
	if _, ok := second["account.harvestedFees"]; !ok {
		t.Errorf("second addFields = %v", second)
	}
	want := bson.M{"account.harvestedBlocks": 0, "account.harvestedFees": 0}
	if !reflect.DeepEqual(store.lastProjection, want) {
		t.Errorf("projection = %v, want %v", store.lastProjection, want)
	}
}

func TestAccountAnchorByAddress(t *testing.T) {
	addr := testAddress(t)
	id := primitive.NewObjectID()
	store := &fakeStore{}
	var anchorStages []bson.D
	store.aggregateFn = func(collection string, stages []bson.D, sort bson.D, projection bson.M, limit int64) ([]bson.M, error) {
		if limit == 1 {
			anchorStages = stages
			return []bson.M{{
				"_id":     id,
				"account": bson.M{"importance": int64(55), "publicKeyHeight": int64(2)},
			}}, nil
		}
		return nil, nil
	}
	accounts := NewAccounts(store, NewNamespaces(store))

	if _, err := accounts.Page(context.Background(), ViewImportance, cursor.From, accounts.AnchorAtAddress(addr), 10); err != nil {
		t.Fatalf("Page error = %v", err)
	}

	// The anchor resolution ran the computed pipeline against the one
	// account.
	match := anchorStages[0][0]
	if match.Key != "$match" {
		t.Fatalf("anchor first stage = %q", match.Key)
	}
	if !reflect.DeepEqual(match.Value, bson.M{"account.address": addr.Bytes()}) {
		t.Errorf("anchor match = %v", match.Value)
	}

	// The page's range condition anchors at the resolved tuple.
	pageMatch := store.lastStages[1][0].Value.(bson.M)
	or := pageMatch["$or"].([]bson.M)
	if !reflect.DeepEqual(or[0], bson.M{"account.importance": bson.M{"$lt": int64(55)}}) {
		t.Errorf("primary range clause = %v", or[0])
	}
}

func TestAccountAnchorNotFound(t *testing.T) {
	addr := testAddress(t)
	accounts, _ := accountsFixture(nil)

	_, err := accounts.Page(context.Background(), ViewImportance, cursor.From, accounts.AnchorAtAddress(addr), 10)
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("missing account anchor error = %v, want ErrNotFound", err)
	}
}

func TestAccountByAddress(t *testing.T) {
	addr := testAddress(t)
	store := &fakeStore{findOneFn: func(collection string, filter bson.M) (bson.M, error) {
		if collection != CollAccounts {
			return nil, nil
		}
		return bson.M{"_id": "x", "account": bson.M{"address": addr.Bytes()}}, nil
	}}
	accounts := NewAccounts(store, NewNamespaces(store))

	doc, err := accounts.ByAddress(context.Background(), addr)
	if err != nil {
		t.Fatalf("ByAddress error = %v", err)
	}
	if _, ok := doc["_id"]; ok {
		t.Errorf("_id not stripped: %v", doc)
	}
	if !reflect.DeepEqual(store.lastFilter, bson.M{"account.address": addr.Bytes()}) {
		t.Errorf("filter = %v", store.lastFilter)
	}
}
