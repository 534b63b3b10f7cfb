package gateway

import (
	"net/http"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/haasonsaas/chaingate/internal/chain"
)

func blockAt(height int64) bson.M {
	return bson.M{
		"_id":   primitive.NewObjectID(),
		"meta":  bson.M{"hash": []byte{0xAB, 0xCD}},
		"block": bson.M{"height": height},
	}
}

func TestGetBlock(t *testing.T) {
	store := &fakeStore{findOneFn: withStatistic(10, func(collection string, filter bson.M) (bson.M, error) {
		if collection == chain.CollBlocks && filter["block.height"] == int64(3) {
			return blockAt(3), nil
		}
		return nil, nil
	})}
	srv := testServer(t, store)

	rec := get(t, srv, "/block/3")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var doc map[string]any
	decodeBody(t, rec, &doc)
	block := doc["block"].(map[string]any)
	if block["height"] != float64(3) {
		t.Errorf("block = %v", block)
	}
	if _, ok := doc["_id"]; ok {
		t.Errorf("_id leaked: %v", doc)
	}
	// Binary meta.hash renders as upper hex.
	if doc["meta"].(map[string]any)["hash"] != "ABCD" {
		t.Errorf("meta.hash = %v", doc["meta"])
	}
}

func TestGetBlockAboveTip(t *testing.T) {
	srv := testServer(t, &fakeStore{findOneFn: withStatistic(10, nil)})

	rec := get(t, srv, "/block/11")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "too small") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestBlockRange(t *testing.T) {
	store := &fakeStore{
		findOneFn: withStatistic(3700, nil),
		findFn: func(collection string, filter bson.M, sort bson.D, limit int64) ([]bson.M, error) {
			docs := make([]bson.M, limit)
			for i := range docs {
				docs[i] = blockAt(int64(i) + 1)
			}
			return docs, nil
		},
	}
	srv := testServer(t, store)

	rec := get(t, srv, "/blocks/1/limit/80")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var docs []any
	decodeBody(t, rec, &docs)
	if len(docs) != 80 {
		t.Errorf("page size = %d, want 80", len(docs))
	}
}

func TestBlockRangeRedirects(t *testing.T) {
	srv := testServer(t, &fakeStore{findOneFn: withStatistic(3700, nil)})

	tests := []struct {
		path     string
		location string
	}{
		{"/blocks/3601/limit/29", "/blocks/3601/limit/30"},
		{"/blocks/3601/limit/100", "/blocks/3601/limit/80"},
		{"/blocks/0/limit/0", "/blocks/1/limit/30"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, srv, tt.path)
			if rec.Code != http.StatusFound {
				t.Fatalf("status = %d", rec.Code)
			}
			if got := rec.Header().Get("Location"); got != tt.location {
				t.Errorf("Location = %q, want %q", got, tt.location)
			}
		})
	}
}

func TestBlockTransactionsAboveTip(t *testing.T) {
	srv := testServer(t, &fakeStore{findOneFn: withStatistic(10, nil)})

	if rec := get(t, srv, "/block/12/transactions"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestTransactionsPageMissingHashAnchor(t *testing.T) {
	srv := testServer(t, &fakeStore{findOneFn: withStatistic(10, nil)})
	hash := strings.Repeat("F9", 32)

	rec := get(t, srv, "/transactions/from/"+hash+"/limit/25")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing anchor status = %d", rec.Code)
	}
}

func TestTransactionsPageMalformedAnchor(t *testing.T) {
	srv := testServer(t, &fakeStore{findOneFn: withStatistic(10, nil)})
	longHash := strings.Repeat("F9", 33) // 66 chars

	rec := get(t, srv, "/transactions/from/"+longHash+"/limit/25")
	if rec.Code != http.StatusConflict {
		t.Errorf("malformed anchor status = %d", rec.Code)
	}
}

func TestTransactionsCursorLimitRedirect(t *testing.T) {
	srv := testServer(t, &fakeStore{findOneFn: withStatistic(10, nil)})

	rec := get(t, srv, "/transactions/from/latest/limit/500")
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/transactions/from/latest/limit/25" {
		t.Errorf("Location = %q", got)
	}
}

func TestTransactionsFromLatest(t *testing.T) {
	store := &fakeStore{
		findOneFn: withStatistic(10, nil),
		findFn: func(collection string, filter bson.M, sort bson.D, limit int64) ([]bson.M, error) {
			if collection != chain.CollTransactions {
				return nil, nil
			}
			return []bson.M{{
				"_id":         primitive.NewObjectID(),
				"meta":        bson.M{"height": int64(10), "index": int32(0)},
				"transaction": bson.M{"type": int32(chain.TypeTransfer)},
			}}, nil
		},
	}
	srv := testServer(t, store)

	rec := get(t, srv, "/transactions/from/latest/limit/25")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var docs []map[string]any
	decodeBody(t, rec, &docs)
	if len(docs) != 1 {
		t.Fatalf("page = %v", docs)
	}
	meta := docs[0]["meta"].(map[string]any)
	if _, ok := meta["id"]; !ok {
		t.Errorf("meta.id missing: %v", meta)
	}
	if _, ok := docs[0]["_id"]; ok {
		t.Errorf("_id leaked: %v", docs[0])
	}
}

func TestSinceLatestIsEmptyArray(t *testing.T) {
	srv := testServer(t, &fakeStore{findOneFn: withStatistic(10, nil)})

	rec := get(t, srv, "/transactions/since/latest/limit/25")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want empty array", body)
	}
}

func TestTransfersWithMultisigFilter(t *testing.T) {
	store := &fakeStore{
		findOneFn: withStatistic(10, nil),
		aggregateFn: func(collection string, stages []bson.D, limit int64) ([]bson.M, error) {
			return []bson.M{{
				"_id":         primitive.NewObjectID(),
				"meta":        bson.M{"height": int64(9), "index": int32(1)},
				"transaction": bson.M{"type": int32(chain.TypeTransfer)},
			}}, nil
		},
	}
	srv := testServer(t, store)

	rec := get(t, srv, "/transactions/from/latest/type/transfer/filter/multisig/limit/25")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestUnknownTypeAndFilterAre409(t *testing.T) {
	srv := testServer(t, &fakeStore{findOneFn: withStatistic(10, nil)})

	if rec := get(t, srv, "/transactions/from/latest/type/teleport/limit/25"); rec.Code != http.StatusConflict {
		t.Errorf("unknown type status = %d", rec.Code)
	}
	if rec := get(t, srv, "/transactions/from/latest/type/transfer/filter/bogus/limit/25"); rec.Code != http.StatusConflict {
		t.Errorf("unknown filter status = %d", rec.Code)
	}
}

func TestUnknownDurationIs404(t *testing.T) {
	srv := testServer(t, &fakeStore{findOneFn: withStatistic(10, nil)})

	if rec := get(t, srv, "/transactions/before/latest/limit/25"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func aliasedStore(tip uint64) *fakeStore {
	return &fakeStore{findOneFn: withStatistic(tip, func(collection string, filter bson.M) (bson.M, error) {
		if collection != chain.CollNamespaces {
			return nil, nil
		}
		level0, _ := filter["namespace.level0"].(int64)
		return bson.M{"namespace": bson.M{
			"level0": level0,
			"alias":  bson.M{"mosaicId": int64(777)},
		}}, nil
	})}
}

func TestAccountsBalancePage(t *testing.T) {
	store := aliasedStore(10)
	store.aggregateFn = func(collection string, stages []bson.D, limit int64) ([]bson.M, error) {
		docs := make([]bson.M, 0, limit)
		for i := int64(0); i < limit; i++ {
			docs = append(docs, bson.M{
				"_id":     primitive.NewObjectID(),
				"account": bson.M{"publicKeyHeight": int64(1)},
			})
		}
		return docs, nil
	}
	srv := testServer(t, store)

	rec := get(t, srv, "/accounts/balance/currency/from/most/limit/25")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var docs []map[string]any
	decodeBody(t, rec, &docs)
	if len(docs) != 25 {
		t.Errorf("page size = %d, want 25", len(docs))
	}
}

func TestAccountsPageRedirectKeepsNestedPrefix(t *testing.T) {
	srv := testServer(t, aliasedStore(10))

	rec := get(t, srv, "/accounts/harvested/blocks/from/most/limit/9999")
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/accounts/harvested/blocks/from/most/limit/25" {
		t.Errorf("Location = %q", got)
	}
}

func TestAccountByPublicKey(t *testing.T) {
	publicKey := strings.Repeat("2C", 32)

	var queried bson.M
	store := &fakeStore{findOneFn: withStatistic(10, func(collection string, filter bson.M) (bson.M, error) {
		if collection == chain.CollAccounts {
			queried = filter
			return bson.M{"_id": primitive.NewObjectID(), "account": bson.M{}}, nil
		}
		return nil, nil
	})}
	srv := testServer(t, store)

	rec := get(t, srv, "/account/"+publicKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	addr, ok := queried["account.address"].([]byte)
	if !ok || len(addr) != 25 {
		t.Fatalf("queried filter = %v", queried)
	}
	// Default network is publicTest.
	if addr[0] != 0x98 {
		t.Errorf("network byte = %#x", addr[0])
	}
}

func TestAccountMalformedKeyIs409(t *testing.T) {
	srv := testServer(t, &fakeStore{findOneFn: withStatistic(10, nil)})

	if rec := get(t, srv, "/account/notakey"); rec.Code != http.StatusConflict {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestStoreErrorIsRedacted(t *testing.T) {
	store := &fakeStore{findOneFn: func(collection string, filter bson.M) (bson.M, error) {
		return nil, errFake
	}}
	srv := testServer(t, store)

	rec := get(t, srv, "/chain/info")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "credentials") {
		t.Errorf("store detail leaked: %s", rec.Body.String())
	}
}
