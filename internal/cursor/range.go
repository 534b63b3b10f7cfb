package cursor

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/haasonsaas/chaingate/internal/storage"
)

// rangeCondition builds the lexicographic walk over the sort key: an OR of
// per-prefix clauses where the first i fields equal the anchor tuple and
// field i is strictly beyond it. A single compound comparator would lose
// tie-break fidelity, so the expanded form is mandatory.
func rangeCondition(sortKey []string, tuple []any, dir Direction) bson.M {
	op := "$lt"
	if dir == Since {
		op = "$gt"
	}

	clauses := make([]bson.M, 0, len(sortKey))
	for i, field := range sortKey {
		clause := bson.M{}
		for j := 0; j < i; j++ {
			clause[sortKey[j]] = tuple[j]
		}
		clause[field] = bson.M{op: tuple[i]}
		clauses = append(clauses, clause)
	}
	return bson.M{"$or": clauses}
}

// sortOrder returns the sort document for the query phase. From scans the
// descending order directly; Since locates the window ascending and the
// engine reverses the page afterwards.
func sortOrder(sortKey []string, dir Direction) bson.D {
	v := -1
	if dir == Since {
		v = 1
	}
	order := make(bson.D, 0, len(sortKey))
	for _, field := range sortKey {
		order = append(order, bson.E{Key: field, Value: v})
	}
	return order
}

// sentinelTuple builds the anchor tuple for an absolute keyword: every
// numeric field at the long sentinel and the id field at the id sentinel.
// topHeight overrides the first field for chain-dependent entities.
func sentinelTuple(sortKey []string, top bool, topHeight any) []any {
	tuple := make([]any, len(sortKey))
	for i, field := range sortKey {
		switch {
		case field == "_id" && top:
			tuple[i] = storage.MaxDocID
		case field == "_id":
			tuple[i] = storage.MinDocID
		case top:
			tuple[i] = storage.MaxLong
		default:
			tuple[i] = storage.MinLong
		}
	}
	if topHeight != nil && top {
		tuple[0] = topHeight
	}
	return tuple
}

// tupleFromDocument reads the anchor tuple out of a resolved anchor
// document. Missing numeric fields default to zero, matching the computed
// field expressions, which also default absent source arrays to zero.
func tupleFromDocument(doc bson.M, sortKey []string) []any {
	tuple := make([]any, len(sortKey))
	for i, field := range sortKey {
		v := lookupPath(doc, field)
		if v == nil && field != "_id" {
			v = int64(0)
		}
		tuple[i] = normalizeLong(v)
	}
	return tuple
}

// lookupPath walks a dotted field path through nested documents.
func lookupPath(doc bson.M, path string) any {
	parts := strings.Split(path, ".")
	var cur any = doc
	for _, part := range parts {
		m, ok := cur.(bson.M)
		if !ok {
			return nil
		}
		cur, ok = m[part]
		if !ok {
			return nil
		}
	}
	return cur
}

// normalizeLong widens small integer decodings so range comparisons use a
// consistent 64-bit representation.
func normalizeLong(v any) any {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int:
		return int64(n)
	default:
		return v
	}
}
