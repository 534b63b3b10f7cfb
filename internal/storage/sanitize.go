package storage

import (
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sentinel values used to build absolute anchor tuples. The long sentinels
// bound every numeric sort field; the document-id sentinels bound the _id
// tiebreaker.
var (
	MinLong = int64(math.MinInt64)
	MaxLong = int64(math.MaxInt64)

	MinDocID = primitive.ObjectID{}
	MaxDocID = primitive.ObjectID{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
)

// StripID deletes the internal document id in place and returns the document.
func StripID(doc bson.M) bson.M {
	if doc == nil {
		return nil
	}
	delete(doc, "_id")
	return doc
}

// StripIDs applies StripID across a result page.
func StripIDs(docs []bson.M) []bson.M {
	for _, doc := range docs {
		StripID(doc)
	}
	return docs
}

// PromoteIDToMeta copies the internal id to meta.id, then deletes the
// internal field. A document never carries both forms.
func PromoteIDToMeta(doc bson.M) bson.M {
	if doc == nil {
		return nil
	}
	id, ok := doc["_id"]
	if !ok {
		return doc
	}
	meta, ok := doc["meta"].(bson.M)
	if !ok {
		meta = bson.M{}
		doc["meta"] = meta
	}
	meta["id"] = id
	delete(doc, "_id")
	return doc
}

// PromoteIDsToMeta applies PromoteIDToMeta across a result page.
func PromoteIDsToMeta(docs []bson.M) []bson.M {
	for _, doc := range docs {
		PromoteIDToMeta(doc)
	}
	return docs
}
