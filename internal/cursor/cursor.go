// Package cursor implements the query engine behind every paged entity
// endpoint: blocks, transactions, mosaics, namespaces, and account views.
//
// A page is addressed by an anchor (an absolute keyword, a natural key, or
// an internal document id) and walked in one of two directions. The engine
// resolves the anchor into a tuple over the entity's composite sort key,
// builds a lexicographic range condition excluding the anchor itself, and
// executes a bounded sorted query. Output is always descending by the sort
// key, at most n documents, never containing the anchor.
package cursor

import (
	"go.mongodb.org/mongo-driver/bson"
)

// Direction selects which side of the anchor a page covers.
type Direction int

const (
	// From pages the documents strictly preceding the anchor, newest first.
	From Direction = iota
	// Since pages the documents strictly following the anchor. The window
	// is located with the ascending range; output is still descending.
	Since
)

func (d Direction) String() string {
	if d == Since {
		return "since"
	}
	return "from"
}

// Keyword is an absolute anchor: the extreme ends of the sort order.
type Keyword string

const (
	// Latest and Earliest bound time-ordered entities.
	Latest   Keyword = "latest"
	Earliest Keyword = "earliest"

	// Most and Least are the quantity analogues used by account views.
	Most  Keyword = "most"
	Least Keyword = "least"
)

// top reports whether the keyword names the high end of the sort order.
func (k Keyword) top() bool { return k == Latest || k == Most }

// ParseTimeKeyword accepts the keywords valid for time-ordered entities.
func ParseTimeKeyword(s string) (Keyword, bool) {
	if s == string(Latest) || s == string(Earliest) {
		return Keyword(s), true
	}
	return "", false
}

// ParseQuantityKeyword accepts the keywords valid for quantity-ordered
// account views.
func ParseQuantityKeyword(s string) (Keyword, bool) {
	if s == string(Most) || s == string(Least) {
		return Keyword(s), true
	}
	return "", false
}

// Anchor is the user-supplied boundary of a page, already parsed by the
// route layer into either an absolute keyword or an equality condition
// locating the anchor document.
type Anchor struct {
	keyword Keyword
	filter  bson.M
}

// Absolute returns an anchor at one of the sort order's extremes.
func Absolute(kw Keyword) Anchor {
	return Anchor{keyword: kw}
}

// At returns an anchor located by an equality condition on a natural key
// or internal document id (e.g. {"block.height": h}, {"meta.hash": ...},
// {"_id": oid}, {"account.address": bytes}).
func At(filter bson.M) Anchor {
	return Anchor{filter: filter}
}

// IsAbsolute reports whether the anchor is a keyword anchor.
func (a Anchor) IsAbsolute() bool { return a.keyword != "" }
