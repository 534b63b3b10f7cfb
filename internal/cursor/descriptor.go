package cursor

import (
	"go.mongodb.org/mongo-driver/bson"
)

// AggregateMode controls how documents carrying an aggregate back-reference
// (meta.aggregateId) participate in a transaction page. Dependents of an
// aggregate are not top-level transactions, except in the partial collection
// where only dependents-in-progress exist.
type AggregateMode int

const (
	// AggregateAny applies no aggregate-presence constraint.
	AggregateAny AggregateMode = iota
	// AggregateExclude drops documents with an aggregate back-reference.
	AggregateExclude
	// AggregateRequire keeps only documents with an aggregate back-reference.
	AggregateRequire
)

// ComputedField is a per-query materialized attribute used for sort or
// match. The expression is evaluated by an $addFields stage at Path, and
// the field is projected away before documents are returned.
type ComputedField struct {
	Path string
	Expr any
}

// Descriptor parameterizes the engine for one entity collection.
type Descriptor struct {
	// Collection is the logical store name.
	Collection string

	// SortKey is the ordered list of field paths that totally orders the
	// entity, descending. The last entry is always "_id", so ties are
	// impossible.
	SortKey []string

	// Computed lists the sort fields that do not exist on disk and must be
	// materialized per query. Entries are evaluated in order before the
	// range match.
	Computed []ComputedField

	// BaseFilter is AND-ed into every page query (e.g. the transaction type
	// restriction). Anchor lookups ignore it. Nil means no restriction.
	BaseFilter bson.M

	// PostStages are extra pipeline stages appended after the range match
	// (cross-collection lookup filters). Their scaffold fields are listed
	// in ScaffoldPaths so they are projected away.
	PostStages []bson.D

	// ScaffoldPaths are additional materialized paths (beyond Computed)
	// that must not appear in returned documents.
	ScaffoldPaths []string

	// Aggregates is the aggregate-presence toggle for transaction
	// collections.
	Aggregates AggregateMode

	// DependsOnChainStatistic makes the Latest anchor use chain height + 1
	// so the chain tip itself is included in From(Latest).
	DependsOnChainStatistic bool

	// Sanitize is the post-processor applied to the result page. Required.
	Sanitize func([]bson.M) []bson.M
}

// needsPipeline reports whether the entity's page query must run as an
// aggregation rather than a plain find.
func (d *Descriptor) needsPipeline() bool {
	return len(d.Computed) > 0 || len(d.PostStages) > 0
}

// scaffold returns every materialized path to project away.
func (d *Descriptor) scaffold() []string {
	if len(d.Computed) == 0 && len(d.ScaffoldPaths) == 0 {
		return nil
	}
	paths := make([]string, 0, len(d.Computed)+len(d.ScaffoldPaths))
	for _, cf := range d.Computed {
		paths = append(paths, cf.Path)
	}
	paths = append(paths, d.ScaffoldPaths...)
	return paths
}
