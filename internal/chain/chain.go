// Package chain exposes the chain-state entity repositories: blocks,
// transactions, mosaics, namespaces, and accounts, each paged by the cursor
// engine over the node's MongoDB collections.
package chain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/haasonsaas/chaingate/internal/cursor"
	"github.com/haasonsaas/chaingate/internal/errs"
)

// Collection names as laid out by the node's write path.
const (
	CollBlocks         = "blocks"
	CollTransactions   = "transactions"
	CollUnconfirmed    = "unconfirmedTransactions"
	CollPartial        = "partialTransactions"
	CollMosaics        = "mosaics"
	CollNamespaces     = "namespaces"
	CollAccounts       = "accounts"
	CollMultisigs      = "multisigs"
	CollChainStatistic = "chainStatistic"
)

// Info is the chain statistic: tip height and cumulative score.
type Info struct {
	Height    uint64 `json:"height"`
	ScoreLow  uint64 `json:"scoreLow"`
	ScoreHigh uint64 `json:"scoreHigh"`
}

// Chain reads the chain statistic document.
type Chain struct {
	store cursor.Store
}

// NewChain builds the chain statistic reader.
func NewChain(store cursor.Store) *Chain {
	return &Chain{store: store}
}

// Statistic returns the current chain info.
func (c *Chain) Statistic(ctx context.Context) (Info, error) {
	doc, err := c.store.FindOne(ctx, CollChainStatistic, bson.M{}, nil)
	if err != nil {
		return Info{}, err
	}
	if doc == nil {
		return Info{}, errs.NotFound("chain statistic")
	}

	current, _ := doc["current"].(bson.M)
	return Info{
		Height:    asUint64(current["height"]),
		ScoreLow:  asUint64(current["scoreLow"]),
		ScoreHigh: asUint64(current["scoreHigh"]),
	}, nil
}

// Height returns the chain tip height.
func (c *Chain) Height(ctx context.Context) (uint64, error) {
	info, err := c.Statistic(ctx)
	if err != nil {
		return 0, err
	}
	return info.Height, nil
}

// HeightFunc adapts the reader for chain-dependent cursor descriptors.
func (c *Chain) HeightFunc() cursor.HeightFunc {
	return c.Height
}

func asUint64(v any) uint64 {
	switch n := v.(type) {
	case int64:
		return uint64(n)
	case int32:
		return uint64(n)
	case int:
		return uint64(n)
	default:
		return 0
	}
}

// longZero is the explicit 64-bit zero used as reduce accumulator seed so
// summed fields stay longs through the pipeline.
var longZero = bson.M{"$toLong": 0}
