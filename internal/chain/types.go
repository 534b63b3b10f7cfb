package chain

import (
	"github.com/haasonsaas/chaingate/internal/errs"
)

// Transaction entity-type codes as written by the node.
const (
	TypeTransfer              = 0x4154
	TypeRegisterNamespace     = 0x414E
	TypeAliasAddress          = 0x424E
	TypeAliasMosaic           = 0x434E
	TypeMosaicDefinition      = 0x414D
	TypeMosaicSupplyChange    = 0x424D
	TypeModifyMultisigAccount = 0x4155
	TypeAggregateComplete     = 0x4141
	TypeAggregateBonded       = 0x4241
	TypeHashLock              = 0x4148
	TypeSecretLock            = 0x4152
	TypeSecretProof           = 0x4252
	TypeAccountLink           = 0x414C
)

var transactionTypes = map[string]int32{
	"transfer":              TypeTransfer,
	"registerNamespace":     TypeRegisterNamespace,
	"aliasAddress":          TypeAliasAddress,
	"aliasMosaic":           TypeAliasMosaic,
	"mosaicDefinition":      TypeMosaicDefinition,
	"mosaicSupplyChange":    TypeMosaicSupplyChange,
	"modifyMultisigAccount": TypeModifyMultisigAccount,
	"aggregateComplete":     TypeAggregateComplete,
	"aggregateBonded":       TypeAggregateBonded,
	"hashLock":              TypeHashLock,
	"secretLock":            TypeSecretLock,
	"secretProof":           TypeSecretProof,
	"accountLink":           TypeAccountLink,
}

// TransactionTypeCode maps a route-supplied type name to its code. Unknown
// names are a key-format error (409).
func TransactionTypeCode(name string) (int32, error) {
	code, ok := transactionTypes[name]
	if !ok {
		return 0, errs.InvalidFormat("transaction type %q", name)
	}
	return code, nil
}

// isAggregateType reports whether a transaction document of this type
// carries dependent sub-transactions.
func isAggregateType(code int32) bool {
	return code == TypeAggregateComplete || code == TypeAggregateBonded
}
