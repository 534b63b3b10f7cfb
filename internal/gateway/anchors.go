package gateway

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/haasonsaas/chaingate/internal/cursor"
	"github.com/haasonsaas/chaingate/internal/errs"
	"github.com/haasonsaas/chaingate/internal/keys"
)

// pageLimit validates {limit} against the cursor count range. A limit off
// the range redirects to the preset; ok is false after the redirect has
// been written.
func (s *Server) pageLimit(w http.ResponseWriter, r *http.Request, raw string, rebuild func(limit int64) string) (int64, bool) {
	limit, err := keys.ParseHeight(raw)
	if err != nil || !s.config.CountRange.Contains(int64(limit)) {
		http.Redirect(w, r, rebuild(s.config.CountRange.Preset), http.StatusFound)
		return 0, false
	}
	return int64(limit), true
}

// blockAnchor resolves {anchor} for block pages: a keyword or a height.
func (s *Server) blockAnchor(raw string) (cursor.Anchor, error) {
	if kw, ok := cursor.ParseTimeKeyword(raw); ok {
		return cursor.Absolute(kw), nil
	}
	height, err := keys.ParseHeight(raw)
	if err != nil {
		return cursor.Anchor{}, err
	}
	return s.blocks.AnchorAtHeight(height), nil
}

// transactionAnchor resolves {anchor} for transaction pages: a keyword, a
// 64-hex hash, or a 24-hex document id, tried in that order.
func (s *Server) transactionAnchor(raw string) (cursor.Anchor, error) {
	if kw, ok := cursor.ParseTimeKeyword(raw); ok {
		return cursor.Absolute(kw), nil
	}
	if keys.IsHexOfLength(raw, 2*keys.HashSize) {
		hash, err := keys.ParseHash(raw)
		if err != nil {
			return cursor.Anchor{}, err
		}
		return s.transactions.AnchorAtHash(hash), nil
	}
	id, err := keys.ParseObjectID(raw)
	if err != nil {
		return cursor.Anchor{}, errs.InvalidFormat("transaction anchor %q", raw)
	}
	return s.transactions.AnchorAtID(id), nil
}

// transactionFilter resolves the {id} of single-transaction routes into
// the equality condition for the lookup.
func transactionFilter(raw string) (bson.M, error) {
	if keys.IsHexOfLength(raw, 2*keys.HashSize) {
		hash, err := keys.ParseHash(raw)
		if err != nil {
			return nil, err
		}
		return bson.M{"meta.hash": hash}, nil
	}
	id, err := keys.ParseObjectID(raw)
	if err != nil {
		return nil, errs.InvalidFormat("transaction id %q", raw)
	}
	return bson.M{"_id": id}, nil
}

// mosaicAnchor resolves {anchor} for mosaic pages: a keyword or a 16-hex
// mosaic id.
func (s *Server) mosaicAnchor(raw string) (cursor.Anchor, error) {
	if kw, ok := cursor.ParseTimeKeyword(raw); ok {
		return cursor.Absolute(kw), nil
	}
	id, err := keys.ParseUint64Hex(raw)
	if err != nil {
		return cursor.Anchor{}, err
	}
	return s.mosaics.AnchorAtID(id), nil
}

// namespaceAnchor resolves {anchor} for namespace pages: a keyword, a
// 16-hex namespace id, or a 24-hex document id.
func (s *Server) namespaceAnchor(raw string) (cursor.Anchor, error) {
	if kw, ok := cursor.ParseTimeKeyword(raw); ok {
		return cursor.Absolute(kw), nil
	}
	if keys.IsHexOfLength(raw, 24) {
		id, err := keys.ParseObjectID(raw)
		if err != nil {
			return cursor.Anchor{}, err
		}
		return cursor.At(bson.M{"_id": id}), nil
	}
	id, err := keys.ParseUint64Hex(raw)
	if err != nil {
		return cursor.Anchor{}, err
	}
	return s.namespaces.AnchorAtID(id), nil
}

// accountAddress resolves {account} into a decoded address: 40-base32 or
// 50-hex address forms, or a 64-hex public key converted on the
// configured network.
func (s *Server) accountAddress(raw string) (keys.Address, error) {
	if keys.IsHexOfLength(raw, 2*keys.PublicKeySize) {
		publicKey, err := keys.ParsePublicKey(raw)
		if err != nil {
			return keys.Address{}, err
		}
		return keys.AddressFromPublicKey(publicKey, s.network)
	}
	return keys.ParseAddress(raw)
}

// accountAnchor resolves {account} for account pages: a quantity keyword
// or an account key.
func (s *Server) accountAnchor(raw string) (cursor.Anchor, error) {
	if kw, ok := cursor.ParseQuantityKeyword(raw); ok {
		return cursor.Absolute(kw), nil
	}
	addr, err := s.accountAddress(raw)
	if err != nil {
		return cursor.Anchor{}, err
	}
	return s.accounts.AnchorAtAddress(addr), nil
}
