package gateway

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/haasonsaas/chaingate/internal/chain"
	"github.com/haasonsaas/chaingate/internal/errs"
	"github.com/haasonsaas/chaingate/internal/keys"
	"github.com/haasonsaas/chaingate/internal/merkle"
)

func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request) {
	filter, err := transactionFilter(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.transactions.One(r.Context(), chain.Confirmed, filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeDocument(w, doc)
}

// groupPage serves the plain cursor pages of one transaction collection.
func (s *Server) groupPage(group chain.Group, prefix string, d direction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		anchorRaw := chi.URLParam(r, "anchor")
		limit, ok := s.pageLimit(w, r, chi.URLParam(r, "limit"), func(preset int64) string {
			return fmt.Sprintf("%s/%s/%s/limit/%d", prefix, d.name, anchorRaw, preset)
		})
		if !ok {
			return
		}

		anchor, err := s.transactionAnchor(anchorRaw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		page, err := s.transactions.Page(r.Context(), group, d.dir, anchor, limit)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writePage(w, page)
	}
}

func (s *Server) transactionsByType(d direction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		anchorRaw := chi.URLParam(r, "anchor")
		typeName := chi.URLParam(r, "type")
		limit, ok := s.pageLimit(w, r, chi.URLParam(r, "limit"), func(preset int64) string {
			return fmt.Sprintf("/transactions/%s/%s/type/%s/limit/%d", d.name, anchorRaw, typeName, preset)
		})
		if !ok {
			return
		}

		anchor, err := s.transactionAnchor(anchorRaw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		page, err := s.transactions.PageByType(r.Context(), d.dir, anchor, typeName, limit)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writePage(w, page)
	}
}

func (s *Server) transactionsByTypeFiltered(d direction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		anchorRaw := chi.URLParam(r, "anchor")
		typeName := chi.URLParam(r, "type")
		filterName := chi.URLParam(r, "filter")
		limit, ok := s.pageLimit(w, r, chi.URLParam(r, "limit"), func(preset int64) string {
			return fmt.Sprintf("/transactions/%s/%s/type/%s/filter/%s/limit/%d",
				d.name, anchorRaw, typeName, filterName, preset)
		})
		if !ok {
			return
		}

		anchor, err := s.transactionAnchor(anchorRaw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		page, err := s.transactions.PageByTypeWithFilter(r.Context(), d.dir, anchor, typeName, filterName, limit)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writePage(w, page)
	}
}

// handleTransactionMerkle proves a transaction's membership in its block
// by pulling the block's merkle hashes from the peer node.
func (s *Server) handleTransactionMerkle(w http.ResponseWriter, r *http.Request) {
	height, err := keys.ParseHeight(chi.URLParam(r, "height"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	hash, err := keys.ParseHash(chi.URLParam(r, "hash"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	tip, err := s.chain.Height(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if height == 0 || height > tip {
		s.writeError(w, r, errs.NotFound("chain height %d is too small for block %d", tip, height))
		return
	}

	hashes, err := s.peer.MerkleHashes(r.Context(), height)
	if err != nil {
		s.logger.Error(r.Context(), "peer merkle pull failed", "error", err, "height", height)
		writeJSON(w, http.StatusInternalServerError, errorBody("Internal", "internal server error"))
		return
	}

	path, err := merkle.AuditPath(hashes, hash)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	steps := make([]any, 0, len(path))
	for _, step := range path {
		steps = append(steps, map[string]any{
			"hash":     hexUpper(step.Hash),
			"position": step.Position,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"merklePath": steps})
}
