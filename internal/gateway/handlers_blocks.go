package gateway

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/haasonsaas/chaingate/internal/cursor"
	"github.com/haasonsaas/chaingate/internal/keys"
)

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	height, err := keys.ParseHeight(chi.URLParam(r, "height"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.blocks.AtHeight(r.Context(), height)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeDocument(w, doc)
}

func (s *Server) handleBlockTransactions(w http.ResponseWriter, r *http.Request) {
	height, err := keys.ParseHeight(chi.URLParam(r, "height"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	docs, err := s.transactions.AtHeight(r.Context(), height, s.config.DB.PageSizeMax)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writePage(w, docs)
}

// handleBlockRange serves the ascending block window. A zero height is
// redirected to height 1 and an off-grid limit to its grid-snapped value
// before any store work happens.
func (s *Server) handleBlockRange(w http.ResponseWriter, r *http.Request) {
	height, err := keys.ParseHeight(chi.URLParam(r, "height"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := keys.ParseHeight(chi.URLParam(r, "limit"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	grid := s.config.PageSize
	if height == 0 || !grid.Contains(int64(limit)) {
		canonicalHeight := height
		if canonicalHeight == 0 {
			canonicalHeight = 1
		}
		target := fmt.Sprintf("/blocks/%d/limit/%d", canonicalHeight, grid.Snap(int64(limit)))
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	docs, err := s.blocks.Range(r.Context(), height, int64(limit))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writePage(w, docs)
}

func (s *Server) blocksPage(d direction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		anchorRaw := chi.URLParam(r, "anchor")
		limit, ok := s.pageLimit(w, r, chi.URLParam(r, "limit"), func(preset int64) string {
			return fmt.Sprintf("/blocks/%s/%s/limit/%d", d.name, anchorRaw, preset)
		})
		if !ok {
			return
		}

		anchor, err := s.blockAnchor(anchorRaw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		var page []bson.M
		if d.dir == cursor.Since {
			page, err = s.blocks.Since(r.Context(), anchor, limit)
		} else {
			page, err = s.blocks.From(r.Context(), anchor, limit)
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writePage(w, page)
	}
}
