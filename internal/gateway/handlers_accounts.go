package gateway

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/haasonsaas/chaingate/internal/chain"
)

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := s.accountAddress(chi.URLParam(r, "account"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.accounts.ByAddress(r.Context(), addr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeDocument(w, doc)
}

// accountPage serves one of the five account sort views.
func (s *Server) accountPage(view chain.View, prefix string, d direction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		anchorRaw := chi.URLParam(r, "account")
		limit, ok := s.pageLimit(w, r, chi.URLParam(r, "limit"), func(preset int64) string {
			return fmt.Sprintf("%s/%s/%s/limit/%d", prefix, d.name, anchorRaw, preset)
		})
		if !ok {
			return
		}

		anchor, err := s.accountAnchor(anchorRaw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		page, err := s.accounts.Page(r.Context(), view, d.dir, anchor, limit)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writePage(w, page)
	}
}
