package gateway

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/haasonsaas/chaingate/internal/cursor"
	"github.com/haasonsaas/chaingate/internal/keys"
)

func (s *Server) handleMosaic(w http.ResponseWriter, r *http.Request) {
	id, err := keys.ParseUint64Hex(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.mosaics.ByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeDocument(w, doc)
}

func (s *Server) mosaicsPage(d direction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		anchorRaw := chi.URLParam(r, "anchor")
		limit, ok := s.pageLimit(w, r, chi.URLParam(r, "limit"), func(preset int64) string {
			return fmt.Sprintf("/mosaics/%s/%s/limit/%d", d.name, anchorRaw, preset)
		})
		if !ok {
			return
		}

		anchor, err := s.mosaicAnchor(anchorRaw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		var page []bson.M
		if d.dir == cursor.Since {
			page, err = s.mosaics.Since(r.Context(), anchor, limit)
		} else {
			page, err = s.mosaics.From(r.Context(), anchor, limit)
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writePage(w, page)
	}
}

func (s *Server) handleNamespace(w http.ResponseWriter, r *http.Request) {
	id, err := keys.ParseUint64Hex(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.namespaces.ByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeDocument(w, doc)
}

func (s *Server) namespacesPage(d direction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		anchorRaw := chi.URLParam(r, "anchor")
		limit, ok := s.pageLimit(w, r, chi.URLParam(r, "limit"), func(preset int64) string {
			return fmt.Sprintf("/namespaces/%s/%s/limit/%d", d.name, anchorRaw, preset)
		})
		if !ok {
			return
		}

		anchor, err := s.namespaceAnchor(anchorRaw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		var page []bson.M
		if d.dir == cursor.Since {
			page, err = s.namespaces.Since(r.Context(), anchor, limit)
		} else {
			page, err = s.namespaces.From(r.Context(), anchor, limit)
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writePage(w, page)
	}
}
