package gateway

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/haasonsaas/chaingate/internal/errs"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorBody(code, message string) map[string]string {
	return map[string]string{"code": code, "message": message}
}

// writeError maps the three engine error kinds onto the HTTP surface.
// Store faults are redacted: the client sees a generic message, the log
// keeps the cause.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalidFormat):
		writeJSON(w, http.StatusConflict, errorBody("InvalidArgument", err.Error()))
	case errors.Is(err, errs.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("ResourceNotFound", err.Error()))
	default:
		var se *errs.StoreError
		if errors.As(err, &se) {
			// Op reads "<operation> <collection>"; the metric is labelled by
			// collection.
			collection := se.Op
			if i := strings.LastIndexByte(collection, ' '); i >= 0 {
				collection = collection[i+1:]
			}
			s.metrics.StoreErrorCounter.WithLabelValues(collection).Inc()
		}
		s.logger.Error(r.Context(), "request failed", "error", err, "path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorBody("Internal", "internal server error"))
	}
}

// writePage emits a document page. An empty page is a 200 with an empty
// array, never null.
func writePage(w http.ResponseWriter, docs []bson.M) {
	out := make([]any, 0, len(docs))
	for _, doc := range docs {
		out = append(out, jsonValue(doc))
	}
	writeJSON(w, http.StatusOK, out)
}

func writeDocument(w http.ResponseWriter, doc bson.M) {
	writeJSON(w, http.StatusOK, jsonValue(doc))
}

// jsonValue rewrites BSON-specific values into their wire form: binaries
// and object ids as upper-hex strings, with nesting preserved.
func jsonValue(v any) any {
	switch val := v.(type) {
	case bson.M:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = jsonValue(inner)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = jsonValue(inner)
		}
		return out
	case bson.A:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = jsonValue(inner)
		}
		return out
	case []bson.M:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = jsonValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = jsonValue(inner)
		}
		return out
	case primitive.ObjectID:
		return hexUpper(val[:])
	case primitive.Binary:
		return hexUpper(val.Data)
	case []byte:
		return hexUpper(val)
	default:
		return v
	}
}

func hexUpper(b []byte) string {
	dst := make([]byte, hex.EncodedLen(len(b)))
	hex.Encode(dst, b)
	for i, c := range dst {
		if c >= 'a' && c <= 'f' {
			dst[i] = c - 'a' + 'A'
		}
	}
	return string(dst)
}
