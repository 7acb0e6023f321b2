package main

import (
	"encoding/json"
	"net/http"

	"github.com/carbocation/exprannot/compileinfo"
	"github.com/gorilla/mux"
	"gopkg.in/guregu/null.v3"
)

type handler struct {
	*Global
	router *mux.Router
}

// Lookup is the answer for one identifier. Absent values are null.
type Lookup struct {
	ID     string                 `json:"id"`
	Value  null.String            `json:"value"`
	Fields map[string]null.String `json:"fields,omitempty"`
}

func (h *handler) Fields(w http.ResponseWriter, r *http.Request) {
	output := struct {
		Fields       []string `json:"fields"`
		DefaultField string   `json:"default_field"`
		Kind         string   `json:"kind"`
	}{
		Fields:       h.translator.Fields(),
		DefaultField: h.translator.DefaultField(),
		Kind:         h.translator.Kind().String(),
	}

	h.writeJSON(w, http.StatusOK, output)
}

func (h *handler) Version(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, compileinfo.Get())
}

// Translate returns the default field of the identifier and, with ?all=1,
// every field.
func (h *handler) Translate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	mark := h.readMark()

	out := Lookup{ID: id, Value: h.translator.Translate(id)}
	if r.URL.Query().Get("all") != "" {
		fields := h.translator.Fields()
		out.Fields = make(map[string]null.String, len(fields))
		for i, v := range h.translator.TranslateAll(id) {
			out.Fields[fields[i]] = v
		}
	}

	if h.readFailed(w, mark) {
		return
	}
	h.count(h.translator.DefaultField(), out.Value)

	h.writeJSON(w, http.StatusOK, out)
}

func (h *handler) TranslateField(w http.ResponseWriter, r *http.Request) {
	id, field := mux.Vars(r)["id"], mux.Vars(r)["field"]

	if !h.translator.HasField(field) {
		// Unknown names are not used as labels, they come from the client.
		h.lookups.WithLabelValues("", "unknown_field").Inc()
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown field " + field})
		return
	}

	mark := h.readMark()
	out := Lookup{ID: id, Value: h.translator.TranslateField(id, field)}
	if h.readFailed(w, mark) {
		return
	}
	h.count(field, out.Value)

	h.writeJSON(w, http.StatusOK, out)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) readMark() uint64 {
	if h.reads == nil {
		return 0
	}
	return h.reads.Failures()
}

// readFailed answers 500 if a lazy read failed since mark. Such a value is
// unknown, not absent.
func (h *handler) readFailed(w http.ResponseWriter, mark uint64) bool {
	if h.reads == nil || h.reads.Failures() == mark {
		return false
	}

	h.log.Println(h.reads.Err())
	h.lookups.WithLabelValues("", "read_error").Inc()
	h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "annotation read failed"})

	return true
}

func (h *handler) count(field string, v null.String) {
	result := "absent"
	if v.Valid {
		result = "found"
	}
	h.lookups.WithLabelValues(field, result).Inc()
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Println(err)
	}
}
