package status

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes builds the handler tree. Exported so tests can drive it through
// httptest without a listener.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handlePage).Methods(http.MethodGet)
	r.HandleFunc("/status.html", s.handlePage).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/status.json", s.handleSnapshot).Methods(http.MethodGet)

	auth := newGuard(s.cfg.APIAuthSecret)
	r.HandleFunc("/config", auth.wrap(s.handleConfig)).Methods(http.MethodGet)

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(s.handleHelp)
	return r
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Sanitized())
}

// handleHelp answers unknown paths with a short endpoint listing instead
// of a bare 404, handy when the canary sits on a LAN box without docs.
func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, "no handler for %s\n\navailable endpoints:\n", r.URL.Path)
	fmt.Fprintln(w, "  /status.html  node health overview (HTML)")
	fmt.Fprintln(w, "  /status.json  node health snapshot (JSON)")
	fmt.Fprintln(w, "  /config       effective configuration (JSON)")
	if s.gatherer != nil {
		fmt.Fprintln(w, "  /metrics      prometheus metrics")
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
