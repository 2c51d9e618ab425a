package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ritzau/orgchart/pkg/analysis"
	"github.com/ritzau/orgchart/pkg/feed"
	"github.com/ritzau/orgchart/pkg/filter"
	"github.com/ritzau/orgchart/pkg/graph"
	"github.com/ritzau/orgchart/pkg/logging"
	"github.com/ritzau/orgchart/pkg/model"
	"github.com/ritzau/orgchart/pkg/normalize"
	"github.com/ritzau/orgchart/pkg/pubsub"
	"github.com/ritzau/orgchart/pkg/store"
	"github.com/ritzau/orgchart/pkg/validate"
)

var log = logging.New("web")

// maxBodySize bounds request bodies; filter and heatmap payloads are small.
const maxBodySize = 1 << 20

// Server serves charts, filter passes and saved filter sets to the renderer.
type Server struct {
	router    *mux.Router
	runner    *analysis.Runner
	store     store.Store
	validator *store.Validator
	publisher pubsub.Publisher
}

// NewServer creates a server. publisher must be the one runner publishes to.
func NewServer(runner *analysis.Runner, filterSets store.Store, publisher pubsub.Publisher) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		runner:    runner,
		store:     filterSets,
		validator: store.NewValidator(),
		publisher: publisher,
	}
	s.setupRoutes()
	return s
}

// Handler returns the router wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	s.router.HandleFunc("/api/charts", s.handleCharts).Methods("GET")
	s.router.HandleFunc("/api/charts/{chartId}/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/charts/{chartId}/filter", s.handleFilter).Methods("POST")
	s.router.HandleFunc("/api/charts/{chartId}/validation", s.handleValidation).Methods("GET")
	s.router.HandleFunc("/api/charts/{chartId}/options", s.handleOptions).Methods("GET")
	s.router.HandleFunc("/api/charts/{chartId}/heatmap", s.handleHeatmap).Methods("POST")
	s.router.HandleFunc("/api/charts/{chartId}/focus", s.handleFocus).Methods("GET")
	s.router.HandleFunc("/api/charts/{chartId}/filter-sets", s.handleListFilterSets).Methods("GET")
	s.router.HandleFunc("/api/charts/{chartId}/filter-sets", s.handleSaveFilterSet).Methods("POST")

	s.router.HandleFunc("/api/filter-sets/{id}", s.handleGetFilterSet).Methods("GET")
	s.router.HandleFunc("/api/filter-sets/{id}", s.handleDeleteFilterSet).Methods("DELETE")
	s.router.HandleFunc("/api/filter/vocabulary", s.handleVocabulary).Methods("GET")

	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// Start serves on port until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// open event streams end with their request contexts
		if err := s.publisher.Close(); err != nil {
			log.Warn("closing publisher", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if !pubsub.KnownTopic(topic) {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("unknown topic %q", topic))
		return
	}

	sub, err := s.publisher.Subscribe(r.Context(), topic, r.URL.Query().Get("chart"))
	if err != nil {
		writeMessage(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, _ := w.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}

	// Safari needs a first byte to consider the stream open
	fmt.Fprintf(w, ": connected\n\n")
	flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				log.Debug("event stream closed", "topic", topic, "error", err)
				return
			}
			flush()
		}
	}
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	ids, err := s.runner.Charts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	chartID := mux.Vars(r)["chartId"]
	g, err := s.runner.Graph(r.Context(), chartID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if setID := r.URL.Query().Get("filterSet"); setID != "" {
		set, err := s.store.Get(r.Context(), setID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if set.ChartID != chartID {
			writeMessage(w, http.StatusNotFound, fmt.Sprintf("filter set %q does not belong to chart %q", setID, chartID))
			return
		}
		filter.Refilter(g, set.Filters)
	}

	writeGraph(w, r, g)
}

type filterRequest struct {
	Filters []model.FilterPredicate `json:"filters"`
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	g, err := s.runner.Graph(r.Context(), mux.Vars(r)["chartId"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	filter.Refilter(g, filter.Sanitize(req.Filters))
	writeGraph(w, r, g)
}

func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	g, err := s.runner.Graph(r.Context(), mux.Vars(r)["chartId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, validate.Diagnose(g))
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	g, err := s.runner.Graph(r.Context(), mux.Vars(r)["chartId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, filter.BuildOptions(g))
}

type heatmapRequest struct {
	Heat map[string]json.RawMessage `json:"heat"`
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	var req heatmapRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	g, err := s.runner.Graph(r.Context(), mux.Vars(r)["chartId"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	graph.ApplyHeatmap(g, heatAmounts(req.Heat))
	writeGraph(w, r, g)
}

// heatAmounts accepts amounts sent as JSON numbers or strings. Anything
// else is kept as raw text and falls back to the default heat.
func heatAmounts(raw map[string]json.RawMessage) map[string]string {
	heat := make(map[string]string, len(raw))
	for jurisdiction, value := range raw {
		var text string
		if err := json.Unmarshal(value, &text); err == nil {
			heat[jurisdiction] = text
			continue
		}
		heat[jurisdiction] = string(value)
	}
	return heat
}

// defaultFocusDepth is used when ?depth is absent.
const defaultFocusDepth = 1

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	entities := query["entity"]
	if len(entities) == 0 {
		writeMessage(w, http.StatusBadRequest, "at least one entity is required")
		return
	}

	depth := defaultFocusDepth
	if raw := query.Get("depth"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, fmt.Sprintf("invalid depth %q", raw))
			return
		}
		depth = d
	}

	g, err := s.runner.Graph(r.Context(), mux.Vars(r)["chartId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, graph.Neighborhood(g, entities, depth))
}

func (s *Server) handleListFilterSets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	day, err := store.ParseDay(query.Get("createdOn"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	sets, err := s.store.List(r.Context(), mux.Vars(r)["chartId"], store.ListOptions{
		Search:    query.Get("search"),
		CreatedOn: day,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

func (s *Server) handleSaveFilterSet(w http.ResponseWriter, r *http.Request) {
	var set model.FilterSet
	if err := decodeBody(w, r, &set); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	set.ChartID = mux.Vars(r)["chartId"]
	set.Filters = filter.Sanitize(set.Filters)

	if err := s.validator.Validate(&set); err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if set.ID == "" {
		status = http.StatusCreated
	}
	if err := s.store.Save(r.Context(), &set); err != nil {
		writeError(w, r, err)
		return
	}
	log.InfoContext(r.Context(), "saved filter set", "id", set.ID, "chart", set.ChartID, "filters", len(set.Filters))
	writeJSON(w, status, set)
}

func (s *Server) handleGetFilterSet(w http.ResponseWriter, r *http.Request) {
	set, err := s.store.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleDeleteFilterSet(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVocabulary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, filter.Vocabulary())
}

// writeGraph writes g, or only its matched part with ?matched=only.
func writeGraph(w http.ResponseWriter, r *http.Request, g *model.Graph) {
	if r.URL.Query().Get("matched") == "only" {
		g = graph.MatchedSubgraph(g)
	}
	writeJSON(w, http.StatusOK, g)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

type errorResponse struct {
	Message string `json:"message"`
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, feed.ErrChartNotFound), errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrInvalidFilterSet):
		status = http.StatusBadRequest
	case errors.Is(err, normalize.ErrInvalidInput):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return
	case isFeedError(err):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeMessage(w, status, err.Error())
}

// isFeedError reports whether err came from loading a chart feed.
func isFeedError(err error) bool {
	var feedErr *feed.LoadError
	return errors.As(err, &feedErr)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("writing response", "error", err)
	}
}
