package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/handiism/comic-downloader/internal/download"
	"github.com/handiism/comic-downloader/internal/history"
)

const defaultHistoryLimit = 50

// Server exposes download control over HTTP.
type Server struct {
	tasks    TaskController
	comics   ComicFetcher
	history  HistoryReader
	hub      *Hub
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithHistory enables GET /api/history.
func WithHistory(h HistoryReader) Option {
	return func(s *Server) { s.history = h }
}

// WithHub enables the /events websocket stream.
func WithHub(h *Hub) Option {
	return func(s *Server) { s.hub = h }
}

// WithGatherer serves metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a Server.
func NewServer(tasks TaskController, comics ComicFetcher, opts ...Option) *Server {
	s := &Server{
		tasks:    tasks,
		comics:   comics,
		gatherer: prometheus.DefaultGatherer,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			markErr(w, err)
		}
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	if s.hub != nil {
		r.Handle("/events", s.hub).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()

	get := api.Methods(http.MethodGet).Subrouter()
	get.HandleFunc("/tasks", s.listTasks)
	get.HandleFunc("/tasks/{chapterUUID}", s.getTask)
	if s.history != nil {
		get.HandleFunc("/history", s.listHistory)
	}

	post := api.Methods(http.MethodPost).Subrouter()
	post.HandleFunc("/comics/{pathWord}/chapters/{chapterUUID}", s.createTask)
	post.HandleFunc("/tasks/{chapterUUID}/{action:pause|resume|cancel}", s.controlTask)

	return r
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tasks.Tasks())
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.tasks.Task(mux.Vars(r)["chapterUUID"])
	if !ok {
		writeError(w, http.StatusNotFound, download.ErrTaskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	pathWord, chapterUUID := vars["pathWord"], vars["chapterUUID"]

	comic, err := s.comics.FetchComic(r.Context(), pathWord)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	err = s.tasks.CreateTask(comic, chapterUUID)
	switch {
	case err == nil:
	case errors.Is(err, download.ErrDuplicateTask):
		writeError(w, http.StatusConflict, err)
		return
	case errors.Is(err, download.ErrChapterNotFound):
		writeError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, download.ErrShutdown):
		writeError(w, http.StatusServiceUnavailable, err)
		return
	default:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	snap, _ := s.tasks.Task(chapterUUID)
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) controlTask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	chapterUUID := vars["chapterUUID"]

	var err error
	switch vars["action"] {
	case "pause":
		err = s.tasks.PauseTask(chapterUUID)
	case "resume":
		err = s.tasks.ResumeTask(chapterUUID)
	case "cancel":
		err = s.tasks.CancelTask(chapterUUID)
	}

	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, download.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []*history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		markErr(w, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	markErr(w, err)
	writeJSON(w, status, errorBody{Error: err.Error()})
}
