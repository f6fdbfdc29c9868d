// Package fixture serves a pipeline document from a local file, standing in for the
// backend during development. The file is read again on every request.
package fixture

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-pipeview/pkg/pipeview"
	"github.com/askiada/go-pipeview/pkg/pipeview/model"
)

var ErrUnsupportedFormat = errors.New("unsupported fixture format")

// Server answers the pipeline endpoint with the content of a file.
type Server struct {
	path   string
	logger *slog.Logger
	delay  time.Duration
}

type Option func(s *Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithDelay holds every response for d, to reproduce slow backends.
func WithDelay(d time.Duration) Option {
	return func(s *Server) {
		s.delay = d
	}
}

// New returns a server for the YAML or JSON document at path.
func New(path string, opts ...Option) *Server {
	s := &Server{path: path, logger: slog.Default()}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load reads and decodes the fixture file. A document without a filename is named after the file.
func (s *Server) Load() (*model.PipelineDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", s.path)
	}

	var doc *model.PipelineDocument

	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".json":
		doc, err = model.Parse(data)
	case ".yml", ".yaml":
		doc = &model.PipelineDocument{}
		err = yaml.Unmarshal(data, doc)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s", s.path)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode %s", s.path)
	}

	if doc.Filename == "" {
		doc.Filename = filepath.Base(s.path)
	}

	for name, job := range doc.Jobs {
		if job.Name == "" {
			job.Name = name
		}

		if job.SourceFile == "" {
			job.SourceFile = doc.Filename
		}

		doc.Jobs[name] = job
	}

	return doc, nil
}

// Router returns the http handler of the fixture backend.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get(pipeview.DefaultPath, s.pipeline)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

func (s *Server) pipeline(w http.ResponseWriter, r *http.Request) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			return
		}
	}

	doc, err := s.Load()
	if err != nil {
		s.logger.Error("unable to load fixture", "path", s.path, "error", err)
		writeError(w, err, http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	err = json.NewEncoder(w).Encode(doc)
	if err != nil {
		s.logger.Warn("unable to write pipeline", "error", err)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "elapsed", time.Since(start))
	})
}

func writeError(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
