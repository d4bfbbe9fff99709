package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gluon-updates/gluon/pkg/apperr"
	"github.com/gluon-updates/gluon/pkg/config"
	"github.com/gluon-updates/gluon/pkg/releases"
)

// This type is the http boundary of gluon. It maps routes onto the release
// resolver and converts failures into json error responses.
type Server struct {
	logger         *slog.Logger
	configProvider *config.Provider
	resolver       *releases.Resolver
	source         releases.Source
	// The externally reachable base url, used for the same-origin update
	// urls of private applications. Derived from the request when empty.
	publicUrl string
}

func New(logger *slog.Logger, configProvider *config.Provider, resolver *releases.Resolver, source releases.Source, publicUrl string) *Server {
	return &Server{
		logger:         logger.With(slog.String("component", "server")),
		configProvider: configProvider,
		resolver:       resolver,
		source:         source,
		publicUrl:      publicUrl,
	}
}

// Builds the http handler with all routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{application}", s.handleOverview)
	mux.HandleFunc("GET /{application}/download", s.handleDownloadForUserAgent)
	mux.HandleFunc("GET /{application}/download/{platform}", s.handleDownload)
	mux.HandleFunc("GET /{application}/update/{platform}/{version}", s.handleUpdate)
	mux.HandleFunc("GET /{application}/update/win32/{version}/RELEASES", s.handleManifest)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, apperr.NotFound("route '%s' not found", r.URL.Path))
	})
	return mux
}

func (s *Server) writeJson(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error(fmt.Sprintf("Failed writing response: %v", err))
	}
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := apperr.StatusOf(err)
	message := "Internal Server Error"
	var appError *apperr.Error
	if errors.As(err, &appError) {
		message = appError.Message
	} else {
		s.logger.Error(fmt.Sprintf("Unexpected error: %v", err))
	}
	s.writeJson(w, status, errorResponse{Status: "error", Message: message})
}

// Gets the externally reachable base url of the server.
func (s *Server) serverUrl(r *http.Request) string {
	if s.publicUrl != "" {
		return s.publicUrl
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}
