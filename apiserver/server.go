// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package apiserver implements the HTTP-over-Unix-socket settings API
// (spec §4.G). It is grounded on server/server.go's router construction
// (gorilla/mux with UseEncodedPath/StrictSlash, per-route Prometheus
// instrumentation, registerHandler dispatch table) reworked around the
// settings endpoint table instead of OPA's /data,/policies,/query surface.
package apiserver

import (
	"context"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/bottlerocket-os/settings-engine/datastore"
	"github.com/bottlerocket-os/settings-engine/internal/rlog"
	"github.com/bottlerocket-os/settings-engine/updatestate"
)

// OSCollaborator supplies the GET /os endpoint's data; a real deployment
// wires this to the actual OS release file, decoupled here so the server
// has no hard dependency on host layout.
type OSCollaborator interface {
	OSRelease(ctx context.Context) (interface{}, error)
}

// UpdateStateCollaborator reports the update dispatcher's current state so
// /actions/{...} can be rejected when disallowed, and backs /updates/status.
type UpdateStateCollaborator interface {
	State(ctx context.Context) (updatestate.State, error)
	Dispatch(ctx context.Context, action updatestate.Action) error
	Status(ctx context.Context) (interface{}, error)
}

// Applier is the external settings applier the server fires commit_and_apply
// and /tx/apply against. Invocation is fire-and-forget: Apply must not block
// the caller past writing the request.
type Applier interface {
	Apply(ctx context.Context, keys []string, all bool) error
}

// Server is the settings API server. The zero value is not usable; build
// one with New.
type Server struct {
	store    datastore.Store
	os       OSCollaborator
	updates  UpdateStateCollaborator
	applier  Applier
	log      rlog.Logger
	registry Registry

	mu sync.RWMutex // guards the datastore; spec §5's single process-wide RW lock.

	socketPath  string
	socketGroup string
	readyFD     int
}

// Option configures a Server at construction.
type Option func(*Server)

func WithLogger(l rlog.Logger) Option { return func(s *Server) { s.log = l } }
func WithOSCollaborator(c OSCollaborator) Option {
	return func(s *Server) { s.os = c }
}
func WithUpdateState(c UpdateStateCollaborator) Option {
	return func(s *Server) { s.updates = c }
}
func WithApplier(a Applier) Option { return func(s *Server) { s.applier = a } }
func WithSocketGroup(group string) Option {
	return func(s *Server) { s.socketGroup = group }
}
func WithReadyFD(fd int) Option { return func(s *Server) { s.readyFD = fd } }
func WithRegistry(r Registry) Option { return func(s *Server) { s.registry = r } }

// New builds a Server bound to store and listening on socketPath.
func New(store datastore.Store, socketPath string, opts ...Option) *Server {
	s := &Server{
		store:      store,
		socketPath: socketPath,
		log:        rlog.NoOp{},
		registry:   defaultRegistry,
		readyFD:    -1,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Router builds the gorilla/mux router for this server, exported so
// tests can drive it with httptest without a real socket.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.UseEncodedPath()
	r.StrictSlash(true)

	reg := func(path, method string, h http.HandlerFunc) {
		r.Handle(path, s.instrument(path, h)).Methods(method)
	}

	reg("/", http.MethodGet, s.handleModel)
	reg("/settings", http.MethodGet, s.handleSettingsGet)
	reg("/settings", http.MethodPatch, s.handleSettingsPatch)
	reg("/tx/list", http.MethodGet, s.handleTxList)
	reg("/tx", http.MethodGet, s.handleTxGet)
	reg("/tx", http.MethodDelete, s.handleTxDelete)
	reg("/tx/commit", http.MethodPost, s.handleTxCommit)
	reg("/tx/apply", http.MethodPost, s.handleTxApply)
	reg("/tx/commit_and_apply", http.MethodPost, s.handleTxCommitAndApply)
	reg("/os", http.MethodGet, s.handleOS)
	reg("/metadata/affected-services", http.MethodGet, s.handleMetadataAffectedServices)
	reg("/metadata/setting-generators", http.MethodGet, s.handleMetadataSettingGenerators)
	reg("/metadata/templates", http.MethodGet, s.handleMetadataTemplates)
	reg("/services", http.MethodGet, s.handleServices)
	reg("/configuration-files", http.MethodGet, s.handleConfigurationFiles)
	reg("/actions/{action}", http.MethodPost, s.handleAction)
	reg("/updates/status", http.MethodGet, s.handleUpdatesStatus)

	r.Handle("/metrics", s.registry.Handler())
	return r
}

// instrument wraps h with structured request logging and, when a registry
// is configured, Prometheus counters/histograms keyed by route.
func (s *Server) instrument(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		dur := time.Since(start)
		s.registry.Observe(route, r.Method, rec.status, dur)
		s.log.WithFields(rlog.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": dur.String(),
		}).Info("handled request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// ListenAndServe binds socketPath with mode 0660 (spec §4.G), optionally
// chowns it to socketGroup, signals readiness on readyFD if set, and serves
// until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	os.Remove(s.socketPath)
	l, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return err
	}
	if err := os.Chmod(s.socketPath, 0o660); err != nil {
		l.Close()
		return err
	}
	if s.socketGroup != "" {
		if err := chownSocketGroup(s.socketPath, s.socketGroup); err != nil {
			l.Close()
			return err
		}
	}
	if s.readyFD >= 0 {
		notifyReady(s.readyFD)
	}

	httpSrv := &http.Server{Handler: s.Router()}
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.Serve(l) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
