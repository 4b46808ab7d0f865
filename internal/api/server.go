// Package api serves the HTTP control surface of the terminal: branch toggles,
// publishing, levels, preview frames, settings and event streams.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/restream/internal/api/models"
	"github.com/smazurov/restream/internal/broadcast"
	"github.com/smazurov/restream/internal/config"
	"github.com/smazurov/restream/internal/devices"
	"github.com/smazurov/restream/internal/events"
	"github.com/smazurov/restream/internal/ingest"
	"github.com/smazurov/restream/internal/led"
	"github.com/smazurov/restream/internal/logging"
	"github.com/smazurov/restream/internal/meter"
	"github.com/smazurov/restream/internal/version"
)

const authRealm = `Basic realm="Restream API"`

// Broadcaster is the part of *broadcast.Pipeline the API drives.
type Broadcaster interface {
	Status() broadcast.Status
	ToggleCamera() error
	ToggleMic() error
	StartPublishing(destination string) error
	Frame() broadcast.Frame
	OutputLevels() meter.Levels
	MicLevels() meter.Levels
}

// IngestSource fetches the ingest catalog of the configured service.
type IngestSource interface {
	Fetch(ctx context.Context) (ingest.Catalog, error)
}

// ServiceManager controls the terminal's own systemd unit.
type ServiceManager interface {
	ServiceStatus(ctx context.Context, unit string) (string, error)
	RestartService(ctx context.Context, unit string) error
}

// Options configures the API server.
type Options struct {
	AuthUsername      string
	AuthPassword      string
	CORSOrigin        string
	Pipeline          Broadcaster
	Settings          *config.Store
	Ingests           func(service ingest.Service) (IngestSource, error) // optional
	EventBus          *events.Bus
	LEDController     led.Controller   // optional
	Tally             *led.Tally       // optional
	SystemdManager    ServiceManager   // optional
	Devices           devices.Detector // optional
	ServiceName       string
	LevelInterval     time.Duration
	PrometheusHandler http.Handler // optional
}

// Server is the Huma v2 API server.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	handler    http.Handler
	httpServer *http.Server
	options    *Options
	pipeline   Broadcaster
	eventBus   *events.Bus
	logger     *slog.Logger
}

// basicAuthMiddleware checks HTTP basic credentials on operations that
// declare a security requirement. SSE clients that cannot set headers pass
// the base64 credentials in the auth query parameter.
func (s *Server) basicAuthMiddleware(username, password string) func(huma.Context, func(huma.Context)) {
	deny := func(ctx huma.Context, msg string, errs ...error) {
		ctx.SetHeader("WWW-Authenticate", authRealm)
		huma.WriteErr(s.api, ctx, http.StatusUnauthorized, msg, errs...)
	}

	return func(ctx huma.Context, next func(huma.Context)) {
		op := ctx.Operation()
		if op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		encoded := ""
		if authHeader := ctx.Header("Authorization"); authHeader != "" {
			const prefix = "Basic "
			if !strings.HasPrefix(authHeader, prefix) {
				deny(ctx, "Invalid authentication type")
				return
			}
			encoded = authHeader[len(prefix):]
		} else {
			encoded = ctx.Query("auth")
		}
		if encoded == "" {
			deny(ctx, "Authentication required")
			return
		}

		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			deny(ctx, "Invalid credentials format", err)
			return
		}
		user, pass, ok := strings.Cut(string(decoded), ":")
		if !ok {
			deny(ctx, "Invalid credentials format")
			return
		}

		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
		if !userOK || !passOK {
			deny(ctx, "Invalid credentials")
			return
		}
		next(ctx)
	}
}

// NewServer creates the API server and registers every route.
func NewServer(opts *Options) *Server {
	if opts.LevelInterval <= 0 {
		opts.LevelInterval = 50 * time.Millisecond
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "restream.service"
	}

	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	if opts.CORSOrigin != "" {
		corsConfig.AllowOrigin = opts.CORSOrigin
	}
	cfg := huma.DefaultConfig("Restream API", version.String())
	cfg.Info.Description = "Control API of the broadcast terminal: camera and microphone toggles, RTMP publishing, levels and preview"
	cfg.Servers = []*huma.Server{}
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	api := humago.New(mux, cfg)

	server := &Server{
		api:      api,
		mux:      mux,
		handler:  WithPreflight(mux, corsConfig),
		options:  opts,
		pipeline: opts.Pipeline,
		eventBus: opts.EventBus,
		logger:   logging.GetLogger("api"),
	}

	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		api.UseMiddleware(server.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	}

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()
	return server
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// API returns the Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

// Start serves the API on addr until Stop is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting Restream API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Stop closes the listener and every open connection, SSE streams included.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *struct{}) (*models.VersionResponse, error) {
		info := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   info.Version,
				GitCommit: info.GitCommit,
				BuildDate: info.BuildDate,
				BuildID:   info.BuildID,
				GoVersion: info.GoVersion,
				Compiler:  info.Compiler,
				Platform:  info.Platform,
			},
		}, nil
	})

	s.registerBroadcastRoutes()
	s.registerLevelRoutes()
	s.registerSettingsRoutes()
	s.registerSSERoutes()
	s.registerLogRoutes()
	s.registerLEDRoutes()
	s.registerDeviceRoutes()
	s.registerSystemdRoutes()
}

// withAuth returns security requirement for basic auth
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}
