package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/otelconnect"
	"github.com/Cogwheel-Validator/liquidity-book/quoter/models"
	"github.com/Cogwheel-Validator/liquidity-book/quoter/pricing"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Logger is set up at variable initialization so init funcs in other files
// of the package can log
var Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
	With().Timestamp().Str("component", "rpc").Logger()

// SetLogger allows setting a custom logger
func SetLogger(l zerolog.Logger) {
	Logger = l
}

const defaultRequestTimeout = 10 * time.Second

// ServerConfig holds configuration for the RPC server. Nil rate and
// concurrency limits disable the matching middleware.
type ServerConfig struct {
	Address               string
	AllowedOrigins        []string
	EnableMetrics         bool
	RatePerMinute         *int
	MaxConcurrentRequests *int
	RequestTimeout        time.Duration
	OTelConfig            *OTelConfig
}

// DefaultServerConfig returns a default server configuration
func DefaultServerConfig() *ServerConfig {
	maxConcurrentRequests := 200
	return &ServerConfig{
		Address:               "localhost:8080",
		AllowedOrigins:        []string{"http://localhost:3000", "http://localhost:8080"},
		EnableMetrics:         true,
		MaxConcurrentRequests: &maxConcurrentRequests,
		RequestTimeout:        defaultRequestTimeout,
	}
}

func (c *ServerConfig) metricsEnabled() bool {
	return c.EnableMetrics || (c.OTelConfig != nil && c.OTelConfig.UsePrometheus)
}

func (c *ServerConfig) tracingEnabled() bool {
	return c.OTelConfig != nil && c.OTelConfig.EnableTracing
}

func (c *ServerConfig) serviceName() string {
	if c.OTelConfig != nil && c.OTelConfig.ServiceName != "" {
		return c.OTelConfig.ServiceName
	}
	return "lb-quoter"
}

// Server serves the quote procedures and the /server status endpoints
type Server struct {
	config       *ServerConfig
	quoter       *pricing.Quoter
	httpServer   *http.Server
	otelShutdown func(context.Context) error
}

// NewServer creates the quote RPC server. A nil config uses
// DefaultServerConfig. OpenTelemetry failures are logged and the server runs
// without it.
func NewServer(ctx context.Context, config *ServerConfig, quoter *pricing.Quoter) (*Server, error) {
	if quoter == nil {
		return nil, errors.New("quoter is required")
	}
	if config == nil {
		config = DefaultServerConfig()
	}

	s := &Server{config: config, quoter: quoter}

	if config.OTelConfig.enabled() {
		shutdown, err := NewOTelSDK(ctx, config.OTelConfig)
		if err != nil {
			Logger.Error().Err(err).Msg("Failed to initialize OpenTelemetry")
		} else {
			s.otelShutdown = shutdown
		}
	}

	s.httpServer = &http.Server{
		Addr:              config.Address,
		Handler:           h2c.NewHandler(newCORSHandler(config.AllowedOrigins, s.router()), &http2.Server{}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s, nil
}

func (s *Server) router() chi.Router {
	timeout := s.config.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		zerologMiddleware,
		zerologRecoverer,
		middleware.Compress(5),
		middleware.Timeout(timeout),
	)
	if limit := s.config.RatePerMinute; limit != nil && *limit > 0 {
		r.Use(httprate.LimitByIP(*limit, time.Minute))
	}
	if limit := s.config.MaxConcurrentRequests; limit != nil && *limit > 0 {
		r.Use(middleware.Throttle(*limit))
	}

	r.Route("/server", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/ready", s.handleReady)
		if s.config.metricsEnabled() {
			r.Handle("/metrics", promhttp.Handler())
		}
	})

	path, handler := NewQuoteServiceHandler(
		NewQuoteServer(s.quoter),
		connect.WithRecover(recoverHandler),
		connect.WithInterceptors(s.interceptors()...),
	)
	r.Handle(path+"*", handler)

	return r
}

// interceptors returns the connect interceptor chain, outermost first
func (s *Server) interceptors() []connect.Interceptor {
	var chain []connect.Interceptor
	if s.config.tracingEnabled() {
		otelInterceptor, err := otelconnect.NewInterceptor()
		if err != nil {
			Logger.Warn().Err(err).Msg("Failed to create OTEL interceptor, continuing without it")
		} else {
			chain = append(chain, otelInterceptor)
		}
	}
	return append(chain, loggingInterceptor(), metricsInterceptor(), noCacheInterceptor())
}

type serverStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Pairs   int    `json:"pairs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, serverStatus{Status: "healthy", Service: s.config.serviceName()})
}

// handleReady reports ready once at least one pair is loaded. Fee and price
// quotes work without pairs, swap quotes do not.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	pairs := len(s.quoter.ListPairs(models.ListPairsRequest{}).Pairs)
	status := serverStatus{Status: "ready", Service: s.config.serviceName(), Pairs: pairs}
	if pairs == 0 {
		status.Status = "no pairs loaded"
		writeStatus(w, http.StatusServiceUnavailable, status)
		return
	}
	writeStatus(w, http.StatusOK, status)
}

func writeStatus(w http.ResponseWriter, code int, status serverStatus) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

// TelemetryStarted reports whether the OpenTelemetry SDK is running
func (s *Server) TelemetryStarted() bool {
	return s.otelShutdown != nil
}

// Handler returns the full handler chain, CORS and h2c included
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves without TLS until Shutdown
func (s *Server) Start() error {
	s.logEndpoints("http")
	return ignoreClosed(s.httpServer.ListenAndServe())
}

// StartTLS serves with TLS until Shutdown
func (s *Server) StartTLS(certFile, keyFile string) error {
	s.logEndpoints("https")
	return ignoreClosed(s.httpServer.ListenAndServeTLS(certFile, keyFile))
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) logEndpoints(protocol string) {
	endpoints := []string{"/" + QuoteServiceName + "/*", "/server/health", "/server/ready"}
	if s.config.metricsEnabled() {
		endpoints = append(endpoints, "/server/metrics")
	}

	Logger.Info().
		Str("address", s.config.Address).
		Str("protocol", protocol).
		Strs("endpoints", endpoints).
		Int("pairs", len(s.quoter.ListPairs(models.ListPairsRequest{}).Pairs)).
		Msg("Liquidity book quoter starting")
}

// Shutdown stops the HTTP server, then flushes telemetry
func (s *Server) Shutdown(ctx context.Context) error {
	Logger.Info().Msg("Shutting down RPC server...")

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		Logger.Error().Err(err).Msg("Error shutting down HTTP server")
	}

	if s.otelShutdown != nil {
		if otelErr := s.otelShutdown(ctx); otelErr != nil {
			Logger.Error().Err(otelErr).Msg("Error shutting down OpenTelemetry")
			err = errors.Join(err, otelErr)
		}
	}

	if err == nil {
		Logger.Info().Msg("Server shutdown complete")
	}
	return err
}

// recoverHandler turns handler panics into internal errors
func recoverHandler(ctx context.Context, spec connect.Spec, header http.Header, p any) error {
	Logger.Error().
		Interface("panic", p).
		Str("procedure", spec.Procedure).
		Msg("Panic in RPC handler")
	return connect.NewError(connect.CodeInternal, errors.New("internal server error"))
}
