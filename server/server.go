package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	v1 "github.com/10001111/File-upload-conponent/api/v1"
	"github.com/10001111/File-upload-conponent/storage"
)

type Opts struct {
	// Addr is the listen address, default ":8080".
	Addr string
	// DataDir holds the blob directory and the recent-files index,
	// default "data".
	DataDir string
	// BlobBackend selects where payloads live: "fs" (default) or "gcs".
	BlobBackend string
	// GCSBucket names the bucket when BlobBackend is "gcs".
	GCSBucket string
	// CompressBlobs gzip-encodes filesystem payloads.
	CompressBlobs bool
}

func New(opts Opts) Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.DataDir == "" {
		opts.DataDir = "data"
	}
	return Server{opts: opts}
}

type Server struct {
	opts Opts
}

// Run serves the intake form until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	log.Info().Msg("starting server")

	serviceName := "job-application-intake"

	prometheusExporter := NewPrometheusExporter(ctx)
	meterShutdownFn := InitMeterProvider(ctx, serviceName, prometheusExporter)

	httpServer := &http.Server{
		Addr:    s.opts.Addr,
		Handler: s.newHTTPHandler(ctx),
		// ReadTimeout is the maximum duration for reading the entire request, including the body.
		// This prevents slowloris attacks.
		ReadTimeout: 30 * time.Second,
		// WriteTimeout is the maximum duration before timing out writes of the response.
		// Downloads are at most 10MB, so this is plenty.
		WriteTimeout: 10 * time.Second,
		// ReadHeaderTimeout is necessary here to prevent slowloris attacks.
		// https://www.cloudflare.com/learning/ddos/ddos-attack-tools/slowloris/
		ReadHeaderTimeout: 5 * time.Second,
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
		IdleTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Msgf("Starting http server on %s", s.opts.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("listen:%+s\n", err)
		}
	}()

	<-ctx.Done()

	gracefulShutdownPeriod := 30 * time.Second
	log.Warn().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownPeriod)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown http server gracefully")
	}
	log.Warn().Msg("http server gracefully stopped")

	if err := meterShutdownFn(ctx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown meter provider")
	}
	return nil
}

func (s *Server) newBlobStore(ctx context.Context) storage.BlobStore {
	switch s.opts.BlobBackend {
	case "gcs":
		return storage.NewGCSStore(ctx, s.opts.GCSBucket)
	default:
		var fsOpts []storage.FSOption
		if s.opts.CompressBlobs {
			fsOpts = append(fsOpts, storage.WithCompression())
		}
		return storage.NewFSStore(s.opts.DataDir, fsOpts...)
	}
}

func (s *Server) newHTTPHandler(ctx context.Context) http.Handler {
	if err := os.MkdirAll(s.opts.DataDir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", s.opts.DataDir).Msg("cannot create data directory")
	}

	blobs := s.newBlobStore(ctx)
	if !blobs.Available() {
		log.Warn().Msg("blob store unavailable, saves will keep metadata only")
	}

	files := storage.NewService(blobs, storage.NewIndex(s.opts.DataDir))
	controller := v1.NewController(files)

	m := mux.NewRouter()
	m.Use(
		otelhttp.NewMiddleware("intake"),
		LogInterceptor)
	m.Handle("/metrics", promhttp.Handler())
	m.Handle("/", otelhttp.WithRouteTag("/", http.HandlerFunc(v1.Web()))).Methods(http.MethodGet)

	apiRouter := m.PathPrefix("/api").Subrouter()
	apiV1Router := apiRouter.PathPrefix("/v1").Subrouter()
	apiV1Router.Handle("/applications", otelhttp.WithRouteTag("/api/v1/applications", http.HandlerFunc(controller.SubmitApplication()))).Methods(http.MethodPost)
	apiV1Router.Handle("/files", otelhttp.WithRouteTag("/api/v1/files", http.HandlerFunc(controller.ListFiles()))).Methods(http.MethodGet)
	apiV1Router.Handle("/files/{file_id}", otelhttp.WithRouteTag("/api/v1/files/{file_id}", http.HandlerFunc(controller.DownloadFile()))).Methods(http.MethodGet)
	apiV1Router.Handle("/files/{file_id}", otelhttp.WithRouteTag("/api/v1/files/{file_id}", http.HandlerFunc(controller.DeleteFile()))).Methods(http.MethodDelete)
	apiV1Router.Handle("/files/{file_id}/links", otelhttp.WithRouteTag("/api/v1/files/{file_id}/links", http.HandlerFunc(controller.CreateLink()))).Methods(http.MethodPost)
	apiV1Router.Handle("/links/{token}", otelhttp.WithRouteTag("/api/v1/links/{token}", http.HandlerFunc(controller.ResolveLink()))).Methods(http.MethodGet)
	apiV1Router.Handle("/links/{token}", otelhttp.WithRouteTag("/api/v1/links/{token}", http.HandlerFunc(controller.RevokeLink()))).Methods(http.MethodDelete)
	apiV1Router.Handle("/health", otelhttp.WithRouteTag("/api/v1/health", http.HandlerFunc(controller.Health()))).Methods(http.MethodGet)
	apiV1Router.Handle("/events", http.HandlerFunc(controller.Events())).Methods(http.MethodGet)

	return otelhttp.NewHandler(m, "/")
}
