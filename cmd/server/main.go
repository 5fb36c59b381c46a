package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/10001111/File-upload-conponent/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env is optional; absence is the normal case outside local dev
	_ = godotenv.Load()

	_ = server.InitializeLogger(envOr("LOG_LEVEL", "debug"))

	srv := server.New(server.Opts{
		Addr:          envOr("ADDR", ":8080"),
		DataDir:       envOr("DATA_DIR", "data"),
		BlobBackend:   envOr("BLOB_BACKEND", "fs"),
		GCSBucket:     os.Getenv("GCS_BUCKET"),
		CompressBlobs: os.Getenv("COMPRESS_BLOBS") == "true",
	})
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run the server")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
