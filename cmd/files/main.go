// Command files stores uploaded media in S3/MinIO and returns stable URLs.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"socialgraph/internal/config"
	"socialgraph/internal/consul"
	"socialgraph/internal/files"
	"socialgraph/internal/logger"
	"socialgraph/internal/server"
	"socialgraph/internal/storage"
)

func main() {
	cfg := config.Load("files-service", 8084)
	log := logger.New(cfg.Service)
	logger.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("Files service failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	if err := cfg.Require(config.SectionS3, config.SectionConsul); err != nil {
		return err
	}

	log.Info("Starting Files Service",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	storageService, err := storage.New(ctx, cfg.S3, log)
	if err != nil {
		return err
	}

	consulClient, err := consul.NewClient(cfg.Consul)
	if err != nil {
		return err
	}

	filesService := files.NewService(storageService, log)

	r := server.NewEngine(cfg.Server, log)
	r.GET("/health", server.HealthHandler(cfg.Service, map[string]server.Check{
		"storage": filesService.HealthCheck,
	}))
	files.NewHandler(filesService).RegisterRoutes(r.Group(""))

	srv := server.New(cfg.Server, r)
	return server.Run(srv, consulClient, consul.ServiceConfigFor(cfg, "files", "storage", "uploads"), log)
}
