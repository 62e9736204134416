// Command posts serves post creation, author timelines and home feeds.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"socialgraph/internal/cache"
	"socialgraph/internal/config"
	"socialgraph/internal/consul"
	"socialgraph/internal/database"
	"socialgraph/internal/identity"
	"socialgraph/internal/logger"
	"socialgraph/internal/posts"
	"socialgraph/internal/refresh"
	"socialgraph/internal/server"
)

func main() {
	cfg := config.Load("posts-service", 8082)
	log := logger.New(cfg.Service)
	logger.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("Posts service failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	if err := cfg.Require(config.SectionDatabase, config.SectionRedis, config.SectionConsul); err != nil {
		return err
	}

	log.Info("Starting Posts Service",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"refresh_broker", cfg.Refresh.Broker)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(cfg.Database.URL); err != nil {
			return err
		}
	}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb, err := cache.Connect(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	notifier, closeNotifier, err := refresh.FromConfig(ctx, cfg, rdb, posts.CachePatterns, log)
	if err != nil {
		return err
	}
	defer closeNotifier()

	consulClient, err := consul.NewClient(cfg.Consul)
	if err != nil {
		return err
	}

	resolver := identity.NewResolver(identity.NewRepository(db), log)
	postService := posts.NewService(posts.NewRepository(db), resolver, rdb, notifier, log)

	r := server.NewEngine(cfg.Server, log)
	r.GET("/health", server.HealthHandler(cfg.Service, map[string]server.Check{
		"database": server.DatabaseCheck(db),
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}))
	posts.NewHandler(postService, resolver).RegisterRoutes(r.Group(""))

	srv := server.New(cfg.Server, r)
	return server.Run(srv, consulClient, consul.ServiceConfigFor(cfg, "posts", "content", "api"), log)
}
