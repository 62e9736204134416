// Command social serves identity sync, the follow graph and notifications.
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
	"socialgraph/internal/follow"
	"socialgraph/internal/identity"
	"socialgraph/internal/logger"
	"socialgraph/internal/notification"
	"socialgraph/internal/posts"
	"socialgraph/internal/refresh"
	"socialgraph/internal/server"
)

func main() {
	cfg := config.Load("social-service", 8081)
	log := logger.New(cfg.Service)
	logger.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("Social service failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	if err := cfg.Require(config.SectionDatabase, config.SectionRedis, config.SectionConsul); err != nil {
		return err
	}

	log.Info("Starting Social Service",
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

	// Follow changes invalidate the cached feeds served by the posts service.
	notifier, closeNotifier, err := refresh.FromConfig(ctx, cfg, rdb, posts.CachePatterns, log)
	if err != nil {
		return err
	}
	defer closeNotifier()

	consulClient, err := consul.NewClient(cfg.Consul)
	if err != nil {
		return err
	}

	users := identity.NewRepository(db)
	resolver := identity.NewResolver(users, log)
	notifications := notification.NewRepository(db, log)
	followService := follow.NewService(db, follow.NewRepository(db), notifications, notifier, log)

	r := server.NewEngine(cfg.Server, log)
	r.GET("/health", server.HealthHandler(cfg.Service, map[string]server.Check{
		"database": server.DatabaseCheck(db),
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}))

	root := r.Group("")
	identity.NewHandler(resolver).RegisterRoutes(root)
	follow.NewHandler(followService, resolver, users).RegisterRoutes(root)
	notification.NewHandler(notifications, resolver).RegisterRoutes(root)

	srv := server.New(cfg.Server, r)
	return server.Run(srv, consulClient, consul.ServiceConfigFor(cfg, "social", "graph", "api"), log)
}
