// Command gateway is the public entry point: it validates sessions and
// proxies /api calls to the services registered in Consul.
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
	"socialgraph/internal/gateway"
	"socialgraph/internal/logger"
	"socialgraph/internal/server"
	"socialgraph/internal/session"
)

func main() {
	cfg := config.Load("api-gateway", 8080)
	log := logger.New(cfg.Service)
	logger.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("API Gateway failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	if err := cfg.Require(config.SectionRedis, config.SectionConsul); err != nil {
		return err
	}

	log.Info("Starting API Gateway",
		"port", cfg.Server.Port,
		"consul_addr", cfg.Consul.Addr,
		"redis_addr", cfg.Redis.Addr,
		"dev_login", cfg.Session.DevLogin)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	consulClient, err := consul.NewClient(cfg.Consul)
	if err != nil {
		return err
	}

	rdb, err := cache.Connect(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	sessions := session.NewManager(session.NewRedisStore(rdb))

	router := gateway.SetupRouter(cfg, consulClient, sessions, map[string]server.Check{
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}, log)

	srv := server.New(cfg.Server, router)
	return server.Run(srv, consulClient, consul.ServiceConfigFor(cfg, "gateway", "api"), log)
}
