package consul

import (
	"fmt"
	"net"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"

	"socialgraph/internal/config"
)

// ServiceConfig contains configuration for service registration
type ServiceConfig struct {
	ID      string
	Name    string
	Address string
	Port    int
	Tags    []string
	Check   *HealthCheck
}

// HealthCheck defines health check configuration
type HealthCheck struct {
	HTTP     string
	Interval string
	Timeout  string
}

// ServiceRegistrar defines the interface for service registration
type ServiceRegistrar interface {
	Register(cfg *ServiceConfig) error
	Deregister(serviceID string) error
}

// ServiceConfigFor describes the running service from its configuration,
// with an HTTP check against /health. The ID is stable across restarts.
func ServiceConfigFor(cfg *config.Config, tags ...string) *ServiceConfig {
	hostPort := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	return &ServiceConfig{
		ID:      fmt.Sprintf("%s-%s", cfg.Service, hostPort),
		Name:    cfg.Service,
		Address: cfg.Server.Host,
		Port:    cfg.Server.Port,
		Tags:    tags,
		Check: &HealthCheck{
			HTTP:     fmt.Sprintf("http://%s/health", hostPort),
			Interval: "10s",
			Timeout:  "3s",
		},
	}
}

// Register registers a service with Consul, replacing any stale
// registration left under the same ID by a previous crash.
func (c *Client) Register(cfg *ServiceConfig) error {
	_ = c.api.Agent().ServiceDeregister(cfg.ID)

	registration := &consulapi.AgentServiceRegistration{
		ID:      cfg.ID,
		Name:    cfg.Name,
		Address: cfg.Address,
		Port:    cfg.Port,
		Tags:    cfg.Tags,
	}

	if cfg.Check != nil {
		registration.Check = &consulapi.AgentServiceCheck{
			HTTP:                           cfg.Check.HTTP,
			Interval:                       cfg.Check.Interval,
			Timeout:                        cfg.Check.Timeout,
			DeregisterCriticalServiceAfter: "1m",
		}
	}

	if err := c.api.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	return nil
}

// Deregister removes a service from Consul
func (c *Client) Deregister(serviceID string) error {
	if err := c.api.Agent().ServiceDeregister(serviceID); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}

	return nil
}
