// Package consul wraps HashiCorp Consul for service registration and
// discovery. Every service registers itself on start; the gateway resolves
// upstreams through it.
package consul

import (
	"sync"

	consulapi "github.com/hashicorp/consul/api"

	"socialgraph/internal/config"
)

// Client wraps the Consul API client
type Client struct {
	api *consulapi.Client

	// next holds a round-robin cursor per service name.
	next sync.Map
}

// NewClient creates a Consul client for the agent in cfg. The ACL token is
// optional.
func NewClient(cfg config.ConsulConfig) (*Client, error) {
	apiCfg := consulapi.DefaultConfig()
	apiCfg.Address = cfg.Addr
	if cfg.Token != "" {
		apiCfg.Token = cfg.Token
	}

	client, err := consulapi.NewClient(apiCfg)
	if err != nil {
		return nil, err
	}

	return &Client{api: client}, nil
}
