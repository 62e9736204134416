package consul

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	consulapi "github.com/hashicorp/consul/api"
)

// ErrNoHealthyInstances is returned when a service has no passing instance.
var ErrNoHealthyInstances = errors.New("no healthy instances")

// ServiceInstance is one passing instance of a registered service.
type ServiceInstance struct {
	ID      string
	Name    string
	Address string
	Port    int
	Tags    []string
}

// URL returns the instance's base HTTP URL.
func (i *ServiceInstance) URL() string {
	return fmt.Sprintf("http://%s:%d", i.Address, i.Port)
}

// ServiceDiscovery resolves a service name to one instance to call.
type ServiceDiscovery interface {
	DiscoverOne(ctx context.Context, serviceName string) (*ServiceInstance, error)
}

// Discover lists the passing instances of serviceName ordered by ID.
func (c *Client) Discover(ctx context.Context, serviceName string) ([]*ServiceInstance, error) {
	opts := (&consulapi.QueryOptions{}).WithContext(ctx)
	entries, _, err := c.api.Health().Service(serviceName, "", true, opts)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", serviceName, err)
	}

	instances := instancesFrom(entries)
	if len(instances) == 0 {
		return nil, fmt.Errorf("discover %s: %w", serviceName, ErrNoHealthyInstances)
	}
	return instances, nil
}

// DiscoverOne picks the next passing instance of serviceName in round-robin
// order.
func (c *Client) DiscoverOne(ctx context.Context, serviceName string) (*ServiceInstance, error) {
	instances, err := c.Discover(ctx, serviceName)
	if err != nil {
		return nil, err
	}

	v, _ := c.next.LoadOrStore(serviceName, new(atomic.Uint64))
	n := v.(*atomic.Uint64).Add(1) - 1
	return instances[n%uint64(len(instances))], nil
}

func instancesFrom(entries []*consulapi.ServiceEntry) []*ServiceInstance {
	instances := make([]*ServiceInstance, 0, len(entries))
	for _, entry := range entries {
		if entry.Service == nil {
			continue
		}
		inst := &ServiceInstance{
			ID:      entry.Service.ID,
			Name:    entry.Service.Service,
			Address: entry.Service.Address,
			Port:    entry.Service.Port,
			Tags:    entry.Service.Tags,
		}
		// Services registered without an address listen on the node.
		if inst.Address == "" && entry.Node != nil {
			inst.Address = entry.Node.Address
		}
		instances = append(instances, inst)
	}

	sort.Slice(instances, func(i, j int) bool { return instances[i].ID < instances[j].ID })
	return instances
}
