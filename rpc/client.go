package rpc

import (
	"fmt"
	"net/rpc"
	"sync"
)

// Client is a connection to a Server, tracking which pointers this
// client has outstanding so Outstanding can report a leak count.
type Client struct {
	id        int
	client    *rpc.Client
	allocated map[uint64]uint64 // ptr -> size
	mu        sync.Mutex
}

// NewClient dials address and returns a Client identified by id (for
// logging when multiple clients share a server).
func NewClient(id int, address string) (*Client, error) {
	c, err := rpc.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("rpc: dial %s: %w", address, err)
	}
	return &Client{id: id, client: c, allocated: make(map[uint64]uint64)}, nil
}

// Allocate requests size bytes from the server's pool.
func (c *Client) Allocate(size uint64) (uint64, error) {
	req := &AllocRequest{Size: size}
	resp := &AllocResponse{}
	if err := c.client.Call("Server.Allocate", req, resp); err != nil {
		return 0, fmt.Errorf("rpc: Allocate: %w", err)
	}
	if resp.Error != "" {
		return 0, fmt.Errorf("rpc: server: %s", resp.Error)
	}

	c.mu.Lock()
	c.allocated[resp.Ptr] = size
	c.mu.Unlock()
	return resp.Ptr, nil
}

// Free releases ptr (of the given size) back to the server's pool.
func (c *Client) Free(ptr uint64, size uint64) error {
	req := &FreeRequest{Ptr: ptr, Size: size}
	resp := &FreeResponse{}
	if err := c.client.Call("Server.Free", req, resp); err != nil {
		return fmt.Errorf("rpc: Free: %w", err)
	}
	if resp.Error != "" {
		return fmt.Errorf("rpc: server: %s", resp.Error)
	}

	c.mu.Lock()
	delete(c.allocated, ptr)
	c.mu.Unlock()
	return nil
}

// Stats fetches the server pool's current hit/miss counters.
func (c *Client) Stats() (StatsResponse, error) {
	resp := &StatsResponse{}
	if err := c.client.Call("Server.Stats", &struct{}{}, resp); err != nil {
		return StatsResponse{}, fmt.Errorf("rpc: Stats: %w", err)
	}
	return *resp, nil
}

// Outstanding returns the number of pointers this client has
// allocated and not yet freed.
func (c *Client) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.allocated)
}

// Close closes the client's connection. Outstanding allocations are
// not implicitly freed.
func (c *Client) Close() error {
	return c.client.Close()
}
