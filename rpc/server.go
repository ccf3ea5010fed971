// Package rpc exposes a region-backed allocator pool over net/rpc, so
// a single fixed-region heap can be shared by clients in separate
// processes coordinating through one server (the server still owns
// the only *heap.Allocator; clients never map the region themselves).
package rpc

import (
	"fmt"
	"net"
	"net/rpc"
	"sync"

	"github.com/shenjiangwei/fixedheap/heap"
	"github.com/shenjiangwei/fixedheap/pool"
	"github.com/shenjiangwei/fixedheap/region"
)

// AllocRequest is a memory allocation request.
type AllocRequest struct {
	Size uint64
}

// AllocResponse is a memory allocation response.
type AllocResponse struct {
	Ptr   uint64
	Error string
}

// FreeRequest is a memory free request.
type FreeRequest struct {
	Ptr  uint64
	Size uint64
}

// FreeResponse is a memory free response.
type FreeResponse struct {
	Error string
}

// StatsResponse reports the pool's hit/miss counters.
type StatsResponse struct {
	Stats pool.Stats
}

// Server serializes Allocate/Free calls against one region-backed
// pool. net/rpc dispatches each incoming call on its own goroutine, so
// every RPC handler (and Close) takes the lock itself; heap.Allocator is not
// safe for concurrent use otherwise.
type Server struct {
	region *region.Region
	pool   *pool.Pool
	mu     sync.Mutex
}

// NewServer maps or creates the region file at path and primes a pool
// on top of it, initializing the heap on first use.
func NewServer(path string, size int) (*Server, error) {
	r, err := region.Create(path, size)
	if err != nil {
		return nil, fmt.Errorf("rpc: open region: %w", err)
	}

	var allocator *heap.Allocator
	if r.FirstUse() {
		allocator, err = heap.Init(r.Bytes())
	} else {
		allocator = heap.Attach(r.Bytes())
	}
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("rpc: init heap: %w", err)
	}

	p, err := pool.New(allocator)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("rpc: prime pool: %w", err)
	}

	s := &Server{region: r, pool: p}
	return s, rpc.Register(s)
}

// Serve accepts connections on address until the listener is closed
// or Accept returns an error.
func (s *Server) Serve(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("rpc: listen: %w", err)
	}
	defer listener.Close()

	heap.Info("rpc server listening on %s", address)
	for {
		conn, err := listener.Accept()
		if err != nil {
			heap.Error("rpc: accept: %v", err)
			return err
		}
		go rpc.ServeConn(conn)
	}
}

// Allocate is the RPC-exported allocation handler.
func (s *Server) Allocate(req *AllocRequest, resp *AllocResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ptr, err := s.pool.Allocate(req.Size)
	if err != nil {
		resp.Error = err.Error()
		return nil
	}
	resp.Ptr = ptr
	return nil
}

// Free is the RPC-exported free handler.
func (s *Server) Free(req *FreeRequest, resp *FreeResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pool.Free(req.Ptr, req.Size)
	return nil
}

// Stats is the RPC-exported stats handler.
func (s *Server) Stats(_ *struct{}, resp *StatsResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp.Stats = s.pool.Stats()
	return nil
}

// Close flushes the region to disk, closes it, and releases the pool.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.pool.Close(); err != nil {
		return err
	}
	if err := s.region.Sync(); err != nil {
		return err
	}
	return s.region.Close()
}
