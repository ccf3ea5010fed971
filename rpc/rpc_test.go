package rpc

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const serverAddress = "127.0.0.1:41990"

func startTestServer(t *testing.T, address string) *Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "heap.region")
	s, err := NewServer(path, 32*1024*1024)
	require.NoError(t, err)
	go s.Serve(address)
	time.Sleep(50 * time.Millisecond)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAllocateFreeRoundTrip(t *testing.T) {
	startTestServer(t, serverAddress)

	c, err := NewClient(1, serverAddress)
	require.NoError(t, err)
	defer c.Close()

	ptr, err := c.Allocate(4096)
	require.NoError(t, err)
	require.Equal(t, 1, c.Outstanding())

	require.NoError(t, c.Free(ptr, 4096))
	require.Equal(t, 0, c.Outstanding())
}

func TestStatsReflectsAllocations(t *testing.T) {
	startTestServer(t, "127.0.0.1:41993")

	c, err := NewClient(2, "127.0.0.1:41993")
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Allocate(10 * 1024)
	require.NoError(t, err)

	stats, err := c.Stats()
	require.NoError(t, err)
	require.GreaterOrEqual(t, stats.Stats.TotalAllocations, uint64(1))
}

// TestConcurrentClients matches the teacher's original stress scenario:
// several clients allocate and free 1 MiB blocks through the same
// server concurrently.
func TestConcurrentClients(t *testing.T) {
	startTestServer(t, "127.0.0.1:41994")

	const numClients = 5
	clients := make([]*Client, numClients)
	for i := 0; i < numClients; i++ {
		c, err := NewClient(i, "127.0.0.1:41994")
		require.NoError(t, err)
		clients[i] = c
		defer c.Close()
	}

	done := make(chan error, numClients)
	for i, c := range clients {
		go func(id int, c *Client) {
			ptr, err := c.Allocate(1024 * 1024)
			if err != nil {
				done <- err
				return
			}
			time.Sleep(10 * time.Millisecond)
			done <- c.Free(ptr, 1024*1024)
		}(i, c)
	}

	for i := 0; i < numClients; i++ {
		require.NoError(t, <-done)
	}
}
