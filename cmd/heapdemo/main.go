// Command heapdemo drives the fixed-region heap allocator through
// three demo modes: an in-memory round trip, a file-backed region that
// demonstrates surviving a restart, and a client/server pair talking
// over net/rpc.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/shenjiangwei/fixedheap/heap"
	"github.com/shenjiangwei/fixedheap/region"
	"github.com/shenjiangwei/fixedheap/rpc"
)

const (
	kb = 1024
	mb = 1024 * 1024

	minDemoBlock = 4 * kb
	maxDemoBlock = 4 * mb
)

type block struct {
	ptr  uint64
	size uint64
}

func main() {
	mode := flag.String("mode", "basic", "demo mode: basic, persist, rpc")
	regionPath := flag.String("region", "heapdemo.region", "backing file for the persist mode")
	regionSize := flag.Int("size", 16*mb, "region size in bytes")
	rpcAddress := flag.String("address", "127.0.0.1:8420", "listen/dial address for the rpc mode")
	verbose := flag.Bool("verbose", false, "enable debug-level heap logging")
	flag.Parse()

	if *verbose {
		heap.SetLogLevel(heap.LogLevelDebug)
	}

	switch *mode {
	case "basic":
		runBasic(*regionSize)
	case "persist":
		runPersist(*regionPath, *regionSize)
	case "rpc":
		runRPC(*rpcAddress, *regionSize)
	default:
		fmt.Printf("unknown mode: %s\n", *mode)
		fmt.Println("available modes: basic, persist, rpc")
		os.Exit(1)
	}
}

func randomBlockSize() uint64 {
	span := maxDemoBlock - minDemoBlock
	return uint64(minDemoBlock + rand.Intn(span))
}

// runBasic allocates a spread of sizes against an anonymous region,
// writes a recognizable byte pattern through each, verifies it, frees
// roughly a third of them, and prints the resulting Stats().
func runBasic(size int) {
	r := region.NewAnonymous(size)
	defer r.Close()

	a, err := heap.Init(r.Bytes())
	if err != nil {
		log.Fatalf("heap.Init: %v", err)
	}

	const count = 2000
	blocks := make([]block, 0, count)
	buf := a.Bytes()
	for i := 0; i < count; i++ {
		size := randomBlockSize()
		ptr, err := a.Allocate(size)
		if err != nil {
			fmt.Printf("allocation %d failed: %v\n", i, err)
			break
		}
		pattern := byte(i)
		for j := uint64(0); j < size; j++ {
			buf[ptr+j] = pattern
		}
		blocks = append(blocks, block{ptr: ptr, size: size})
	}
	fmt.Printf("allocated %d blocks\n", len(blocks))

	for i, b := range blocks {
		pattern := byte(i)
		if buf[b.ptr] != pattern || buf[b.ptr+b.size-1] != pattern {
			log.Fatalf("block %d: write-through verification failed", i)
		}
	}

	freed := 0
	for i := 0; i < len(blocks); i += 3 {
		a.Free(blocks[i].ptr)
		freed++
	}
	fmt.Printf("freed %d blocks\n", freed)

	if err := a.CheckInvariants(); err != nil {
		log.Fatalf("CheckInvariants: %v", err)
	}

	st := a.Stats()
	fmt.Printf("total bytes: %d, payload bytes: %d, free buddy bytes: %d\n",
		st.TotalBytes, st.PayloadBytes, st.FreeBuddyBytes)
}

// runPersist demonstrates the first-use convention: the first run
// creates the region and initializes the heap; subsequent runs attach
// to the existing one and see the prior run's allocations still
// marked allocated in the free-list metadata.
func runPersist(path string, size int) {
	r, err := region.Create(path, size)
	if err != nil {
		log.Fatalf("region.Create: %v", err)
	}
	defer r.Close()

	var a *heap.Allocator
	if r.FirstUse() {
		fmt.Println("first use: initializing region")
		a, err = heap.Init(r.Bytes())
	} else {
		fmt.Println("region already initialized: attaching")
		a = heap.Attach(r.Bytes())
	}
	if err != nil {
		log.Fatalf("heap init/attach: %v", err)
	}

	ptr, err := a.Allocate(1024)
	if err != nil {
		log.Fatalf("Allocate: %v", err)
	}
	fmt.Printf("allocated 1024 bytes at offset %d\n", ptr)

	if err := r.Sync(); err != nil {
		log.Fatalf("Sync: %v", err)
	}
	fmt.Println("run heapdemo -mode=persist again to see this region attached instead of re-initialized")
}

// runRPC spins up a server on address, a client against it, runs a
// handful of allocate/free round trips, and prints the server's pool
// stats before tearing both down.
func runRPC(address string, size int) {
	path := address + ".region"
	server, err := rpc.NewServer(path, size)
	if err != nil {
		log.Fatalf("rpc.NewServer: %v", err)
	}
	defer server.Close()
	defer os.Remove(path)

	go server.Serve(address)
	time.Sleep(100 * time.Millisecond)

	client, err := rpc.NewClient(1, address)
	if err != nil {
		log.Fatalf("rpc.NewClient: %v", err)
	}
	defer client.Close()

	allocated := make([]block, 0, 50)
	for i := 0; i < 50; i++ {
		size := randomBlockSize()
		ptr, err := client.Allocate(size)
		if err != nil {
			log.Fatalf("Allocate: %v", err)
		}
		allocated = append(allocated, block{ptr: ptr, size: size})
	}
	for i, b := range allocated {
		if i%2 == 0 {
			if err := client.Free(b.ptr, b.size); err != nil {
				log.Fatalf("Free: %v", err)
			}
		}
	}

	stats, err := client.Stats()
	if err != nil {
		log.Fatalf("Stats: %v", err)
	}
	fmt.Printf("server stats: %+v\n", stats.Stats)
}
