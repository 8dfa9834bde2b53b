// Package compute provides a CPU-backed data-parallel device: buffers that
// mirror a host array, work-group dispatch over a persistent worker pool, and
// a named kernel library.
package compute

import (
	"log/slog"
	"runtime"
	"sync"
)

// DefaultGroupSize is the number of items per work group.
const DefaultGroupSize = 64

// parallelThreshold is the minimum item count to use the worker pool.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// Options configures a Device.
type Options struct {
	Workers     int   // 0 = GOMAXPROCS
	GroupSize   int   // 0 = DefaultGroupSize
	MemoryLimit int64 // bytes; 0 = unlimited
	Logger      *slog.Logger
}

// Device owns the worker pool and the memory budget shared by its buffers.
type Device struct {
	workers   int
	groupSize int
	memLimit  int64
	logger    *slog.Logger

	mu        sync.Mutex
	allocated int64

	pool *pool
}

// NewDevice creates a device. Workers start lazily on the first parallel dispatch.
func NewDevice(opts Options) *Device {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	groupSize := opts.GroupSize
	if groupSize <= 0 {
		groupSize = DefaultGroupSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Device{
		workers:   workers,
		groupSize: groupSize,
		memLimit:  opts.MemoryLimit,
		logger:    logger,
		pool:      newPool(workers),
	}
}

// Workers returns the number of pool workers.
func (d *Device) Workers() int { return d.workers }

// GroupSize returns the work group size.
func (d *Device) GroupSize() int { return d.groupSize }

// Allocated returns the bytes currently reserved by live buffers.
func (d *Device) Allocated() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allocated
}

// Close stops the worker pool. Groups already queued by a pending dispatch
// still run, so Download on that dispatch returns normally. Later dispatches
// fail with ErrClosed. Safe to call more than once.
func (d *Device) Close() {
	d.pool.stop()
}

// Closed reports whether Close has been called.
func (d *Device) Closed() bool { return d.pool.isClosed() }

func (d *Device) reserve(op string, bytes int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.memLimit > 0 && d.allocated+bytes > d.memLimit {
		return &ResourceError{
			Op:        op,
			Requested: bytes,
			Available: d.memLimit - d.allocated,
		}
	}
	d.allocated += bytes
	return nil
}

func (d *Device) free(bytes int64) {
	d.mu.Lock()
	d.allocated -= bytes
	d.mu.Unlock()
}

// task is one work group handed to the pool.
type task struct {
	run  func(worker int)
	done func()
}

// pool runs tasks on persistent worker goroutines.
type pool struct {
	numWorkers int

	mu       sync.Mutex
	workChan chan task // sends work to workers; closed by stop
	wg       sync.WaitGroup
	running  bool
	closed   bool
}

func newPool(numWorkers int) *pool {
	return &pool{numWorkers: numWorkers}
}

// start launches worker goroutines if they are not running. Callers hold p.mu.
func (p *pool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan task, p.numWorkers*4)
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// stop refuses further work, lets the workers finish every queued task and
// waits for them to exit.
func (p *pool) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if !p.running {
		return
	}

	close(p.workChan)
	p.wg.Wait()
	p.running = false
}

func (p *pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// submit queues t. It fails with ErrClosed once the pool has been stopped.
// The lock is held across the send so stop cannot close the channel under it.
func (p *pool) submit(t task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.start()
	p.workChan <- t
	return nil
}

// worker runs in a goroutine, processing tasks until the queue is closed and empty.
func (p *pool) worker(workerID int) {
	defer p.wg.Done()

	for t := range p.workChan {
		t.run(workerID)
		t.done()
	}
}
