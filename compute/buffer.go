package compute

import (
	"fmt"
	"math"
	"sync"
	"unsafe"
)

// Kernel is a data-parallel program over an index range. Prepare runs once,
// single-threaded, before the groups of a dispatch; Execute must read only
// src and write only dst[start:end].
type Kernel[T any] interface {
	Name() string
	Prepare(src []T, workers int) error
	Execute(start, end int, src, dst []T, worker int)
}

// job tracks the work groups of one dispatch.
type job struct {
	kernel string
	wg     sync.WaitGroup

	mu  sync.Mutex
	err error
}

func (j *job) fail(err error) {
	j.mu.Lock()
	if j.err == nil {
		j.err = err
	}
	j.mu.Unlock()
}

// Buffer mirrors a fixed-capacity host array on the device. The device side
// is double-buffered: a dispatch reads the front array and writes the back
// array, and Download swaps them once every group has finished.
//
// A Buffer is owned by a single driver and is not safe for concurrent use.
type Buffer[T any] struct {
	dev      *Device
	capacity int
	bytes    int64

	host  []T
	front []T
	back  []T

	pending  *job
	released bool
}

// Allocate reserves a buffer for exactly capacity items of T.
func Allocate[T any](d *Device, capacity int) (*Buffer[T], error) {
	var zero T
	itemSize := int64(unsafe.Sizeof(zero))

	if capacity <= 0 {
		return nil, &ResourceError{
			Op:        "allocate",
			Available: -1,
			Err:       fmt.Errorf("invalid capacity %d", capacity),
		}
	}
	// host + front + back
	if itemSize > 0 && int64(capacity) > math.MaxInt64/(3*itemSize) {
		return nil, &ResourceError{
			Op:        "allocate",
			Requested: math.MaxInt64,
			Available: -1,
			Err:       fmt.Errorf("capacity %d overflows", capacity),
		}
	}
	bytes := 3 * int64(capacity) * itemSize

	if err := d.reserve("allocate", bytes); err != nil {
		return nil, err
	}

	d.logger.Debug("buffer allocated",
		"capacity", capacity,
		"bytes", bytes,
		"device_allocated", d.Allocated(),
	)

	return &Buffer[T]{
		dev:      d,
		capacity: capacity,
		bytes:    bytes,
		host:     make([]T, capacity),
		front:    make([]T, capacity),
		back:     make([]T, capacity),
	}, nil
}

// Capacity returns the number of items the buffer holds.
func (b *Buffer[T]) Capacity() int { return b.capacity }

// Groups returns the number of work groups a dispatch is split into.
func (b *Buffer[T]) Groups() int {
	gs := b.dev.groupSize
	return (b.capacity + gs - 1) / gs
}

// Upload copies records to the device. len(records) must equal Capacity.
func (b *Buffer[T]) Upload(records []T) error {
	switch {
	case b.released:
		return &DeviceError{Op: "upload", Err: ErrReleased}
	case b.pending != nil:
		return &DeviceError{Op: "upload", Err: ErrPending}
	case len(records) != b.capacity:
		return &DeviceError{
			Op:  "upload",
			Err: fmt.Errorf("%w: %d records for capacity %d", ErrSizeMismatch, len(records), b.capacity),
		}
	}
	copy(b.host, records)
	copy(b.front, records)
	return nil
}

// Dispatch runs k over every item, partitioned into work groups. It returns
// once the work is queued; Download waits for completion.
func (b *Buffer[T]) Dispatch(k Kernel[T]) error {
	if k == nil {
		return &DeviceError{Op: "dispatch", Err: ErrKernelNotFound}
	}
	name := k.Name()
	switch {
	case b.released:
		return &DeviceError{Op: "dispatch", Kernel: name, Err: ErrReleased}
	case b.pending != nil:
		return &DeviceError{Op: "dispatch", Kernel: name, Err: ErrPending}
	case b.dev.Closed():
		return &DeviceError{Op: "dispatch", Kernel: name, Err: ErrClosed}
	}

	workers := b.dev.workers
	if err := k.Prepare(b.front, workers); err != nil {
		return &DeviceError{Op: "dispatch", Kernel: name, Err: err}
	}

	j := &job{kernel: name}
	src, dst := b.front, b.back
	gs := b.dev.groupSize
	n := b.capacity

	if n < parallelThreshold || workers == 1 {
		// Single-threaded for small populations
		for start := 0; start < n; start += gs {
			runGroup(k, start, min(start+gs, n), src, dst, 0, j)
		}
	} else {
		groups := b.Groups()
		for g := 0; g < groups; g++ {
			start := g * gs
			end := min(start+gs, n)
			j.wg.Add(1)
			err := b.dev.pool.submit(task{
				run: func(worker int) {
					runGroup(k, start, end, src, dst, worker, j)
				},
				done: j.wg.Done,
			})
			if err != nil {
				// Closed mid-dispatch: queued groups still finish, the
				// dispatch as a whole fails at Download.
				j.fail(err)
				j.wg.Done()
				break
			}
		}
	}

	b.pending = j
	return nil
}

// runGroup executes one work group, converting a kernel panic into a job error.
func runGroup[T any](k Kernel[T], start, end int, src, dst []T, worker int, j *job) {
	defer func() {
		if r := recover(); r != nil {
			j.fail(fmt.Errorf("work group [%d,%d) panicked: %v", start, end, r))
		}
	}()
	k.Execute(start, end, src, dst, worker)
}

// Download blocks until the pending dispatch completes and copies the result
// into the host array, which is returned. Without a pending dispatch it
// returns the host array unchanged. On failure the device keeps the previous
// state and the host array still holds the last good result.
func (b *Buffer[T]) Download() ([]T, error) {
	if b.released {
		return nil, &DeviceError{Op: "download", Err: ErrReleased}
	}
	j := b.pending
	if j == nil {
		return b.host, nil
	}

	j.wg.Wait()
	b.pending = nil

	if j.err != nil {
		return b.host, &DeviceError{Op: "dispatch", Kernel: j.kernel, Err: j.err}
	}

	b.front, b.back = b.back, b.front
	copy(b.host, b.front)
	return b.host, nil
}

// Host returns the host array without synchronizing.
func (b *Buffer[T]) Host() []T { return b.host }

// Release frees the device memory. It waits for an in-flight dispatch and is
// safe to call more than once.
func (b *Buffer[T]) Release() {
	if b == nil || b.released {
		return
	}
	if b.pending != nil {
		b.pending.wg.Wait()
		b.pending = nil
	}
	b.released = true
	b.dev.free(b.bytes)
	b.front, b.back = nil, nil

	b.dev.logger.Debug("buffer released",
		"capacity", b.capacity,
		"bytes", b.bytes,
	)
}

// Released reports whether Release has been called.
func (b *Buffer[T]) Released() bool { return b.released }
