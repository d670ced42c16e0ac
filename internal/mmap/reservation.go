package mmap

import "sync/atomic"

// Reservation is a contiguous region of virtual address space claimed for a
// storage environment. The region carries no access permissions, so it
// consumes address space but no physical memory.
//
// A reservation either succeeds for the full requested size or fails; there
// is no partial reservation.
type Reservation struct {
	data    []byte
	size    int
	closed  atomic.Bool
	release func([]byte) error
}

// Reserve claims size bytes of virtual address space.
func Reserve(size int) (*Reservation, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	data, releaseFunc, err := osReserve(size)
	if err != nil {
		return nil, err
	}

	return &Reservation{
		data:    data,
		size:    size,
		release: releaseFunc,
	}, nil
}

// Size returns the reserved size in bytes.
func (r *Reservation) Size() int {
	return r.size
}

// Release returns the address space to the OS. It is idempotent.
func (r *Reservation) Release() error {
	if r.closed.Swap(true) {
		return nil // Already released
	}
	if r.release != nil && r.data != nil {
		return r.release(r.data)
	}
	return nil
}

// PageSize returns the OS page size in bytes.
func PageSize() int {
	return osPageSize()
}
