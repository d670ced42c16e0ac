// Package mmap provides the memory-mapping primitives backing a storage
// environment: read-only file mappings for zero-copy snapshot access and
// anonymous address-space reservations.
//
// # Reservations
//
// An environment claims its maximum storage size up front as a single
// contiguous reservation. On platforms with a constrained usable virtual
// address space the reservation can fail even on 64-bit builds, which is
// why environment opening probes for a workable size (see the negotiator
// in the root package). Reserve maps the region with no access
// permissions, so no physical memory is committed.
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2)/munmap(2) with madvise(2) hints
//   - Windows: CreateFileMapping/MapViewOfFile and VirtualAlloc MEM_RESERVE
//
// # Thread Safety
//
// Mapping is safe for concurrent read access. Close is idempotent and
// protected by atomic operations; callers must ensure no goroutine touches
// Bytes() after Close returns.
package mmap
