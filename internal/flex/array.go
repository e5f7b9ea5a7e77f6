// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package flex implements a refcounted, growable, typed array.
//
// The array has a two-phase lifecycle: after New the parameters may
// still be changed, Setup fixes them and allocates, and from then on
// the element storage may only be resized through Resize and friends.
// The capacity is kept at zero or a power of two, Freeze trades
// resizability for the right to alias the array via Ref.
package flex

import (
	"fmt"
	"unsafe"

	"github.com/gaissmai/forest/internal/alloc"
)

// ErrPrecondition and ErrLeak are re-exported so callers need not
// import the allocator for error matching.
var (
	ErrPrecondition = alloc.ErrPrecondition
	ErrLeak         = alloc.ErrLeak
)

// Array is a contiguous growable buffer of T with a reference count.
// The element size is fixed by the type parameter, all other
// parameters are settable between New and Setup.
type Array[T any] struct {
	aator *alloc.Allocator
	mem   []T // nil before setup, cap(mem) == ealloc after

	rc     int
	ecount int
	ealloc int

	setup     bool
	initzero  bool
	resizable bool
	tighten   bool
}

// elemSize in bytes, as registered with the allocator.
func (a *Array[T]) elemSize() int64 {
	var t T
	return int64(unsafe.Sizeof(t))
}

// New returns a fresh array bound to aator with one reference,
// ecount 0 and a default capacity of 8, not yet set up.
// Arrays are resizable until frozen.
func New[T any](aator *alloc.Allocator) (*Array[T], error) {
	if !aator.IsSetup() {
		return nil, fmt.Errorf("array new: allocator not set up: %w", ErrPrecondition)
	}
	if err := aator.Ref(); err != nil {
		return nil, err
	}
	a := &Array[T]{
		aator:     aator,
		rc:        1,
		ealloc:    8,
		resizable: true,
	}
	if err := aator.Register(0); err != nil {
		return nil, err
	}
	return a, nil
}

// IsValid reports the internal invariants: counts are consistent and
// the capacity is zero or a power of two once set up.
func (a *Array[T]) IsValid() bool {
	if a == nil || a.rc <= 0 || a.ecount < 0 || a.ealloc < 0 {
		return false
	}
	if !a.setup {
		return a.mem == nil
	}
	if a.ealloc != 0 && a.ealloc&(a.ealloc-1) != 0 && !(!a.resizable && a.ealloc == a.ecount) {
		// exact-fit capacity occurs only after a tightening freeze
		return false
	}
	return a.ecount <= a.ealloc && (cap(a.mem) >= a.ealloc || a.ealloc == 0)
}

// IsNew reports a valid array before Setup.
func (a *Array[T]) IsNew() bool { return a.IsValid() && !a.setup }

// IsSetup reports a valid array after Setup.
func (a *Array[T]) IsSetup() bool { return a.IsValid() && a.setup }

// IsResizable reports a set up array that may still change length.
func (a *Array[T]) IsResizable() bool { return a.IsSetup() && a.resizable }

// IsUnresizable reports a set up array with fixed length.
func (a *Array[T]) IsUnresizable() bool { return a.IsSetup() && !a.resizable }

// SetElemCount presets the element count allocated by Setup.
func (a *Array[T]) SetElemCount(ecount int) error {
	if !a.IsNew() || ecount < 0 {
		return fmt.Errorf("array set elem count: %w", ErrPrecondition)
	}
	a.ecount = ecount
	return nil
}

// SetElemAlloc presets the capacity, rounded up to a power of two by Setup.
func (a *Array[T]) SetElemAlloc(ealloc int) error {
	if !a.IsNew() || ealloc < 0 {
		return fmt.Errorf("array set elem alloc: %w", ErrPrecondition)
	}
	a.ealloc = ealloc
	return nil
}

// SetInitzero selects zeroed allocation. Go storage is always zeroed,
// the flag is kept for contract symmetry.
func (a *Array[T]) SetInitzero(initzero bool) error {
	if !a.IsNew() {
		return fmt.Errorf("array set initzero: %w", ErrPrecondition)
	}
	a.initzero = initzero
	return nil
}

// SetResizable selects whether the array may change length after Setup.
func (a *Array[T]) SetResizable(resizable bool) error {
	if !a.IsNew() {
		return fmt.Errorf("array set resizable: %w", ErrPrecondition)
	}
	a.resizable = resizable
	return nil
}

// SetTighten permits shrinking the capacity on Resize and Freeze.
func (a *Array[T]) SetTighten(tighten bool) error {
	if !a.IsNew() {
		return fmt.Errorf("array set tighten: %w", ErrPrecondition)
	}
	a.tighten = tighten
	return nil
}

// Setup rounds the capacity up to the smallest power of two covering
// both the preset capacity and count, allocates, and fixes all
// parameters.
func (a *Array[T]) Setup() error {
	if !a.IsNew() {
		return fmt.Errorf("array setup: %w", ErrPrecondition)
	}

	ealloc := 1
	for ealloc < a.ealloc || ealloc < a.ecount {
		ealloc *= 2
	}
	a.ealloc = ealloc

	a.mem = make([]T, a.ealloc)
	if err := a.aator.Resize(0, int64(a.ealloc)*a.elemSize()); err != nil {
		return err
	}
	a.setup = true
	return nil
}

// Ref acquires an additional reference. Aliasing a resizable array is
// forbidden, the alias could observe a reallocation.
func (a *Array[T]) Ref() error {
	if !a.IsUnresizable() {
		return fmt.Errorf("array ref: %w", ErrPrecondition)
	}
	a.rc++
	return nil
}

// Unref drops one reference. The last reference releases the element
// storage and the array itself; a mismatch reported by the allocator
// comes back as a non-fatal leak error.
func (a *Array[T]) Unref() error {
	if !a.IsValid() {
		return fmt.Errorf("array unref: %w", ErrPrecondition)
	}
	a.rc--
	if a.rc > 0 {
		return nil
	}

	var bytes int64
	if a.setup {
		bytes = int64(a.ealloc) * a.elemSize()
	}
	a.mem = nil
	a.setup = false
	if err := a.aator.Release(bytes); err != nil {
		return err
	}
	leak := a.aator.Unref()
	a.aator = nil
	return leak
}

// Destroy demands the last reference and drops it. Outstanding
// references are reported as a leak and the caller's reference is
// still released.
func (a *Array[T]) Destroy() error {
	if !a.IsValid() {
		return fmt.Errorf("array destroy: %w", ErrPrecondition)
	}
	if a.rc != 1 {
		if err := a.Unref(); err != nil {
			return err
		}
		return fmt.Errorf("array destroy: references outstanding: %w", ErrLeak)
	}
	return a.Unref()
}

// Resize sets the element count to ecount, growing the capacity by
// doubling and, with tighten, shrinking it by halving.
func (a *Array[T]) Resize(ecount int) error {
	if !a.IsResizable() || ecount < 0 {
		return fmt.Errorf("array resize: %w", ErrPrecondition)
	}

	if ecount > a.ealloc {
		newalloc := a.ealloc
		if newalloc == 0 {
			newalloc = 1
		}
		for ecount > newalloc {
			newalloc *= 2
		}
		a.realloc(newalloc)
	} else if a.tighten && ecount < a.ealloc {
		newalloc := 0
		if ecount > 0 {
			newalloc = a.ealloc
			for newalloc/2 >= ecount {
				newalloc /= 2
			}
		}
		if newalloc < a.ealloc {
			// zero the vacated tail before the old storage goes away
			clear(a.mem[newalloc:a.ealloc])
			a.realloc(newalloc)
		}
	}

	if ecount > a.ecount {
		clear(a.mem[a.ecount:ecount])
	}
	a.ecount = ecount
	return nil
}

// realloc moves the storage to a buffer of newalloc elements.
func (a *Array[T]) realloc(newalloc int) {
	esize := a.elemSize()
	mem := make([]T, newalloc)
	copy(mem, a.mem[:min(len(a.mem), newalloc)])
	a.mem = mem
	_ = a.aator.Resize(int64(a.ealloc)*esize, int64(newalloc)*esize)
	a.ealloc = newalloc
}

// PushCount appends n zero elements and returns the slice of new slots.
func (a *Array[T]) PushCount(n int) ([]T, error) {
	if !a.IsResizable() || n < 0 {
		return nil, fmt.Errorf("array push count: %w", ErrPrecondition)
	}
	old := a.ecount
	if n > 0 {
		if err := a.Resize(old + n); err != nil {
			return nil, err
		}
	}
	return a.mem[old : old+n], nil
}

// Push appends one zero element and returns a pointer to it.
func (a *Array[T]) Push() (*T, error) {
	s, err := a.PushCount(1)
	if err != nil {
		return nil, err
	}
	return &s[0], nil
}

// Pop removes the last element.
func (a *Array[T]) Pop() error {
	if !a.IsResizable() || a.ecount == 0 {
		return fmt.Errorf("array pop: %w", ErrPrecondition)
	}
	return a.Resize(a.ecount - 1)
}

// Freeze forbids further resizing. With tighten set, the capacity is
// shrunk to an exact fit first.
func (a *Array[T]) Freeze() error {
	if !a.IsSetup() {
		return fmt.Errorf("array freeze: %w", ErrPrecondition)
	}
	if a.resizable {
		if a.tighten && a.ecount < a.ealloc {
			a.realloc(a.ecount)
		}
		a.resizable = false
	}
	return nil
}

// Index returns a pointer to element i.
func (a *Array[T]) Index(i int) (*T, error) {
	if !a.IsSetup() || i < 0 || i >= a.ecount {
		return nil, fmt.Errorf("array index %d of %d: %w", i, a.ecount, ErrPrecondition)
	}
	return &a.mem[i], nil
}

// MustIndex is the derived convenience for call sites that have
// already validated i, it panics where Index errors.
func (a *Array[T]) MustIndex(i int) *T {
	p, err := a.Index(i)
	if err != nil {
		panic(err)
	}
	return p
}

// ElemCount returns the number of live elements.
func (a *Array[T]) ElemCount() int { return a.ecount }

// ElemAlloc returns the current capacity.
func (a *Array[T]) ElemAlloc() int { return a.ealloc }

// IsSorted reports whether cmp(a[k], a[k+1]) <= 0 for all valid k.
func (a *Array[T]) IsSorted(cmp func(x, y *T) int) bool {
	if !a.IsSetup() {
		return false
	}
	for i := 1; i < a.ecount; i++ {
		if cmp(&a.mem[i-1], &a.mem[i]) > 0 {
			return false
		}
	}
	return true
}
