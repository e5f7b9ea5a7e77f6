// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package flex

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/gaissmai/forest/internal/alloc"
)

func newSetup[T any](t *testing.T, aator *alloc.Allocator) *Array[T] {
	t.Helper()
	a, err := New[T](aator)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	return a
}

func TestSetupRoundsToPowerOfTwo(t *testing.T) {
	t.Parallel()
	aator := alloc.New()

	a, err := New[int32](aator)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.SetElemAlloc(5); err != nil {
		t.Fatalf("SetElemAlloc: %v", err)
	}
	if err := a.SetElemCount(0); err != nil {
		t.Fatalf("SetElemCount: %v", err)
	}
	if err := a.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	if got := a.ElemAlloc(); got != 8 {
		t.Errorf("ElemAlloc, expected 8, got %d", got)
	}
	if got := a.ElemCount(); got != 0 {
		t.Errorf("ElemCount, expected 0, got %d", got)
	}
	if aator.Outstanding() == 0 {
		t.Errorf("no bytes registered after Setup")
	}

	if err := a.Unref(); err != nil {
		t.Fatalf("Unref: %v", err)
	}
	if err := aator.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
}

func TestSetupCoversElemCount(t *testing.T) {
	t.Parallel()
	aator := alloc.New()

	a, _ := New[byte](aator)
	if err := a.SetElemCount(100); err != nil {
		t.Fatalf("SetElemCount: %v", err)
	}
	if err := a.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if got := a.ElemAlloc(); got != 128 {
		t.Errorf("ElemAlloc, expected 128, got %d", got)
	}
	if got := a.ElemCount(); got != 100 {
		t.Errorf("ElemCount, expected 100, got %d", got)
	}
}

func TestSettersAfterSetupFail(t *testing.T) {
	t.Parallel()

	a := newSetup[int](t, alloc.New())
	if err := a.SetElemCount(3); !errors.Is(err, ErrPrecondition) {
		t.Errorf("SetElemCount after Setup, expected precondition error, got %v", err)
	}
	if err := a.Setup(); !errors.Is(err, ErrPrecondition) {
		t.Errorf("double Setup, expected precondition error, got %v", err)
	}
}

func TestPushPopInvariants(t *testing.T) {
	t.Parallel()
	prng := rand.New(rand.NewPCG(42, 42))

	a := newSetup[int](t, alloc.New())
	count := 0

	for range 10_000 {
		if count == 0 || prng.IntN(3) > 0 {
			p, err := a.Push()
			if err != nil {
				t.Fatalf("Push: %v", err)
			}
			*p = count
			count++
		} else {
			if err := a.Pop(); err != nil {
				t.Fatalf("Pop: %v", err)
			}
			count--
		}

		if got := a.ElemCount(); got != count {
			t.Fatalf("ElemCount, expected %d, got %d", count, got)
		}
		ea := a.ElemAlloc()
		if got := a.ElemCount(); got > ea {
			t.Fatalf("ecount %d exceeds ealloc %d", got, ea)
		}
		if ea != 0 && ea&(ea-1) != 0 {
			t.Fatalf("ealloc %d is no power of two", ea)
		}
	}
}

func TestResizeGrowAndTighten(t *testing.T) {
	t.Parallel()
	aator := alloc.New()

	a, _ := New[int64](aator)
	if err := a.SetTighten(true); err != nil {
		t.Fatalf("SetTighten: %v", err)
	}
	if err := a.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	if err := a.Resize(1000); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if got := a.ElemAlloc(); got != 1024 {
		t.Errorf("ElemAlloc after grow, expected 1024, got %d", got)
	}

	for i := range 1000 {
		*a.MustIndex(i) = int64(i)
	}

	if err := a.Resize(10); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if got := a.ElemAlloc(); got != 16 {
		t.Errorf("ElemAlloc after tighten, expected 16, got %d", got)
	}
	for i := range 10 {
		if *a.MustIndex(i) != int64(i) {
			t.Fatalf("element %d lost in tighten", i)
		}
	}

	if err := a.Resize(0); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if got := a.ElemAlloc(); got != 0 {
		t.Errorf("ElemAlloc after resize to zero, expected 0, got %d", got)
	}

	// growing from zero capacity starts over at one
	if err := a.Resize(3); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if got := a.ElemAlloc(); got != 4 {
		t.Errorf("ElemAlloc, expected 4, got %d", got)
	}
}

func TestResizeZeroesNewSlots(t *testing.T) {
	t.Parallel()

	a := newSetup[int](t, alloc.New())
	p, _ := a.Push()
	*p = 42
	if err := a.Pop(); err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if err := a.Resize(1); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if got := *a.MustIndex(0); got != 0 {
		t.Errorf("recycled slot, expected 0, got %d", got)
	}
}

func TestIndexErrors(t *testing.T) {
	t.Parallel()

	a := newSetup[int](t, alloc.New())
	if _, err := a.Index(0); !errors.Is(err, ErrPrecondition) {
		t.Errorf("Index on empty array, expected precondition error, got %v", err)
	}

	p, _ := a.Push()
	*p = 7
	if got, err := a.Index(0); err != nil || *got != 7 {
		t.Errorf("Index(0), expected 7, got %v, %v", got, err)
	}
	if _, err := a.Index(1); !errors.Is(err, ErrPrecondition) {
		t.Errorf("Index(1), expected precondition error, got %v", err)
	}
}

func TestMustIndexPanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Errorf("MustIndex, expected panic")
		}
	}()

	a := newSetup[int](t, alloc.New())
	a.MustIndex(0)
}

func TestRefRequiresFrozen(t *testing.T) {
	t.Parallel()

	a := newSetup[int](t, alloc.New())
	if err := a.Ref(); !errors.Is(err, ErrPrecondition) {
		t.Errorf("Ref on resizable array, expected precondition error, got %v", err)
	}

	if err := a.Freeze(); err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	if err := a.Ref(); err != nil {
		t.Fatalf("Ref after Freeze: %v", err)
	}
	if err := a.Resize(1); !errors.Is(err, ErrPrecondition) {
		t.Errorf("Resize after Freeze, expected precondition error, got %v", err)
	}

	if err := a.Unref(); err != nil {
		t.Fatalf("Unref: %v", err)
	}
	if err := a.Unref(); err != nil {
		t.Fatalf("last Unref: %v", err)
	}
}

func TestFreezeTightensAndKeepsPointers(t *testing.T) {
	t.Parallel()

	a, _ := New[int](alloc.New())
	if err := a.SetTighten(true); err != nil {
		t.Fatalf("SetTighten: %v", err)
	}
	if err := a.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	for i := range 5 {
		p, _ := a.Push()
		*p = i
	}

	if err := a.Freeze(); err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	if got := a.ElemAlloc(); got != 5 {
		t.Errorf("ElemAlloc after tightening freeze, expected exact fit 5, got %d", got)
	}

	// frozen storage is stable under Ref
	p0 := a.MustIndex(0)
	if err := a.Ref(); err != nil {
		t.Fatalf("Ref: %v", err)
	}
	if p1 := a.MustIndex(0); p0 != p1 {
		t.Errorf("pointer moved under Ref")
	}
	for i := range 5 {
		if *a.MustIndex(i) != i {
			t.Errorf("element %d lost in freeze", i)
		}
	}
}

func TestDestroyReportsLeak(t *testing.T) {
	t.Parallel()

	a := newSetup[int](t, alloc.New())
	if err := a.Freeze(); err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	if err := a.Ref(); err != nil {
		t.Fatalf("Ref: %v", err)
	}

	if err := a.Destroy(); !errors.Is(err, ErrLeak) {
		t.Errorf("Destroy with two references, expected leak error, got %v", err)
	}
	// the remaining reference is still released cleanly
	if err := a.Unref(); err != nil {
		t.Errorf("final Unref: %v", err)
	}
}

func TestAllocatorLeakAccounting(t *testing.T) {
	t.Parallel()
	aator := alloc.New()

	a := newSetup[int](t, aator)
	if err := a.Unref(); err != nil {
		t.Fatalf("Unref: %v", err)
	}
	if got := aator.Outstanding(); got != 0 {
		t.Errorf("Outstanding after Unref, expected 0, got %d", got)
	}
	if err := aator.Destroy(); err != nil {
		t.Errorf("allocator Destroy, expected clean, got %v", err)
	}
}

func TestIsSorted(t *testing.T) {
	t.Parallel()

	cmp := func(x, y *int) int { return *x - *y }

	a := newSetup[int](t, alloc.New())
	for _, v := range []int{1, 3, 3, 7} {
		p, _ := a.Push()
		*p = v
	}
	if !a.IsSorted(cmp) {
		t.Errorf("IsSorted, expected true")
	}

	p, _ := a.Push()
	*p = 0
	if a.IsSorted(cmp) {
		t.Errorf("IsSorted, expected false")
	}
}
