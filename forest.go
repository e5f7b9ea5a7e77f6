// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package forest

import (
	"fmt"
	"log/slog"

	"github.com/gaissmai/forest/internal/alloc"
	"github.com/gaissmai/forest/internal/flex"
	"github.com/gaissmai/forest/internal/octant"
	"github.com/gaissmai/forest/internal/reduce"
)

// RefineFn decides whether an octant of a tree is to be refined.
type RefineFn func(t TreeID, q Octant) bool

// CoarsenFn decides whether a complete family of children is to be
// replaced by its parent. The slice is only valid during the call.
type CoarsenFn func(t TreeID, children []Octant) bool

// InitFn initializes the user payload of a freshly created octant.
type InitFn func(t TreeID, q *Octant)

// FreeFn releases the user payload of an octant about to go away.
type FreeFn func(q *Octant)

// Tree holds the sorted octants of one root tree of the connectivity.
type Tree struct {
	// Quadrants is the octant storage, kept in Morton order.
	Quadrants *OctantArray

	// QuadrantsPerLevel counts the octants of each level.
	QuadrantsPerLevel [QMaxLevel + 1]int64

	// MaxLevel is the highest level with a nonzero count.
	MaxLevel int8

	// QuadrantsOffset is the running octant count of all prior trees.
	QuadrantsOffset int64
}

// Forest is a collection of octrees over a connectivity. It is owned
// by one goroutine at a time.
type Forest struct {
	conn  *Connectivity
	dim   Dim
	trees []*Tree

	aator  *Allocator
	comm   Comm
	log    *slog.Logger
	freeFn FreeFn

	// LocalNumQuadrants counts the octants of this process.
	LocalNumQuadrants int64

	// GlobalNumQuadrants counts the octants across the group.
	GlobalNumQuadrants int64
}

// Option configures a Forest at creation time.
type Option func(*Forest)

// WithComm attaches the process group used for global counts.
func WithComm(comm Comm) Option {
	return func(f *Forest) { f.comm = comm }
}

// WithLogger replaces the default logger.
func WithLogger(log *slog.Logger) Option {
	return func(f *Forest) { f.log = log }
}

// WithFreeFn installs the payload release callback used whenever
// refinement or coarsening drops octants.
func WithFreeFn(freeFn FreeFn) Option {
	return func(f *Forest) { f.freeFn = freeFn }
}

// New creates a forest with one root octant per connectivity tree.
// initFn, if non-nil, initializes each root's payload.
func New(conn *Connectivity, initFn InitFn, opts ...Option) (*Forest, error) {
	if conn == nil || conn.NumTrees() == 0 {
		return nil, fmt.Errorf("forest new: empty connectivity: %w", ErrPrecondition)
	}

	f := &Forest{
		conn:  conn,
		dim:   conn.Dim(),
		aator: alloc.New(),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}

	for t := range conn.NumTrees() {
		tq, err := flex.New[Octant](f.aator)
		if err != nil {
			return nil, err
		}
		if err := tq.Setup(); err != nil {
			return nil, err
		}

		root, err := tq.Push()
		if err != nil {
			return nil, err
		}
		*root = Octant{}
		if initFn != nil {
			initFn(TreeID(t), root)
		}

		tree := &Tree{Quadrants: tq}
		tree.QuadrantsPerLevel[0] = 1
		tree.QuadrantsOffset = int64(t)
		f.trees = append(f.trees, tree)
	}

	f.LocalNumQuadrants = int64(conn.NumTrees())
	if err := f.updateGlobalCount(); err != nil {
		return nil, err
	}
	return f, nil
}

// Conn returns the frozen connectivity of the forest.
func (f *Forest) Conn() *Connectivity { return f.conn }

// Dim returns the dimension of the forest.
func (f *Forest) Dim() Dim { return f.dim }

// NumTrees returns the number of root trees.
func (f *Forest) NumTrees() int { return len(f.trees) }

// Tree returns the tree with the given id.
func (f *Forest) Tree(t TreeID) (*Tree, error) {
	if t < 0 || int(t) >= len(f.trees) {
		return nil, fmt.Errorf("forest: tree %d out of range: %w", t, ErrPrecondition)
	}
	return f.trees[t], nil
}

// Allocator returns the allocation ledger shared by the octant
// storage of all trees.
func (f *Forest) Allocator() *Allocator { return f.aator }

// Destroy releases all octant storage. Outstanding payloads are
// handed to the free callback first; leaks are reported, not ignored.
func (f *Forest) Destroy() error {
	var leak error
	for _, tree := range f.trees {
		if f.freeFn != nil {
			for i := range tree.Quadrants.ElemCount() {
				f.freeFn(tree.Quadrants.MustIndex(i))
			}
		}
		if err := tree.Quadrants.Destroy(); err != nil {
			leak = err
		}
	}
	f.trees = nil
	if err := f.aator.Destroy(); err != nil {
		leak = err
	}
	return leak
}

// freeData releases the payload of q through the installed callback.
func (f *Forest) freeData(q *Octant) {
	if f.freeFn != nil {
		f.freeFn(q)
	}
	q.Data = nil
}

// updateGlobalCount establishes GlobalNumQuadrants, summing the local
// counts across the group when one is attached.
func (f *Forest) updateGlobalCount() error {
	if f.comm == nil {
		f.GlobalNumQuadrants = f.LocalNumQuadrants
		return nil
	}

	send := reduce.EncodeInt64(f.LocalNumQuadrants)
	recv := make([]byte, len(send))
	if err := reduce.Allreduce(send, recv, 1, reduce.Int64, reduce.Sum, f.comm); err != nil {
		return fmt.Errorf("forest count: %w", err)
	}
	f.GlobalNumQuadrants = reduce.DecodeInt64(recv, 1)[0]
	return nil
}

// IsValid checks the per-tree invariants: counts match the histogram,
// octants are valid and sorted in Morton order.
func (f *Forest) IsValid() bool {
	var local int64
	for _, tree := range f.trees {
		var num int64
		maxlevel := int8(0)
		for l, n := range tree.QuadrantsPerLevel {
			if n < 0 {
				return false
			}
			num += n
			if n > 0 {
				maxlevel = int8(l)
			}
		}
		if num != int64(tree.Quadrants.ElemCount()) || maxlevel != tree.MaxLevel {
			return false
		}
		for i := range tree.Quadrants.ElemCount() {
			if !f.dim.IsValid(*tree.Quadrants.MustIndex(i)) {
				return false
			}
		}
		if !tree.Quadrants.IsSorted(func(x, y *Octant) int { return octant.Compare(*x, *y) }) {
			return false
		}
		local += num
	}
	return local == f.LocalNumQuadrants
}
