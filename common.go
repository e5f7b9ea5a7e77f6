// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package forest

import (
	"github.com/gaissmai/forest/internal/alloc"
	"github.com/gaissmai/forest/internal/connect"
	"github.com/gaissmai/forest/internal/flex"
	"github.com/gaissmai/forest/internal/octant"
	"github.com/gaissmai/forest/internal/reduce"
)

// The octant algebra is implemented in internal/octant and aliased
// here to keep the public API flat.
type (
	// Octant is an axis-aligned cube (3D) or square (2D) with integer
	// lower-corner coordinates and a refinement level.
	Octant = octant.Octant

	// Coord is an octant coordinate within a root tree.
	Coord = octant.Coord

	// Dim selects the quadrant or octant flavor of the algebra.
	Dim = octant.Dim
)

// Dimension and coordinate-system constants.
const (
	Dim2 = octant.Dim2
	Dim3 = octant.Dim3

	MaxLevel  = octant.MaxLevel
	QMaxLevel = octant.QMaxLevel
	RootLen   = octant.RootLen
)

// Re-exported octant operations, see internal/octant.
var (
	Parent      = octant.Parent
	Compare     = octant.Compare
	EqualOctant = octant.Equal

	EdgeNeighbor       = octant.EdgeNeighbor
	IsOutsideEdge      = octant.IsOutsideEdge
	IsOutsideEdgeExtra = octant.IsOutsideEdgeExtra
	IsOutsideCorner    = octant.IsOutsideCorner
	TouchesEdge        = octant.TouchesEdge
	ShiftEdge          = octant.ShiftEdge

	// Len and LastOffset are the side length and highest valid
	// coordinate of an octant at a given level.
	Len        = octant.Len
	LastOffset = octant.LastOffset
)

// The connectivity graph, see internal/connect.
type (
	// Connectivity is the frozen coarse graph of root trees.
	Connectivity = connect.Connectivity

	// TreeID identifies a root tree.
	TreeID = connect.TreeID

	// EdgeTransform maps edge coordinates into a neighbor tree.
	EdgeTransform = connect.EdgeTransform

	// EdgeInfo carries an edge id and its transform list.
	EdgeInfo = connect.EdgeInfo

	// FaceTransform maps face coordinates into a neighbor tree.
	FaceTransform = connect.FaceTransform
)

// NoTree is the sentinel tree id for "no such neighbor".
const NoTree = connect.NoTree

// Re-exported connectivity constructors and transforms.
var (
	NewUnitCube = connect.NewUnitCube
	NewBrick    = connect.NewBrick
	NewStar     = connect.NewStar
	NewRotCubes = connect.NewRotCubes

	TransformEdge     = connect.TransformEdge
	TransformFace     = connect.TransformFace
	FaceNeighborExtra = connect.FaceNeighborExtra
	EdgeNeighborExtra = connect.EdgeNeighborExtra
)

// The dynamic array primitive, see internal/flex. The generic Array
// is aliased per element type used in the public API.
type (
	// Allocator is the refcounted allocation ledger arrays report to.
	Allocator = alloc.Allocator

	// OctantArray is a dynamic array of octants.
	OctantArray = flex.Array[Octant]

	// TreeIDArray is a dynamic array of tree ids.
	TreeIDArray = flex.Array[TreeID]

	// IntArray is a dynamic array of ints, the offsets type of Split.
	IntArray = flex.Array[int]
)

// Error sentinels of the array and allocator layer.
var (
	ErrPrecondition = flex.ErrPrecondition
	ErrLeak         = flex.ErrLeak
)

// NewAllocator returns an allocation ledger in the setup state.
var NewAllocator = alloc.New

// NewOctantArray returns a fresh octant array bound to aator.
func NewOctantArray(aator *Allocator) (*OctantArray, error) {
	return flex.New[Octant](aator)
}

// NewTreeIDArray returns a fresh tree id array bound to aator.
func NewTreeIDArray(aator *Allocator) (*TreeIDArray, error) {
	return flex.New[TreeID](aator)
}

// NewIntArray returns a fresh int array bound to aator.
func NewIntArray(aator *Allocator) (*IntArray, error) {
	return flex.New[int](aator)
}

// SplitOctants computes the type boundaries of a sorted octant array,
// see the generic split in internal/flex.
func SplitOctants(a *OctantArray, offsets *IntArray, numTypes int, typeFn func(*Octant) int) error {
	return flex.Split(a, offsets, numTypes, typeFn)
}

// The parallel reduction, see internal/reduce.
type (
	// Comm is the message-passing process group collaborator.
	Comm = reduce.Comm

	// Datatype selects the element type of a reduction buffer.
	Datatype = reduce.Datatype

	// Op folds peer elements into own in place.
	Op = reduce.Op
)

// The closed set of supported reduction element types.
const (
	Int8    = reduce.Int8
	Int16   = reduce.Int16
	Uint16  = reduce.Uint16
	Int32   = reduce.Int32
	Uint32  = reduce.Uint32
	Int64   = reduce.Int64
	Uint64  = reduce.Uint64
	Float32 = reduce.Float32
	Float64 = reduce.Float64
)

// Re-exported reduction entry points and built-in operators.
var (
	Reduce    = reduce.Reduce
	Allreduce = reduce.Allreduce
	MaxOp     = reduce.Max
	SumOp     = reduce.Sum
	NewGroup  = reduce.NewGroup
)

// ErrProtocol wraps transport failures of the reduction collaborator.
var ErrProtocol = reduce.ErrProtocol
