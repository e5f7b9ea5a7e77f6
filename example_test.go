// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package forest_test

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gaissmai/forest"
)

// Refine a two-tree block to a uniform level and coarsen everything
// back down to the roots.
func Example() {
	discard := forest.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	f, err := forest.New(forest.NewBrick(2, 1, 1), nil, discard)
	if err != nil {
		panic(err)
	}

	if err := f.RefineUniform(3, nil); err != nil {
		panic(err)
	}
	fmt.Println("refined:", f.GlobalNumQuadrants)

	if err := f.CoarsenAll(nil); err != nil {
		panic(err)
	}
	fmt.Println("coarsened:", f.GlobalNumQuadrants)

	if err := f.Destroy(); err != nil {
		panic(err)
	}

	// Output:
	// refined: 1024
	// coarsened: 2
}

// Enumerate the neighbors of an octant across a tree edge of a brick
// connectivity.
func ExampleEdgeNeighborExtra() {
	conn := forest.NewBrick(2, 2, 1)
	aator := forest.NewAllocator()

	quads, err := forest.NewOctantArray(aator)
	if err != nil {
		panic(err)
	}
	if err := quads.Setup(); err != nil {
		panic(err)
	}
	trees, err := forest.NewTreeIDArray(aator)
	if err != nil {
		panic(err)
	}
	if err := trees.Setup(); err != nil {
		panic(err)
	}

	// the corner octant of tree 0 looks diagonally across edge 11
	// into tree 3
	level := int8(1)
	last := forest.LastOffset(level)
	q := forest.Octant{X: last, Y: last, Z: 0, Level: level}

	if err := forest.EdgeNeighborExtra(q, 0, 11, quads, trees, conn); err != nil {
		panic(err)
	}
	for i := range quads.ElemCount() {
		nq := *quads.MustIndex(i)
		fmt.Printf("tree %d: x=%d y=%d z=%d level=%d\n",
			*trees.MustIndex(i), nq.X, nq.Y, nq.Z, nq.Level)
	}

	// Output:
	// tree 3: x=0 y=0 z=0 level=1
}
