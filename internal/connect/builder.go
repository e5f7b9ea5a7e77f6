// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package connect

import (
	"fmt"
	"slices"

	"github.com/gaissmai/forest/internal/octant"
	"github.com/gaissmai/forest/internal/topo"
)

// embed places a tree into a global cell lattice: local axis i runs
// along global axis axis[i] with direction sign[i], the cube sits at
// cell off (indexed by global axis). Rotations only, no mirrors.
type embed struct {
	axis [3]int8
	sign [3]int8
	off  [3]int32
}

// identity embedding at cell (x, y, z).
func cellAt(x, y, z int32) embed {
	return embed{
		axis: [3]int8{0, 1, 2},
		sign: [3]int8{1, 1, 1},
		off:  [3]int32{x, y, z},
	}
}

// rotated embedding: local axis i maps to global axis ax[i] with sign
// sg[i].
func rotAt(ax [3]int8, sg [3]int8, x, y, z int32) embed {
	return embed{axis: ax, sign: sg, off: [3]int32{x, y, z}}
}

// global maps a local corner point into the lattice frame.
func (e embed) global(p [3]octant.Coord) [3]int64 {
	var g [3]int64
	for i := range 3 {
		ga := e.axis[i]
		c := int64(p[i])
		if e.sign[i] < 0 {
			c = int64(octant.RootLen) - c
		}
		g[ga] = int64(e.off[ga])*int64(octant.RootLen) + c
	}
	return g
}

// compose maps local axes of e1 into the frame of e2, which must
// describe lattice-compatible placements: axisMap[i] and flip[i] give
// the e2 axis and direction of e1's axis i, shift[i] the whole-root
// translation along it.
func compose(e1, e2 embed) (axisMap [3]int8, flip [3]bool, shift [3]int32) {
	for i := range 3 {
		ga := e1.axis[i]
		k := int8(-1)
		for j := range 3 {
			if e2.axis[j] == ga {
				k = int8(j)
				break
			}
		}
		axisMap[i] = k
		flip[i] = e1.sign[i] != e2.sign[k]
		if e2.sign[k] > 0 {
			shift[i] = e1.off[ga] - e2.off[ga]
		} else {
			shift[i] = e2.off[ga] - e1.off[ga]
		}
	}
	return axisMap, flip, shift
}

type point [3]int64

// corner local coordinates of corner id c.
func cornerPoint(c int8) [3]octant.Coord {
	var p [3]octant.Coord
	if c&1 != 0 {
		p[0] = octant.RootLen
	}
	if c&2 != 0 {
		p[1] = octant.RootLen
	}
	if c&4 != 0 {
		p[2] = octant.RootLen
	}
	return p
}

// faceKey is the sorted global corner tuple of a face; 2D faces have
// two corners, the tail stays at the padding sentinel.
type faceKey [4]point

const pad = int64(1) << 62

// sideOfEdge returns the lower/upper side of edge e along the given
// perpendicular axis.
func sideOfEdge(e int, axis int8) int8 {
	ea := int8(e / 4)
	var perp [2]int8
	n := 0
	for a := int8(0); a < 3; a++ {
		if a != ea {
			perp[n] = a
			n++
		}
	}
	switch axis {
	case perp[0]:
		return int8(e & 1)
	case perp[1]:
		return int8((e >> 1) & 1)
	}
	panic(fmt.Sprintf("connect: axis %d is not perpendicular to edge %d", axis, e))
}

// faceCorners2D lists the two corners of face f of a quadrant.
func faceCorners2D(f int) [2]int8 {
	switch f {
	case 0:
		return [2]int8{0, 2}
	case 1:
		return [2]int8{1, 3}
	case 2:
		return [2]int8{0, 1}
	default:
		return [2]int8{2, 3}
	}
}

// build derives the frozen connectivity from cube embeddings:
// adjacency is found by matching global corner points, transforms by
// composing the embeddings.
func build(dim octant.Dim, embeds []embed) *Connectivity {
	numTrees := len(embeds)
	faces := dim.Faces()

	conn := &Connectivity{
		dim:      dim,
		numTrees: numTrees,
		fts:      make([]FaceTransform, numTrees*faces),
	}

	// index all faces by their corner points
	type treeFace struct {
		t TreeID
		f int
	}
	faceIdx := make(map[faceKey][]treeFace, numTrees*faces)
	keyOf := make([]faceKey, numTrees*faces)

	for t := range numTrees {
		for f := range faces {
			var pts []point
			if dim == octant.Dim3 {
				for _, c := range topo.FaceCorners[f] {
					pts = append(pts, point(embeds[t].global(cornerPoint(c))))
				}
			} else {
				for _, c := range faceCorners2D(f) {
					pts = append(pts, point(embeds[t].global(cornerPoint(c))))
				}
			}
			slices.SortFunc(pts, func(a, b point) int {
				for i := range 3 {
					if a[i] != b[i] {
						return int(a[i] - b[i])
					}
				}
				return 0
			})
			key := faceKey{{pad, pad, pad}, {pad, pad, pad}, {pad, pad, pad}, {pad, pad, pad}}
			copy(key[:], pts)
			keyOf[t*faces+f] = key
			faceIdx[key] = append(faceIdx[key], treeFace{TreeID(t), f})
		}
	}

	// face transforms, boundaries marked with NoTree
	for t := range numTrees {
		for f := range faces {
			ft := &conn.fts[t*faces+f]
			ft.NTree = NoTree

			for _, nb := range faceIdx[keyOf[t*faces+f]] {
				if int(nb.t) == t && nb.f == f {
					continue
				}
				axisMap, flip, shift := compose(embeds[t], embeds[nb.t])
				ft.NTree = nb.t
				ft.NFace = int8(nb.f)
				ft.NAxis = axisMap
				ft.NFlip = flip
				ft.Shift = shift
			}
		}
	}

	if dim != octant.Dim3 {
		conn.etOff = make([]int32, 1)
		return conn
	}

	// index all edges by their endpoints
	type treeEdge struct {
		t TreeID
		e int
	}
	type edgeKey [2]point
	edgeIdx := make(map[edgeKey][]treeEdge, numTrees*12)
	ekeyOf := make([]edgeKey, numTrees*12)

	for t := range numTrees {
		for e := range 12 {
			p0 := point(embeds[t].global(cornerPoint(topo.EdgeCorners[e][0])))
			p1 := point(embeds[t].global(cornerPoint(topo.EdgeCorners[e][1])))
			key := edgeKey{p0, p1}
			if cmpPoint(p1, p0) < 0 {
				key = edgeKey{p1, p0}
			}
			ekeyOf[t*12+e] = key
			edgeIdx[key] = append(edgeIdx[key], treeEdge{TreeID(t), e})
		}
	}

	// edge transforms: the trees diagonally across each edge, leaving
	// out the tree itself and everything already reachable through a
	// shared face
	conn.etOff = make([]int32, numTrees*12+1)
	for t := range numTrees {
		for e := range 12 {
			for _, nb := range edgeIdx[ekeyOf[t*12+e]] {
				if int(nb.t) == t {
					continue
				}
				if shareFace(keyOf, faces, t, e, int(nb.t), nb.e) {
					continue
				}

				a := int8(e / 4)
				var perp [2]int8
				n := 0
				for ax := int8(0); ax < 3; ax++ {
					if ax != a {
						perp[n] = ax
						n++
					}
				}

				axisMap, flip, _ := compose(embeds[t], embeds[nb.t])
				et := EdgeTransform{
					NTree: nb.t,
					NEdge: int8(nb.e),
					NAxis: [3]int8{axisMap[a], axisMap[perp[0]], axisMap[perp[1]]},
					Corners: sideOfEdge(nb.e, axisMap[perp[0]]) |
						sideOfEdge(nb.e, axisMap[perp[1]])<<1,
				}
				if flip[a] {
					et.NFlip = 1
				}
				conn.ets = append(conn.ets, et)
			}
			conn.etOff[t*12+e+1] = int32(len(conn.ets))
		}
	}
	return conn
}

func cmpPoint(a, b point) int {
	for i := range 3 {
		if a[i] != b[i] {
			return int(a[i] - b[i])
		}
	}
	return 0
}

// shareFace reports whether the two trees meet in a whole face
// containing their respective edges.
func shareFace(keyOf []faceKey, faces, t1, e1, t2, e2 int) bool {
	for _, f1 := range topo.EdgeFaces[e1] {
		for _, f2 := range topo.EdgeFaces[e2] {
			if keyOf[t1*faces+int(f1)] == keyOf[t2*faces+int(f2)] {
				return true
			}
		}
	}
	return false
}

// NewUnitCube returns the 3D connectivity of a single tree.
func NewUnitCube() *Connectivity {
	return build(octant.Dim3, []embed{cellAt(0, 0, 0)})
}

// NewBrick returns the 3D connectivity of an nx by ny by nz block of
// axis-aligned trees.
func NewBrick(nx, ny, nz int) *Connectivity {
	if nx < 1 || ny < 1 || nz < 1 {
		panic("connect: brick extents must be positive")
	}
	var embeds []embed
	for z := range nz {
		for y := range ny {
			for x := range nx {
				embeds = append(embeds, cellAt(int32(x), int32(y), int32(z)))
			}
		}
	}
	return build(octant.Dim3, embeds)
}

// NewStar returns the 2D connectivity of five trees: a center square
// with one petal on each side.
func NewStar() *Connectivity {
	return build(octant.Dim2, []embed{
		cellAt(0, 0, 0),
		cellAt(1, 0, 0),
		cellAt(-1, 0, 0),
		cellAt(0, 1, 0),
		cellAt(0, -1, 0),
	})
}

// NewRotCubes returns a 3D connectivity of six cubes in a bent slab
// where several trees are rotated against their neighbors, so the
// edge transforms exercise nontrivial axis permutations and flips.
func NewRotCubes() *Connectivity {
	return build(octant.Dim3, []embed{
		cellAt(0, 0, 0),
		// 90 degrees about z
		rotAt([3]int8{1, 0, 2}, [3]int8{1, -1, 1}, 1, 0, 0),
		// 90 degrees about x
		rotAt([3]int8{0, 2, 1}, [3]int8{1, 1, -1}, 0, 1, 0),
		// 180 degrees about x
		rotAt([3]int8{0, 1, 2}, [3]int8{1, -1, -1}, 1, 1, 0),
		// 90 degrees about y
		rotAt([3]int8{2, 1, 0}, [3]int8{1, 1, -1}, 0, 0, 1),
		// 120 degrees about the main diagonal
		rotAt([3]int8{1, 2, 0}, [3]int8{1, 1, 1}, 1, 0, 1),
	})
}
