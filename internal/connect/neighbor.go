// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package connect

import (
	"fmt"

	"github.com/gaissmai/forest/internal/flex"
	"github.com/gaissmai/forest/internal/octant"
	"github.com/gaissmai/forest/internal/topo"
)

// FaceNeighborExtra returns the equal-size neighbor of q across face,
// together with the tree holding it: q's own tree when the neighbor
// stays inside the root, the peer tree after a frame transform when
// it crosses, or NoTree on a domain boundary.
func FaceNeighborExtra(q octant.Octant, t TreeID, face int, conn *Connectivity) (octant.Octant, TreeID, error) {
	temp := conn.dim.FaceNeighbor(q, face)
	if conn.dim.IsInsideRoot(temp) {
		return temp, t, nil
	}

	ft, err := conn.FaceTransformAt(t, face)
	if err != nil {
		return octant.Octant{}, NoTree, err
	}
	if ft.NTree == NoTree {
		return octant.Octant{}, NoTree, nil
	}
	return TransformFace(temp, ft), ft.NTree, nil
}

// EdgeNeighborExtra appends every (neighbor octant, neighbor tree)
// pair touching q across edge to the equal-length output arrays,
// which must be empty, resizable and exclusively owned.
//
// Three cases: the neighbor stays inside the root; it leaves across a
// single face, then the same octant is reached by two face hops with
// the second hop possibly crossing trees; or it leaves across the
// edge proper, then every diagonal tree from the edge transform list
// contributes one transformed octant.
func EdgeNeighborExtra(q octant.Octant, t TreeID, edge int,
	quads *flex.Array[octant.Octant], treeids *flex.Array[TreeID], conn *Connectivity,
) error {
	if conn.dim != octant.Dim3 {
		return fmt.Errorf("edge neighbor extra: 3D only: %w", flex.ErrPrecondition)
	}
	if !quads.IsResizable() || quads.ElemCount() != 0 ||
		!treeids.IsResizable() || treeids.ElemCount() != 0 {
		return fmt.Errorf("edge neighbor extra: output arrays must be empty and owned: %w",
			flex.ErrPrecondition)
	}

	temp := octant.EdgeNeighbor(q, edge)
	if octant.Dim3.IsInsideRoot(temp) {
		qp, err := quads.Push()
		if err != nil {
			return err
		}
		tp, err := treeids.Push()
		if err != nil {
			return err
		}
		*qp = temp
		*tp = t
		return nil
	}

	if !octant.IsOutsideEdge(temp) {
		// outside across one face only: reach the target by two face
		// hops, the second one possibly crossing into a peer tree
		qp, err := quads.Push()
		if err != nil {
			return err
		}
		tp, err := treeids.Push()
		if err != nil {
			return err
		}

		face := int(topo.EdgeFaces[edge][0])
		temp = octant.Dim3.FaceNeighbor(q, face)
		if !octant.Dim3.IsInsideRoot(temp) {
			face = int(topo.EdgeFaces[edge][1])
			temp = octant.Dim3.FaceNeighbor(q, face)
			if !octant.Dim3.IsInsideRoot(temp) {
				panic(fmt.Sprintf("connect: octant %v leaves the root across both faces of edge %d", q, edge))
			}
			face = int(topo.EdgeFaces[edge][0])
		} else {
			face = int(topo.EdgeFaces[edge][1])
		}

		*qp, *tp, err = FaceNeighborExtra(temp, t, face, conn)
		if err != nil {
			return err
		}
		if *tp == NoTree {
			// no such neighbor, unwind the tentative push
			if err := quads.Pop(); err != nil {
				return err
			}
			return treeids.Pop()
		}
		return nil
	}

	// strictly outside the edge: one transformed octant per diagonal tree
	var ei EdgeInfo
	if err := conn.FindEdgeTransform(t, edge, &ei); err != nil {
		return err
	}
	for i := range ei.Transforms {
		et := &ei.Transforms[i]

		qp, err := quads.Push()
		if err != nil {
			return err
		}
		tp, err := treeids.Push()
		if err != nil {
			return err
		}
		*qp = TransformEdge(temp, &ei, et, true)
		*tp = et.NTree
	}
	return nil
}
