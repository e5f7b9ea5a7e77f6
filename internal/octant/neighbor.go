// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package octant

import "github.com/gaissmai/forest/internal/topo"

// FaceNeighbor returns the equal-size neighbor across face f: one
// octant length along axis f/2, sign from f's side bit. The result
// may lie outside the root.
func (d Dim) FaceNeighbor(q Octant, f int) Octant {
	assertf(0 <= f && f < d.Faces(), "face %d", f)
	assertf(d.IsValid(q), "face neighbor of invalid octant %v", q)

	h := Len(q.Level)
	if f&1 == 0 {
		h = -h
	}
	r := q
	r.Data = nil
	switch f / 2 {
	case 0:
		r.X += h
	case 1:
		r.Y += h
	default:
		r.Z += h
	}
	return r
}

// EdgeNeighbor returns the equal-size neighbor diagonally across edge
// (0..11), 3D only. The result may lie outside the root.
func EdgeNeighbor(q Octant, edge int) Octant {
	assertf(0 <= edge && edge < 12, "edge %d", edge)
	assertf(Dim3.IsValid(q), "edge neighbor of invalid octant %v", q)

	qh := Len(q.Level)
	a := Coord(2*(edge&0x01)-1) * qh
	b := Coord((edge&0x02)-1) * qh

	r := Octant{Level: q.Level}
	switch edge / 4 {
	case 0:
		r.X = q.X
		r.Y = q.Y + a
		r.Z = q.Z + b
	case 1:
		r.X = q.X + a
		r.Y = q.Y
		r.Z = q.Z + b
	default:
		r.X = q.X + a
		r.Y = q.Y + b
		r.Z = q.Z
	}
	return r
}

// IsOutsideEdge reports whether q lies beyond the root across an edge
// in the strict sense: exactly two coordinates out of range.
func IsOutsideEdge(q Octant) bool {
	outx := q.X < 0 || q.X >= RootLen
	outy := q.Y < 0 || q.Y >= RootLen
	outz := q.Z < 0 || q.Z >= RootLen

	n := 0
	for _, out := range [...]bool{outx, outy, outz} {
		if out {
			n++
		}
	}
	return n == 2
}

// IsOutsideEdgeExtra is IsOutsideEdge and, when true, additionally
// reports which root edge q lies across.
func IsOutsideEdgeExtra(q Octant) (edge int, ok bool) {
	assertf(q.Level <= QMaxLevel, "level %d", q.Level)

	xlo, xhi := q.X < 0, q.X >= RootLen
	ylo, yhi := q.Y < 0, q.Y >= RootLen
	zlo, zhi := q.Z < 0, q.Z >= RootLen

	outx := xlo || xhi
	outy := ylo || yhi
	outz := zlo || zhi

	n := 0
	for _, out := range [...]bool{outx, outy, outz} {
		if out {
			n++
		}
	}
	if n != 2 {
		return 0, false
	}

	// combine the two active axes and their sides into the edge id
	switch {
	case !outx:
		edge = 0 + 2*b2i(zhi) + b2i(yhi)
	case !outy:
		edge = 4 + 2*b2i(zhi) + b2i(xhi)
	default:
		edge = 8 + 2*b2i(yhi) + b2i(xhi)
	}
	assertf(TouchesEdge(q, edge, false), "octant %v misses edge %d", q, edge)
	return edge, true
}

// IsOutsideCorner reports whether q lies beyond the root across a
// corner: all three coordinates out of range.
func IsOutsideCorner(q Octant) bool {
	return (q.X < 0 || q.X >= RootLen) &&
		(q.Y < 0 || q.Y >= RootLen) &&
		(q.Z < 0 || q.Z >= RootLen)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// TouchesEdge reports whether q has a face or corner on the given
// root edge. With inside set, q is taken as a valid octant (or inner
// node) within the root; otherwise as a virtual octant (or boundary
// node) on the outside.
func TouchesEdge(q Octant, edge int, inside bool) bool {
	assertf(0 <= edge && edge < 12, "edge %d", edge)

	var lower, upper Coord
	switch {
	case q.Level == MaxLevel:
		assertf(Dim3.IsNode(q, inside), "touches edge of non-node %v", q)
		lower = 0
		upper = RootLen
		if inside {
			upper--
		}
	case !inside:
		assertf(Dim3.IsExtended(q), "touches edge of non-extended octant %v", q)
		lower = -Len(q.Level)
		upper = RootLen
	default:
		assertf(Dim3.IsValid(q), "touches edge of invalid octant %v", q)
		lower = 0
		upper = LastOffset(q.Level)
	}

	contact := [6]bool{
		q.X == lower, q.X == upper,
		q.Y == lower, q.Y == upper,
		q.Z == lower, q.Z == upper,
	}

	axis := edge / 4
	incount := 0
	if axis != 0 {
		side := edge % 2
		if contact[side] {
			incount++
		}
	}
	if axis != 1 {
		side := (edge / 2) % 2
		if axis == 0 {
			side = edge % 2
		}
		if contact[2+side] {
			incount++
		}
	}
	if axis != 2 {
		side := (edge / 2) % 2
		if contact[4+side] {
			incount++
		}
	}
	return incount == 2
}

// ShiftEdge returns the octant of q's size inside the root that
// touches the given root edge nearest to q: walk up through parents,
// stepping siblings toward the edge, until the contact pattern of the
// edge is hit, then clamp onto the root boundary.
func ShiftEdge(q Octant, edge int) Octant {
	assertf(Dim3.IsValid(q), "shift edge of invalid octant %v", q)
	assertf(0 <= edge && edge < 12, "edge %d", edge)

	var r Octant
	var step [3]int

	quad := q
	for {
		th := LastOffset(quad.Level)
		cid := Dim3.ChildID(quad)

		var sid int
		switch edge / 4 {
		case 0:
			sid = 2*edge + (cid & 0x01)
			step = [3]int{0, 2*(edge&0x01) - 1, (edge & 0x02) - 1}
		case 1:
			sid = 2*(edge&0x02) + (edge & 0x01) + (cid & 0x02)
			step = [3]int{2*(edge&0x01) - 1, 0, (edge & 0x02) - 1}
		default:
			sid = edge - 8 + (cid & 0x04)
			step = [3]int{2*(edge&0x01) - 1, (edge & 0x02) - 1, 0}
		}
		r = Dim3.Sibling(quad, sid)

		var outface uint8
		if step[0] != 0 {
			if r.X <= 0 {
				outface |= 0x01
			}
			if r.X >= th {
				outface |= 0x02
			}
		}
		if step[1] != 0 {
			if r.Y <= 0 {
				outface |= 0x04
			}
			if r.Y >= th {
				outface |= 0x08
			}
		}
		if step[2] != 0 {
			if r.Z <= 0 {
				outface |= 0x10
			}
			if r.Z >= th {
				outface |= 0x20
			}
		}
		if outface == topo.EdgeContact[edge] {
			break
		}

		quad = Parent(quad)
		h := Len(quad.Level)
		quad.X += Coord(step[0]) * h
		quad.Y += Coord(step[1]) * h
		quad.Z += Coord(step[2]) * h
		assertf(Dim3.IsExtended(quad), "shift edge left the extended range at %v", quad)
	}

	th := LastOffset(r.Level)
	if step[0] != 0 {
		if r.X < 0 {
			r.X = 0
		}
		if r.X >= RootLen {
			r.X = th
		}
	}
	if step[1] != 0 {
		if r.Y < 0 {
			r.Y = 0
		}
		if r.Y >= RootLen {
			r.Y = th
		}
	}
	if step[2] != 0 {
		if r.Z < 0 {
			r.Z = 0
		}
		if r.Z >= RootLen {
			r.Z = th
		}
	}
	assertf(TouchesEdge(r, edge, true), "shifted octant %v misses edge %d", r, edge)
	return r
}
