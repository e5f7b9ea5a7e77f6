// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package octant

import (
	"math/rand/v2"
	"testing"
)

// randomValid returns a valid octant at the given level.
func randomValid(prng *rand.Rand, d Dim, level int8) Octant {
	h := Len(level)
	cells := int32(RootLen / h)
	q := Octant{
		X:     Coord(prng.Int32N(cells)) * h,
		Y:     Coord(prng.Int32N(cells)) * h,
		Level: level,
	}
	if d == Dim3 {
		q.Z = Coord(prng.Int32N(cells)) * h
	}
	return q
}

func TestConstants(t *testing.T) {
	t.Parallel()

	if RootLen != 1<<MaxLevel {
		t.Errorf("RootLen, expected %d, got %d", 1<<MaxLevel, RootLen)
	}
	if Len(0) != RootLen {
		t.Errorf("Len(0), expected %d, got %d", RootLen, Len(0))
	}
	if Len(QMaxLevel) != 2 {
		t.Errorf("Len(QMaxLevel), expected 2, got %d", Len(QMaxLevel))
	}
	if LastOffset(0) != 0 {
		t.Errorf("LastOffset(0), expected 0, got %d", LastOffset(0))
	}
}

func TestDimCounts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dim      Dim
		children int
		faces    int
		edges    int
	}{
		{Dim2, 4, 4, 0},
		{Dim3, 8, 6, 12},
	}
	for _, tc := range tests {
		if c := tc.dim.Children(); c != tc.children {
			t.Errorf("Children(%d), expected %d, got %d", tc.dim, tc.children, c)
		}
		if f := tc.dim.Faces(); f != tc.faces {
			t.Errorf("Faces(%d), expected %d, got %d", tc.dim, tc.faces, f)
		}
		if e := tc.dim.Edges(); e != tc.edges {
			t.Errorf("Edges(%d), expected %d, got %d", tc.dim, tc.edges, e)
		}
	}
}

func TestChildParentSiblingInverse(t *testing.T) {
	t.Parallel()
	prng := rand.New(rand.NewPCG(42, 42))

	for _, d := range []Dim{Dim2, Dim3} {
		for range 1_000 {
			level := int8(1 + prng.IntN(QMaxLevel))
			q := randomValid(prng, d, level)

			p := Parent(q)
			if p.Level != level-1 {
				t.Fatalf("Parent level, expected %d, got %d", level-1, p.Level)
			}
			if !d.IsValid(p) {
				t.Fatalf("Parent of %v is invalid: %v", q, p)
			}

			cid := d.ChildID(q)
			if back := d.Child(p, cid); !Equal(back, q) {
				t.Fatalf("Child(Parent(q), ChildID(q)), expected %v, got %v", q, back)
			}
			if back := d.Sibling(q, cid); !Equal(back, q) {
				t.Fatalf("Sibling(q, ChildID(q)), expected %v, got %v", q, back)
			}
		}
	}
}

func TestChildrenAreFamily(t *testing.T) {
	t.Parallel()
	prng := rand.New(rand.NewPCG(7, 7))

	for _, d := range []Dim{Dim2, Dim3} {
		for range 1_000 {
			level := int8(prng.IntN(QMaxLevel))
			p := randomValid(prng, d, level)

			qs := make([]Octant, d.Children())
			for cid := range qs {
				qs[cid] = d.Child(p, cid)
				if got := d.ChildID(qs[cid]); got != cid {
					t.Fatalf("ChildID of child %d, got %d", cid, got)
				}
			}
			if !d.IsFamily(qs) {
				t.Fatalf("children of %v are no family", p)
			}

			// drop one sibling, no family anymore
			if d.IsFamily(append([]Octant{qs[1]}, qs[1:]...)) {
				t.Fatalf("duplicated sibling accepted as family")
			}
		}
	}
}

func TestIsFamilyRejects(t *testing.T) {
	t.Parallel()

	d := Dim3
	p := Octant{Level: 2, X: 0, Y: 0, Z: 0}
	qs := make([]Octant, d.Children())
	for cid := range qs {
		qs[cid] = d.Child(p, cid)
	}

	// roots are no family
	roots := make([]Octant, d.Children())
	if d.IsFamily(roots) {
		t.Errorf("level 0 octants accepted as family")
	}

	// mixed levels are no family
	mixed := append([]Octant{}, qs...)
	mixed[3] = d.Child(mixed[3], 0)
	if d.IsFamily(mixed) {
		t.Errorf("mixed levels accepted as family")
	}

	// shifted pattern is no family
	shifted := append([]Octant{}, qs...)
	for i := range shifted {
		shifted[i].X += Len(shifted[i].Level)
	}
	if d.IsFamily(shifted) {
		t.Errorf("shifted children accepted as family")
	}
}

func TestValidityPredicates(t *testing.T) {
	t.Parallel()

	h := Len(3)
	tests := []struct {
		name     string
		dim      Dim
		q        Octant
		valid    bool
		extended bool
	}{
		{"root", Dim3, Octant{}, true, true},
		{"last offset", Dim3, Octant{X: LastOffset(3), Y: LastOffset(3), Z: LastOffset(3), Level: 3}, true, true},
		{"unaligned", Dim3, Octant{X: 1, Level: 3}, false, false},
		{"negative inside", Dim3, Octant{X: -h, Level: 3}, false, true},
		{"at root len", Dim3, Octant{X: RootLen, Level: 3}, false, true},
		{"too far out", Dim3, Octant{X: -2 * h, Level: 3}, false, false},
		{"level too deep", Dim3, Octant{Level: QMaxLevel + 1}, false, false},
		{"2d with z", Dim2, Octant{Z: h, Level: 3}, false, false},
		{"2d plain", Dim2, Octant{X: h, Y: 2 * h, Level: 3}, true, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.dim.IsValid(tc.q); got != tc.valid {
				t.Errorf("IsValid, expected %v, got %v", tc.valid, got)
			}
			if got := tc.dim.IsExtended(tc.q); got != tc.extended {
				t.Errorf("IsExtended, expected %v, got %v", tc.extended, got)
			}
		})
	}
}

func TestIsNode(t *testing.T) {
	t.Parallel()

	inside := Octant{X: RootLen - 1, Y: 0, Z: 5, Level: MaxLevel}
	if !Dim3.IsNode(inside, true) {
		t.Errorf("inner node not recognized")
	}
	boundary := Octant{X: RootLen, Y: 0, Z: 0, Level: MaxLevel}
	if Dim3.IsNode(boundary, true) {
		t.Errorf("boundary point accepted as inner node")
	}
	if !Dim3.IsNode(boundary, false) {
		t.Errorf("boundary node not recognized")
	}
	if Dim3.IsNode(Octant{Level: QMaxLevel}, false) {
		t.Errorf("octant accepted as node")
	}
}

func TestCompareMortonOrder(t *testing.T) {
	t.Parallel()

	d := Dim3
	p := Octant{Level: 5, X: Len(5) * 4, Y: Len(5) * 2, Z: Len(5) * 6}

	// children sort in child id order, parent before first child
	prev := p
	for cid := range d.Children() {
		c := d.Child(p, cid)
		if Compare(prev, c) >= 0 {
			t.Fatalf("Compare(%v, %v) not ascending", prev, c)
		}
		prev = c
	}

	// z outranks y outranks x at equal bit positions
	h := Len(1)
	a := Octant{X: h, Level: 1}
	b := Octant{Y: h, Level: 1}
	c := Octant{Z: h, Level: 1}
	if Compare(a, b) >= 0 || Compare(b, c) >= 0 {
		t.Errorf("axis significance violated")
	}

	if Compare(p, p) != 0 {
		t.Errorf("Compare(q, q), expected 0")
	}
}
