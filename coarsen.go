// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package forest

import (
	"fmt"

	"github.com/gaissmai/forest/internal/octant"
)

// Coarsen runs the in-place coarsening sweep over every tree:
// complete sibling families accepted by coarsenFn are replaced by
// their parent, recursively when recursive is set. initFn, if
// non-nil, initializes each new parent's payload.
//
// The sweep walks the sorted octant array with a window of four
// indices. first..last is the already positioned prefix of candidate
// siblings, (last, rest) is the hole opened by prior coarsenings, and
// rest.. is the unexamined suffix shifted down as the window moves.
// Morton order makes a family occupy consecutive positions with the
// parent landing on the first child's slot, so the pass is O(N) per
// tree.
func (f *Forest) Coarsen(recursive bool, coarsenFn CoarsenFn, initFn InitFn) error {
	if coarsenFn == nil {
		return fmt.Errorf("forest coarsen: nil callback: %w", ErrPrecondition)
	}
	f.log.Info("into coarsen", "quadrants", f.GlobalNumQuadrants)

	children := f.dim.Children()
	c := make([]*Octant, children)
	vals := make([]Octant, children)
	var prevOffset int64

	for jt, tree := range f.trees {
		t := TreeID(jt)
		tq := tree.Quadrants

		f.log.Debug("into coarsen tree", "tree", jt, "quadrants", tq.ElemCount())
		removed := 0

		// Initialize the window.
		//   first   index of the first candidate child
		//   last    index of the last child before the hole
		//   before  number of candidates before the hole
		//   rest    index of the first child after the hole
		first, last := 0, 0
		before, rest := 1, 1

		incount := tq.ElemCount()
		for rest+children-1-before < incount {
			couldbegood := true
			for zz := range children {
				if zz < before {
					c[zz] = tq.MustIndex(first + zz)
					if zz != f.dim.ChildID(*c[zz]) {
						couldbegood = false
						break
					}
				} else {
					c[zz] = tq.MustIndex(rest + zz - before)
				}
			}
			if couldbegood {
				for zz := range children {
					vals[zz] = *c[zz]
				}
			}

			if couldbegood && f.dim.IsFamily(vals) && coarsenFn(t, vals) {
				// coarsen now
				for zz := range children {
					f.freeData(c[zz])
				}
				tree.QuadrantsPerLevel[vals[0].Level] -= int64(children)

				parent := octant.Parent(vals[0])
				if initFn != nil {
					initFn(t, &parent)
				}
				*c[0] = parent
				tree.QuadrantsPerLevel[parent.Level]++
				f.LocalNumQuadrants -= int64(children) - 1
				removed += children - 1

				rest += children - before
				if recursive {
					// rewind so the new parent may combine with the
					// earlier siblings of its own parent
					last = first
					cidz := f.dim.ChildID(*c[0])
					if cidz > first {
						first = 0
					} else {
						first -= cidz
					}
				} else {
					// don't coarsen again, move the counters and the hole
					if first != last || before != 1 {
						panic("forest coarsen: window skewed in non-recursive sweep")
					}
					if rest < incount {
						first++
						*tq.MustIndex(first) = *tq.MustIndex(rest)
						last = first
						rest++
					}
				}
			} else {
				// do nothing, just move the counters and the hole
				first++
				if first > last {
					if first != rest {
						*tq.MustIndex(first) = *tq.MustIndex(rest)
					}
					last = first
					rest++
				}
			}
			before = last - first + 1
		}

		// drain the remaining suffix into the tail and shrink
		first = last
		if first+1 < rest {
			for rest < incount {
				first++
				*tq.MustIndex(first) = *tq.MustIndex(rest)
				rest++
			}
			if err := tq.Resize(first + 1); err != nil {
				return err
			}
		}

		// recompute the level histogram summary
		maxlevel := int8(0)
		var numQuadrants int64
		for l, n := range tree.QuadrantsPerLevel {
			if n < 0 {
				panic("forest coarsen: negative level count")
			}
			numQuadrants += n
			if n > 0 {
				maxlevel = int8(l)
			}
		}
		tree.MaxLevel = maxlevel
		tree.QuadrantsOffset = prevOffset
		prevOffset += numQuadrants

		if numQuadrants != int64(tq.ElemCount()) || tq.ElemCount() != incount-removed {
			panic("forest coarsen: count mismatch after sweep")
		}

		f.log.Debug("done coarsen tree", "tree", jt, "quadrants", tq.ElemCount())
	}

	if err := f.updateGlobalCount(); err != nil {
		return err
	}
	f.log.Info("done coarsen", "quadrants", f.GlobalNumQuadrants)
	return nil
}

// CoarsenAll coarsens every family, recursively down to the roots.
func (f *Forest) CoarsenAll(initFn InitFn) error {
	return f.Coarsen(true, func(TreeID, []Octant) bool { return true }, initFn)
}
