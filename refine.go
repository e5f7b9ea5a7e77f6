// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package forest

import (
	"github.com/gaissmai/forest/internal/flex"
)

// Refine replaces every octant accepted by refineFn with its
// children, recursively re-examining the children when recursive is
// set. Morton order is preserved by construction: the children of an
// octant occupy its contiguous Morton range, first child on the
// parent's position. initFn, if non-nil, initializes each new child's
// payload.
func (f *Forest) Refine(recursive bool, refineFn RefineFn, initFn InitFn) error {
	f.log.Info("into refine", "quadrants", f.GlobalNumQuadrants)

	children := f.dim.Children()
	var prevOffset int64

	for jt, tree := range f.trees {
		t := TreeID(jt)
		tq := tree.Quadrants

		out, err := flex.New[Octant](f.aator)
		if err != nil {
			return err
		}
		if err := out.SetElemAlloc(tq.ElemCount()); err != nil {
			return err
		}
		if err := out.Setup(); err != nil {
			return err
		}

		// depth-first worklist keeps the output in Morton order
		var stack []Octant
		for i := range tq.ElemCount() {
			stack = append(stack, *tq.MustIndex(i))

			for len(stack) > 0 {
				q := stack[len(stack)-1]
				stack = stack[:len(stack)-1]

				if q.Level < QMaxLevel && refineFn(t, q) {
					f.freeData(&q)
					f.LocalNumQuadrants += int64(children) - 1
					tree.QuadrantsPerLevel[q.Level]--
					tree.QuadrantsPerLevel[q.Level+1] += int64(children)

					if recursive {
						// push in reverse, the stack pops child 0 first
						for cid := children - 1; cid >= 0; cid-- {
							c := f.dim.Child(q, cid)
							if initFn != nil {
								initFn(t, &c)
							}
							stack = append(stack, c)
						}
						continue
					}
					for cid := range children {
						c := f.dim.Child(q, cid)
						if initFn != nil {
							initFn(t, &c)
						}
						qp, err := out.Push()
						if err != nil {
							return err
						}
						*qp = c
					}
					continue
				}

				qp, err := out.Push()
				if err != nil {
					return err
				}
				*qp = q
			}
		}

		if err := tq.Destroy(); err != nil {
			return err
		}
		tree.Quadrants = out

		tree.MaxLevel = 0
		for l, n := range tree.QuadrantsPerLevel {
			if n > 0 {
				tree.MaxLevel = int8(l)
			}
		}
		tree.QuadrantsOffset = prevOffset
		prevOffset += int64(out.ElemCount())
	}

	if err := f.updateGlobalCount(); err != nil {
		return err
	}
	f.log.Info("done refine", "quadrants", f.GlobalNumQuadrants)
	return nil
}

// RefineUniform refines every octant up to the given level.
func (f *Forest) RefineUniform(level int8, initFn InitFn) error {
	return f.Refine(true, func(_ TreeID, q Octant) bool {
		return q.Level < level
	}, initFn)
}
