// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package flex

import "fmt"

// Split computes the type boundaries of a, which must be sorted
// non-decreasingly by typeFn with values in [0, numTypes). offsets is
// resized to numTypes+1 entries where offsets[i] becomes the unique k
// such that typeFn(a[j]) < i for all j < k and typeFn(a[j]) >= i for
// all j >= k; offsets[0] = 0 and offsets[numTypes] = a.ElemCount().
//
// The search keeps two watermarks per unsettled type: low, below which
// every element is known to be of a smaller type, and high, the
// current trial value of offsets[step]. Each probe of the midpoint
// either raises low or lowers offsets[step..type] at once, so the
// whole sweep costs O(numTypes + N log(N/numTypes)) probes.
func Split[T any](a *Array[T], offsets *Array[int], numTypes int, typeFn func(*T) int) error {
	if numTypes < 0 {
		return fmt.Errorf("array split: %w", ErrPrecondition)
	}
	if err := offsets.Resize(numTypes + 1); err != nil {
		return err
	}
	if !a.IsSetup() {
		return fmt.Errorf("array split: %w", ErrPrecondition)
	}
	count := a.ElemCount()

	/* Initializing offsets[0] = 0, offsets[i] = count for i > 0,
	 * low = 0, and step = 1 makes the invariants trivially true:
	 *  1) offsets[i] is final for i < step and at most low
	 *  2) low is a lower bound for offsets[i], i >= step
	 *  3) every offsets[i] is an upper bound for its final value
	 *  4) every index below low has type < step
	 *  5) every index at or above offsets[i] has type >= i
	 *  6) offsets is non-decreasing
	 */
	*offsets.MustIndex(0) = 0
	for zi := 1; zi <= numTypes; zi++ {
		*offsets.MustIndex(zi) = count
	}

	if count == 0 || numTypes <= 1 {
		return nil
	}

	low := 0
	high := count // high == offsets[step]
	step := 1
	for {
		guess := low + (high-low)/2 // low <= guess < high
		typ := typeFn(a.MustIndex(guess))
		if typ >= numTypes || typ < 0 {
			return fmt.Errorf("array split: type %d out of range: %w", typ, ErrPrecondition)
		}
		if typ < step {
			// invariant 4 permits raising low past guess
			low = guess + 1
		} else {
			// invariant 5 permits lowering offsets[step..typ] to guess
			for zi := step; zi <= typ; zi++ {
				*offsets.MustIndex(zi) = guess
			}
			high = guess
		}
		// once the watermarks meet, offsets[step] is final
		for low == high {
			step++
			high = *offsets.MustIndex(step)
			if step == numTypes {
				return nil
			}
		}
	}
}
