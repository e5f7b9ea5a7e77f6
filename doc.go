// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package forest manages collections of quadtrees (2D) and octrees
// (3D) over a coarse connectivity of root trees, as used by adaptive
// mesh refinement applications.
//
// The package provides:
//
//   - an integer-coordinate octant algebra with child/parent/sibling
//     relations, family recognition and Morton ordering
//   - face and edge neighbor queries, including across tree
//     boundaries of the connectivity via frame transforms
//   - a refcounted, growable, typed array with a generic multi-way
//     split, the storage primitive of the per-tree octant lists
//   - adaptive refinement and the in-place coarsening sweep over
//     sorted per-tree octant arrays
//   - a binomial-tree reduce/allreduce with pluggable operators over
//     a message-passing group abstraction
//
// All coordinates are integers; there is no floating-point geometry
// anywhere. A Forest is owned by one goroutine at a time; callers
// synchronize externally.
package forest
