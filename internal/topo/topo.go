// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package topo holds the static topology tables of the octant: which
// faces, edges and corners touch each other.
//
// Numbering: faces are 2*axis + side, edges come in three groups of
// four parallel to the x, y and z axis, each group ordered by the two
// perpendicular sides (lower axis first), and corners are the child
// ids of the octant's vertices.
//
// The tables are package-level constants in all but the keyword; they
// are never written after initialization.
package topo

// EdgeFaces maps each edge to its two adjacent faces, lower axis first.
var EdgeFaces = [12][2]int8{
	{2, 4}, {3, 4}, {2, 5}, {3, 5},
	{0, 4}, {1, 4}, {0, 5}, {1, 5},
	{0, 2}, {1, 2}, {0, 3}, {1, 3},
}

// EdgeCorners maps each edge to its two endpoint corners, in edge
// direction.
var EdgeCorners = [12][2]int8{
	{0, 1}, {2, 3}, {4, 5}, {6, 7},
	{0, 2}, {1, 3}, {4, 6}, {5, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// FaceEdges maps each face to its four surrounding edges.
var FaceEdges = [6][4]int8{
	{4, 6, 8, 10}, {5, 7, 9, 11},
	{0, 2, 8, 9}, {1, 3, 10, 11},
	{0, 1, 4, 5}, {2, 3, 6, 7},
}

// FaceCorners maps each face to its four corners in z-order.
var FaceCorners = [6][4]int8{
	{0, 2, 4, 6}, {1, 3, 5, 7},
	{0, 1, 4, 5}, {2, 3, 6, 7},
	{0, 1, 2, 3}, {4, 5, 6, 7},
}

// CornerFaces maps each corner to its three adjacent faces, by axis.
var CornerFaces = [8][3]int8{
	{0, 2, 4}, {1, 2, 4}, {0, 3, 4}, {1, 3, 4},
	{0, 2, 5}, {1, 2, 5}, {0, 3, 5}, {1, 3, 5},
}

// CornerEdges maps each corner to its three adjacent edges, by axis.
var CornerEdges = [8][3]int8{
	{0, 4, 8}, {0, 5, 9}, {1, 4, 10}, {1, 5, 11},
	{2, 6, 8}, {2, 7, 9}, {3, 6, 10}, {3, 7, 11},
}

// EdgeContact encodes, per edge, the two face-contact bits an octant
// must hit for its sibling walk to stop on that edge: bits 0x01/0x02
// are the lower/upper x faces, 0x04/0x08 y, 0x10/0x20 z.
var EdgeContact = [12]uint8{
	0x14, 0x18, 0x24, 0x28,
	0x11, 0x12, 0x21, 0x22,
	0x05, 0x06, 0x09, 0x0a,
}
