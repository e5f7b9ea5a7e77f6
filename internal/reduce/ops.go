// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package reduce

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Max is the built-in elementwise maximum operator.
func Max(peer, own []byte, count int, dtype Datatype) error {
	return fold(peer, own, count, dtype, false)
}

// Sum is the built-in elementwise sum operator.
func Sum(peer, own []byte, count int, dtype Datatype) error {
	return fold(peer, own, count, dtype, true)
}

// fold applies max or sum over the little-endian encoded elements.
func fold(peer, own []byte, count int, dtype Datatype, sum bool) error {
	w := dtype.Size()
	if w == 0 {
		return fmt.Errorf("reduce: unsupported datatype %d", dtype)
	}
	if len(peer) < count*w || len(own) < count*w {
		return fmt.Errorf("reduce: operator buffers shorter than %d elements", count)
	}

	for i := range count {
		p := peer[i*w : (i+1)*w]
		o := own[i*w : (i+1)*w]

		switch dtype {
		case Int8:
			s, r := int8(p[0]), int8(o[0])
			if sum {
				o[0] = byte(r + s)
			} else if s > r {
				o[0] = p[0]
			}
		case Int16:
			s, r := int16(binary.LittleEndian.Uint16(p)), int16(binary.LittleEndian.Uint16(o))
			if sum {
				binary.LittleEndian.PutUint16(o, uint16(r+s))
			} else if s > r {
				copy(o, p)
			}
		case Uint16:
			s, r := binary.LittleEndian.Uint16(p), binary.LittleEndian.Uint16(o)
			if sum {
				binary.LittleEndian.PutUint16(o, r+s)
			} else if s > r {
				copy(o, p)
			}
		case Int32:
			s, r := int32(binary.LittleEndian.Uint32(p)), int32(binary.LittleEndian.Uint32(o))
			if sum {
				binary.LittleEndian.PutUint32(o, uint32(r+s))
			} else if s > r {
				copy(o, p)
			}
		case Uint32:
			s, r := binary.LittleEndian.Uint32(p), binary.LittleEndian.Uint32(o)
			if sum {
				binary.LittleEndian.PutUint32(o, r+s)
			} else if s > r {
				copy(o, p)
			}
		case Int64:
			s, r := int64(binary.LittleEndian.Uint64(p)), int64(binary.LittleEndian.Uint64(o))
			if sum {
				binary.LittleEndian.PutUint64(o, uint64(r+s))
			} else if s > r {
				copy(o, p)
			}
		case Uint64:
			s, r := binary.LittleEndian.Uint64(p), binary.LittleEndian.Uint64(o)
			if sum {
				binary.LittleEndian.PutUint64(o, r+s)
			} else if s > r {
				copy(o, p)
			}
		case Float32:
			s := math.Float32frombits(binary.LittleEndian.Uint32(p))
			r := math.Float32frombits(binary.LittleEndian.Uint32(o))
			if sum {
				binary.LittleEndian.PutUint32(o, math.Float32bits(r+s))
			} else if s > r {
				copy(o, p)
			}
		case Float64:
			s := math.Float64frombits(binary.LittleEndian.Uint64(p))
			r := math.Float64frombits(binary.LittleEndian.Uint64(o))
			if sum {
				binary.LittleEndian.PutUint64(o, math.Float64bits(r+s))
			} else if s > r {
				copy(o, p)
			}
		default:
			return fmt.Errorf("reduce: unsupported datatype %d", dtype)
		}
	}
	return nil
}

// EncodeInt64 and DecodeInt64 are the buffer codec helpers for the
// common single-counter collectives.
func EncodeInt64(vals ...int64) []byte {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
	}
	return buf
}

// DecodeInt64 reads count little-endian int64 values from buf.
func DecodeInt64(buf []byte, count int) []int64 {
	vals := make([]int64, count)
	for i := range vals {
		vals[i] = int64(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return vals
}
