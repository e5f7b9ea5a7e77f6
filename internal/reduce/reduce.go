// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package reduce implements a binomial-tree reduction and
// all-reduction with a pluggable elementwise operator over a
// message-passing process group.
//
// The virtual reduction tree is renumbered by a biased rank layout so
// that an arbitrary target rank sits at the root; allreduce is the
// target-0 reduction followed by sending the result back down the
// same tree. Every rank follows the same recursion schedule, so the
// collective cannot deadlock as long as the group size is constant.
package reduce

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrProtocol wraps transport failures surfaced by the group.
var ErrProtocol = errors.New("protocol failure")

// Datatype selects the element type of a reduction buffer.
type Datatype int

// The closed set of supported element types.
const (
	Int8 Datatype = iota
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
)

// Size returns the encoded byte width of one element.
func (d Datatype) Size() int {
	switch d {
	case Int8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	}
	return 0
}

// Op folds count elements of peer into own in place, peer on the
// left. An unsupported datatype is an error.
type Op func(peer, own []byte, count int, dtype Datatype) error

// Comm is the process group collaborator: point-to-point byte
// messages between ranks 0..Size-1.
type Comm interface {
	Rank() int
	Size() int
	Send(to int, buf []byte) error
	Recv(from int, buf []byte) error
}

// Reduce folds the sendbufs of all ranks into recvbuf on the target
// rank; the recvbufs of the other ranks hold intermediate values.
func Reduce(sendbuf, recvbuf []byte, count int, dtype Datatype, op Op, target int, comm Comm) error {
	if target < 0 {
		return fmt.Errorf("reduce requires a non-negative target rank")
	}
	return dispatch(sendbuf, recvbuf, count, dtype, op, target, comm)
}

// Allreduce folds the sendbufs of all ranks into every rank's recvbuf.
func Allreduce(sendbuf, recvbuf []byte, count int, dtype Datatype, op Op, comm Comm) error {
	return dispatch(sendbuf, recvbuf, count, dtype, op, -1, comm)
}

func dispatch(sendbuf, recvbuf []byte, count int, dtype Datatype, op Op, target int, comm Comm) error {
	if count < 0 || dtype.Size() == 0 || op == nil {
		return fmt.Errorf("reduce: bad count, datatype or operator")
	}
	datasize := count * dtype.Size()
	if len(sendbuf) < datasize || len(recvbuf) < datasize {
		return fmt.Errorf("reduce: buffers shorter than %d bytes", datasize)
	}
	copy(recvbuf[:datasize], sendbuf[:datasize])

	size := comm.Size()
	if target >= size {
		return fmt.Errorf("reduce: target %d out of group of %d", target, size)
	}

	maxlevel := bits.Len(uint(size - 1))
	return recursive(comm, recvbuf[:datasize], count, dtype, size, target,
		maxlevel, maxlevel, comm.Rank(), op)
}

// bias renumbers the node (level, branch) of the virtual tree so that
// the target rank is the survivor on every level: the high bits come
// from the branch, the low bits from the target.
func bias(maxlevel, level, branch, target int) int {
	shift := maxlevel - level
	return branch<<shift | target&(1<<shift-1)
}

func recursive(comm Comm, data []byte, count int, dtype Datatype,
	size, target, maxlevel, level, branch int, op Op,
) error {
	origTarget := target
	doall := false
	if target == -1 {
		doall = true
		target = 0
	}

	if level == 0 {
		// result is in data
		return nil
	}

	myrank := bias(maxlevel, level, branch, target)
	peer := bias(maxlevel, level, branch^0x01, target)
	higher := bias(maxlevel, level-1, branch/2, target)

	if myrank == higher {
		if peer < size {
			peerdata := make([]byte, len(data))
			if err := comm.Recv(peer, peerdata); err != nil {
				return fmt.Errorf("reduce recv from %d: %w", peer, err)
			}
			if err := op(peerdata, data, count, dtype); err != nil {
				return err
			}
		}

		if err := recursive(comm, data, count, dtype, size, origTarget,
			maxlevel, level-1, branch/2, op); err != nil {
			return err
		}

		if doall && peer < size {
			// send the finished result back down
			if err := comm.Send(peer, data); err != nil {
				return fmt.Errorf("reduce send to %d: %w", peer, err)
			}
		}
		return nil
	}

	if peer < size {
		if err := comm.Send(peer, data); err != nil {
			return fmt.Errorf("reduce send to %d: %w", peer, err)
		}
		if doall {
			if err := comm.Recv(peer, data); err != nil {
				return fmt.Errorf("reduce recv from %d: %w", peer, err)
			}
		}
	}
	return nil
}
