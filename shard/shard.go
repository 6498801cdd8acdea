/*
Copyright (C) 2020 Print Tracker, LLC - All Rights Reserved

Unauthorized copying of this file, via any medium is strictly prohibited
as this source code is proprietary and confidential. Dissemination of this
information or reproduction of this material is strictly forbidden unless
prior written permission is obtained from Print Tracker, LLC.
*/

// Package shard implements a single key-space partition backed by two copies
// of a map[string][]byte. Readers always look up against the "active" copy
// and never block; writers mutate the "standby" copy, atomically swap which
// copy is active, then wait (drain) for any reader that observed the old
// active pointer to finish before replaying the write onto the now-standby
// copy. This trades memory (two copies of every key) for a read path with no
// locks and no allocation beyond the returned value.
package shard

import (
	"runtime"
	"sync"

	"go.uber.org/atomic"

	"github.com/clarkmcc/go-shardkv/shard/oplog"
)

// Shard is a single key-space partition with a dual-buffer, atomically
// swapped active copy and a writer-exclusive standby copy. The zero value is
// not usable; construct with New or WithData.
type Shard struct {
	id uint64

	// active is read by every Reader. Readers only ever load this pointer,
	// never mutate through it.
	active atomic.Pointer[map[string][]byte]

	// mode selects which of c0/c1 is the "current" in-flight-reader counter.
	// false selects c0, true selects c1. Flipped once per write, after the
	// active pointer has already been swapped.
	mode *atomic.Bool
	c0   *atomic.Uint64
	c1   *atomic.Uint64

	// writerLock serializes all mutating operations; exactly one writer per
	// shard.
	writerLock sync.Mutex

	// standby is owned exclusively by the writer and is only ever touched
	// while writerLock is held.
	standby map[string][]byte
}

// New creates an empty Shard identified by id, with two empty, independent
// buffers and both readers-in-flight counters at zero.
func New(id uint64) *Shard {
	active := make(map[string][]byte)
	s := &Shard{
		id:      id,
		mode:    atomic.NewBool(false),
		c0:      atomic.NewUint64(0),
		c1:      atomic.NewUint64(0),
		standby: make(map[string][]byte),
	}
	s.active.Store(&active)
	return s
}

// WithData creates a Shard pre-populated with data, for use by an external
// placement controller transferring a shard onto this node. data is deep
// copied into both buffers so that mutating the caller's map afterward (or a
// later write to the shard) cannot alias either buffer.
func WithData(id uint64, data map[string][]byte) *Shard {
	s := New(id)

	standby := make(map[string][]byte, len(data))
	for k, v := range data {
		standby[k] = cloneValue(v)
	}
	active := make(map[string][]byte, len(data))
	for k, v := range standby {
		active[k] = cloneValue(v)
	}

	s.standby = standby
	s.active.Store(&active)
	return s
}

// ID returns the shard's identifier.
func (s *Shard) ID() uint64 {
	return s.id
}

// Reader returns a new Reader bound to this Shard. Cheap to call repeatedly;
// every call returns an independent handle observing the same Shard.
func (s *Shard) Reader() Reader {
	return NewReader(s)
}

// Writer returns the Writer bound to this Shard. Every call returns a handle
// onto the same underlying writer lock, so concurrent callers still
// serialize correctly.
func (s *Shard) Writer() *Writer {
	return NewWriter(s)
}

// counter returns the in-flight-reader counter selected by mode.
func (s *Shard) counter(mode bool) *atomic.Uint64 {
	if mode {
		return s.c1
	}
	return s.c0
}

// get performs a wait-free point lookup against whichever buffer is
// currently active. It never blocks on the writer lock.
func (s *Shard) get(key string) ([]byte, bool) {
	m := s.mode.Load()
	c := s.counter(m)
	c.Inc()
	defer c.Dec()

	active := s.active.Load()
	v, ok := (*active)[key]
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// mutate is the shared body of put/delete: apply entry to standby, swap
// active/standby, drain readers that observed the pre-swap mode, then
// replay entry onto the newly-demoted standby so both buffers agree again
// It returns the value the key held immediately before the mutation.
func (s *Shard) mutate(entry oplog.Entry) (prior []byte, hadPrior bool) {
	s.writerLock.Lock()
	defer s.writerLock.Unlock()

	prior, hadPrior = s.standby[entry.Key()]
	if hadPrior {
		prior = cloneValue(prior)
	}

	oplog.Apply(entry, s.standby)

	prevMode := s.swapAndFlip()
	s.drain(prevMode)

	// s.standby now refers to the buffer that was active before the swap;
	// replay the same mutation there so it matches the new active copy.
	oplog.Apply(entry, s.standby)

	return prior, hadPrior
}

// swapAndFlip installs the mutated standby as the new active buffer, demotes
// the previous active buffer to standby, and flips mode. It returns the
// pre-flip mode value so the caller can drain the matching counter.
func (s *Shard) swapAndFlip() (prevMode bool) {
	oldActive := s.active.Load()
	newActive := s.standby
	s.active.Store(&newActive)
	s.standby = *oldActive

	prevMode = s.mode.Load()
	s.mode.Store(!prevMode)
	return prevMode
}

// drain spins, yielding the processor between observations, until no reader
// remains that incremented the counter selected by prevMode. Any reader
// still holding that counter loaded the active pointer before the swap and
// has not yet decremented; once this returns, no reader can observe the
// buffer that is about to be reused as standby.
func (s *Shard) drain(prevMode bool) {
	c := s.counter(prevMode)
	for c.Load() != 0 {
		runtime.Gosched()
	}
}

// put applies value at key, returning the value previously stored there, if
// any.
func (s *Shard) put(key string, value []byte) ([]byte, bool) {
	return s.mutate(oplog.Insert(key, cloneValue(value)))
}

// delete removes key, returning the value it held, if any. Deleting an
// absent key is a no-op that still performs the swap+drain cycle (accepted
// and returns (nil, false).
func (s *Shard) delete(key string) ([]byte, bool) {
	return s.mutate(oplog.Delete(key))
}

func cloneValue(v []byte) []byte {
	if v == nil {
		return nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out
}
