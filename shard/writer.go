package shard

// Writer is the single logical mutator for a Shard. It carries no
// state of its own. The exclusion that makes "one writer per shard" true is
// Shard.writerLock, held for the duration of each Put/Delete call, so
// handing out multiple Writer values bound to the same Shard is harmless:
// they still serialize through the same lock.
type Writer struct {
	shard *Shard
}

// NewWriter returns a Writer bound to s.
func NewWriter(s *Shard) *Writer {
	return &Writer{shard: s}
}

// Put stores value at key, swapping, draining, and replaying per the
// write path, and returns the value key held immediately before the call.
func (w *Writer) Put(key string, value []byte) (prior []byte, hadPrior bool) {
	return w.shard.put(key, value)
}

// Delete removes key, returning the value it held, if any. Deleting an
// absent key is a no-op that returns (nil, false) but still performs the
// swap+drain cycle.
func (w *Writer) Delete(key string) (prior []byte, hadPrior bool) {
	return w.shard.delete(key)
}
