package shard

// Reader is a cheaply cloneable, share-safe capability for point lookups
// against a Shard. Arbitrarily many Readers may exist concurrently; none of
// them ever block, and dropping one has no effect on the Shard.
//
// Reader holds no state of its own beyond the Shard pointer, so cloning it
// is a plain value copy. Go's garbage collector keeps the Shard alive for
// as long as any Reader (or Writer) still references it, even after the
// owning ShardMap entry is removed.
type Reader struct {
	shard *Shard
}

// NewReader returns a Reader bound to s.
func NewReader(s *Shard) Reader {
	return Reader{shard: s}
}

// Get performs a wait-free point lookup of key against whichever buffer is
// currently active. The returned value, if any, is a copy and shares no
// memory with the Shard's internal buffers.
func (r Reader) Get(key string) ([]byte, bool) {
	return r.shard.get(key)
}

// Clone returns an equivalent Reader. Because Reader carries no per-handle
// state, this is just a value copy, but it is exposed explicitly so callers
// have a name for this: the clone observes every
// write the original would.
func (r Reader) Clone() Reader {
	return r
}
