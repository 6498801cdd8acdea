// Package registry implements ShardMap, the registry from shard identifier
// to Shard instances. It lends out Reader and Writer handles rather
// than raw borrows into its internal table, so a handle obtained before a
// Remove stays valid. The underlying Shard is kept alive by Go's garbage
// collector for as long as any handle still references it, the same
// guarantee the original's Arc<Mutex<Writer>> gave through reference
// counting.
package registry

import (
	"log/slog"
	"sync"

	"github.com/alitto/pond/v2"

	"github.com/clarkmcc/go-shardkv/shard"
)

// ShardMap owns a set of Shards, keyed by shard id, under a single-writer /
// many-reader lock so lookups run in parallel and the rare controller
// operations (Insert/Remove) serialize.
type ShardMap struct {
	mu     sync.RWMutex
	shards map[uint64]*shard.Shard
	log    *slog.Logger
}

// New creates an empty ShardMap.
func New() *ShardMap {
	return &ShardMap{
		shards: make(map[uint64]*shard.Shard),
		log:    slog.Default().With("component", "registry"),
	}
}

// Insert places s under its own id, overwriting any existing entry for that
// id. Concurrent Insert calls for the same id are a placement-controller
// concern; this registry simply lets the last writer win (replace-and-drop
// the loser).
func (m *ShardMap) Insert(s *shard.Shard) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shards[s.ID()] = s
	m.log.Info("shard inserted", "shard_id", s.ID())
}

// Remove drops the shard with the given id. Readers and Writers obtained
// before the call remain valid; they simply no longer have an entry in this
// map pointing at the same Shard.
func (m *ShardMap) Remove(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.shards, id)
	m.log.Info("shard removed", "shard_id", id)
}

// Reader looks up the shard with the given id and returns a Reader bound to
// it, or false if no such shard is registered.
func (m *ShardMap) Reader(id uint64) (shard.Reader, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.shards[id]
	if !ok {
		return shard.Reader{}, false
	}
	return s.Reader(), true
}

// Writer looks up the shard with the given id and returns its Writer, or
// false if no such shard is registered.
func (m *ShardMap) Writer(id uint64) (*shard.Writer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.shards[id]
	if !ok {
		return nil, false
	}
	return s.Writer(), true
}

// Has reports whether id is currently registered.
func (m *ShardMap) Has(id uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.shards[id]
	return ok
}

// BulkImport constructs one Shard per entry in data (id -> key/value set)
// and inserts all of them, for a placement controller moving many shards
// onto this node at once. Construction (which deep-copies every value into
// both buffers, per WithData) is parallelized across a bounded pond pool
// instead of sequentially, since a rebalance can move dozens of shards at
// once and each one's data is independent of the others.
func (m *ShardMap) BulkImport(data map[uint64]map[string][]byte, concurrency int) {
	if concurrency <= 0 {
		concurrency = 1
	}
	pool := pond.NewPool(concurrency)
	defer pool.StopAndWait()

	tasks := make([]pond.Task, 0, len(data))
	for id, kv := range data {
		id, kv := id, kv
		tasks = append(tasks, pool.Submit(func() {
			s := shard.WithData(id, kv)
			m.Insert(s)
		}))
	}
	for _, task := range tasks {
		_ = task.Wait()
	}

	m.log.Info("bulk import complete", "shards", len(data), "concurrency", concurrency)
}
