// Package shardkv is the CORE of a sharded in-memory key/value store: a
// registry of independently-swapping shards (package registry/shard) served
// by a fixed worker pool (package worker). Store is the single entry point
// that wires those two pieces together; placement, transport, and
// durability are layered on top of it by a caller, not by this package.
package shardkv

import (
	"github.com/clarkmcc/go-shardkv/config"
	"github.com/clarkmcc/go-shardkv/registry"
	"github.com/clarkmcc/go-shardkv/shard"
	"github.com/clarkmcc/go-shardkv/worker"
)

// Store owns a ShardMap and the worker pool dispatching requests against
// it.
type Store struct {
	shards *registry.ShardMap
	pool   *worker.Pool
}

// Open builds a Store from cfg: an empty ShardMap and a worker pool sized to
// cfg.WorkerCount. It fails only if cfg.WorkerCount is not positive.
func Open(cfg config.Config) (*Store, error) {
	shards := registry.New()
	pool, err := worker.NewPool(cfg.WorkerCount, cfg.Backlog, shards)
	if err != nil {
		return nil, err
	}
	return &Store{shards: shards, pool: pool}, nil
}

// Close stops the worker pool, waiting for in-flight requests to complete.
// It does not touch the underlying shards; any Reader/Writer handles
// obtained earlier remain usable.
func (s *Store) Close() {
	s.pool.Close()
}

// AddShard registers a new, empty shard under id, for a placement
// controller handing this node a freshly-assigned shard.
func (s *Store) AddShard(id uint64) {
	s.shards.Insert(shard.New(id))
}

// ImportShards registers shards constructed from data (shard id -> snapshot
// of its key/value pairs), for a placement controller moving existing
// shards onto this node in bulk.
func (s *Store) ImportShards(data map[uint64]map[string][]byte, concurrency int) {
	s.shards.BulkImport(data, concurrency)
}

// RemoveShard drops id from this store. Handles obtained before the call
// remain valid.
func (s *Store) RemoveShard(id uint64) {
	s.shards.Remove(id)
}

// HasShard reports whether id is currently registered on this node.
func (s *Store) HasShard(id uint64) bool {
	return s.shards.Has(id)
}

// Get dispatches a Get for key on shardID and blocks for the result.
func (s *Store) Get(shardID uint64, key string) ([]byte, bool, error) {
	req := worker.NewRequest(worker.OpGet, shardID, key, nil)
	if err := s.pool.Submit(req); err != nil {
		return nil, false, err
	}
	res := <-req.Reply
	return res.Value, res.Found, res.Err
}

// Put dispatches a Put of value for key on shardID and blocks for the
// result, returning the prior value if the key was already present.
func (s *Store) Put(shardID uint64, key string, value []byte) ([]byte, bool, error) {
	req := worker.NewRequest(worker.OpPut, shardID, key, value)
	if err := s.pool.Submit(req); err != nil {
		return nil, false, err
	}
	res := <-req.Reply
	return res.Value, res.Found, res.Err
}

// Delete dispatches a Delete for key on shardID and blocks for the result,
// returning the removed value if the key was present.
func (s *Store) Delete(shardID uint64, key string) ([]byte, bool, error) {
	req := worker.NewRequest(worker.OpDelete, shardID, key, nil)
	if err := s.pool.Submit(req); err != nil {
		return nil, false, err
	}
	res := <-req.Reply
	return res.Value, res.Found, res.Err
}
