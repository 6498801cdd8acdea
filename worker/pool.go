// Package worker implements the request dispatcher: a bounded set of
// worker goroutines fed by a single shared request channel, each resolving
// its request's shard id through a registry.ShardMap and replying on a
// one-shot channel carried on the request itself.
//
// This is hand-rolled on goroutines and a native Go channel rather than
// built on a pool library (see DESIGN.md) because the contract here is
// the channel itself: a shared multi-producer queue, a fixed number of
// long-lived consumers, and an explicit per-worker state machine, all
// things a higher-level pool abstraction would hide rather than expose.
package worker

import (
	"fmt"
	"log/slog"
	"sync"

	"go.uber.org/atomic"
	"github.com/google/uuid"

	"github.com/clarkmcc/go-shardkv/kverrors"
	"github.com/clarkmcc/go-shardkv/registry"
)

// workerName gives worker idx a log-friendly name. Go goroutines have no
// OS-level name of their own, so this attribute is how a worker identifies
// itself in a log line.
func workerName(idx int) string {
	return fmt.Sprintf("DB-Thread-%d", idx)
}

// Op identifies the kind of operation a Request carries.
type Op uint8

const (
	OpGet Op = iota
	OpPut
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpGet:
		return "get"
	case OpPut:
		return "put"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Request is one of the three operations the CORE exposes to the transport
// boundary: Get, Put, or Delete, tagged with the shard it targets and
// carrying its own one-shot reply channel. Reply must have capacity at
// least 1 so a worker's send never blocks on a caller that has stopped
// listening.
type Request struct {
	ID      string
	Op      Op
	ShardID uint64
	Key     string
	Value   []byte
	Reply   chan Result
}

// NewRequest builds a Request with a fresh correlation id and a reply
// channel of capacity 1.
func NewRequest(op Op, shardID uint64, key string, value []byte) Request {
	return Request{
		ID:      uuid.NewString(),
		Op:      op,
		ShardID: shardID,
		Key:     key,
		Value:   value,
		Reply:   make(chan Result, 1),
	}
}

// Result is the outcome of a dispatched Request. Get populates Value/Found
// on success; Put/Delete populate Value/Found with the prior value, if any
// present. Err is non-nil for UnknownShard, NotFound, or Internal failures.
type Result struct {
	Value []byte
	Found bool
	Err   error
}

// State is a worker's position in the per-worker state machine:
// Idle -> Dequeuing -> Dispatching -> Executing -> Replying -> Idle, with a
// terminal Exited state reached from Dequeuing when the request channel is
// closed.
type State uint32

const (
	StateIdle State = iota
	StateDequeuing
	StateDispatching
	StateExecuting
	StateReplying
	StateExited
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDequeuing:
		return "dequeuing"
	case StateDispatching:
		return "dispatching"
	case StateExecuting:
		return "executing"
	case StateReplying:
		return "replying"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Pool is a fixed-size set of worker goroutines dispatching Requests against
// a registry.ShardMap.
type Pool struct {
	requests chan Request
	shards   *registry.ShardMap
	log      *slog.Logger

	wg     sync.WaitGroup
	states []*atomic.Uint32

	closeOnce sync.Once
	closed    atomic.Bool
}

// NewPool starts numWorkers worker goroutines reading from a shared request
// channel of the given backlog capacity. numWorkers must be at least 1: a
// pool of 0 threads is rejected outright rather than silently accepting
// requests nobody will ever service.
func NewPool(numWorkers, backlog int, shards *registry.ShardMap) (*Pool, error) {
	if numWorkers <= 0 {
		return nil, fmt.Errorf("worker pool requires at least one thread, got %d", numWorkers)
	}
	if backlog < 0 {
		backlog = 0
	}

	p := &Pool{
		requests: make(chan Request, backlog),
		shards:   shards,
		log:      slog.Default().With("component", "worker"),
		states:   make([]*atomic.Uint32, numWorkers),
	}

	for i := 0; i < numWorkers; i++ {
		p.states[i] = atomic.NewUint32(uint32(StateIdle))
		p.wg.Add(1)
		go p.run(i)
	}

	p.log.Info("worker pool started", "workers", numWorkers, "backlog", backlog)
	return p, nil
}

// State returns the current state of worker idx, for tests and
// observability. Panics if idx is out of range.
func (p *Pool) State(idx int) State {
	return State(p.states[idx].Load())
}

func (p *Pool) setState(idx int, s State) {
	p.states[idx].Store(uint32(s))
}

// Submit enqueues req for execution by the next free worker. It blocks if
// the backlog is full and no worker is immediately available, the same
// backpressure a bounded channel gives for free. It returns an error
// instead of enqueuing once the pool has been closed.
func (p *Pool) Submit(req Request) error {
	if p.closed.Load() {
		return fmt.Errorf("worker pool is closed")
	}
	p.requests <- req
	return nil
}

// Close stops accepting new work, drains whatever is already queued, and
// waits for every worker to exit. In-flight operations complete normally;
// only the channel is closed, so buffered requests are still delivered
// before each worker observes closure.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.requests)
	})
	p.wg.Wait()
	p.log.Info("worker pool stopped")
}

func (p *Pool) run(idx int) {
	defer p.wg.Done()
	for {
		p.setState(idx, StateDequeuing)
		req, ok := <-p.requests
		if !ok {
			p.setState(idx, StateExited)
			return
		}
		p.setState(idx, StateDispatching)
		p.handle(idx, req)
		p.setState(idx, StateIdle)
	}
}

func (p *Pool) handle(idx int, req Request) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("worker recovered from panic", "worker", workerName(idx), "request_id", req.ID, "shard_id", req.ShardID, "panic", r)
			p.reply(idx, req, Result{Err: kverrors.Internal(fmt.Errorf("panic: %v", r))})
		}
	}()

	p.setState(idx, StateExecuting)

	var res Result
	switch req.Op {
	case OpGet:
		res = p.executeGet(req)
	case OpPut:
		res = p.executePut(req)
	case OpDelete:
		res = p.executeDelete(req)
	default:
		res = Result{Err: kverrors.Internal(fmt.Errorf("unknown op %d", req.Op))}
	}

	p.reply(idx, req, res)
}

func (p *Pool) executeGet(req Request) Result {
	reader, ok := p.shards.Reader(req.ShardID)
	if !ok {
		return Result{Err: kverrors.ErrUnknownShard}
	}
	v, found := reader.Get(req.Key)
	if !found {
		return Result{Err: kverrors.ErrNotFound}
	}
	return Result{Value: v, Found: true}
}

func (p *Pool) executePut(req Request) Result {
	writer, ok := p.shards.Writer(req.ShardID)
	if !ok {
		return Result{Err: kverrors.ErrUnknownShard}
	}
	prior, had := writer.Put(req.Key, req.Value)
	return Result{Value: prior, Found: had}
}

func (p *Pool) executeDelete(req Request) Result {
	writer, ok := p.shards.Writer(req.ShardID)
	if !ok {
		return Result{Err: kverrors.ErrUnknownShard}
	}
	prior, had := writer.Delete(req.Key)
	return Result{Value: prior, Found: had}
}

func (p *Pool) reply(idx int, req Request, res Result) {
	p.setState(idx, StateReplying)
	select {
	case req.Reply <- res:
	default:
		// Caller abandoned the reply channel; discard per the
		// cancellation policy.
	}
}
