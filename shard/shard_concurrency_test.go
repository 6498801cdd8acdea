package shard

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestShard_concurrentReadersAndWriters drives several reader goroutines and
// several writer goroutines against one shard and checks that every key
// becomes visible to every reader and that the final contents match what was
// written last.
func TestShard_concurrentReadersAndWriters(t *testing.T) {
	const (
		readers = 6
		writers = 4
		keys    = 256
	)

	s := New(1)
	w := s.Writer()

	var wg sync.WaitGroup
	seenByReader := make([]map[int]bool, readers)

	for i := 0; i < readers; i++ {
		seenByReader[i] = make(map[int]bool, keys)
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			r := s.Reader()
			for len(seenByReader[idx]) < keys {
				for k := 0; k < keys; k++ {
					if _, ok := r.Get(key(k)); ok {
						seenByReader[idx][k] = true
					}
				}
			}
		}(i)
	}

	var wroteAll sync.WaitGroup
	wroteAll.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wroteAll.Done()
			for k := 0; k < keys; k++ {
				w.Put(key(k), value(k))
			}
		}()
	}

	wroteAll.Wait()
	wg.Wait()

	r := s.Reader()
	for k := 0; k < keys; k++ {
		v, ok := r.Get(key(k))
		require.True(t, ok, "key %d should be present after all writers finished", k)
		assert.Equal(t, value(k), v)
	}
}

// TestShard_writesNeverObservedTorn alternates puts and concurrent gets from
// many readers for a bounded window and asserts every observed value has the
// full 8-byte length of a write.
func TestShard_writesNeverObservedTorn(t *testing.T) {
	const readerCount = 16

	s := New(1)
	w := s.Writer()
	key := "k"

	var lastWritten atomic.Int64
	stop := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < readerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := s.Reader()
			for {
				select {
				case <-stop:
					return
				default:
				}
				v, ok := r.Get(key)
				if ok {
					assert.Len(t, v, 8, "value must never be a partial write")
				}
			}
		}()
	}

	deadline := time.Now().Add(200 * time.Millisecond)
	i := int64(0)
	for time.Now().Before(deadline) {
		v := make([]byte, 8)
		for b := range v {
			v[b] = byte(i)
		}
		w.Put(key, v)
		lastWritten.Store(i)
		i++
	}
	close(stop)
	wg.Wait()

	_, ok := s.Reader().Get(key)
	assert.True(t, ok)
}

func key(i int) string {
	return fmt.Sprintf("key-%d", i)
}

func value(i int) []byte {
	return []byte(fmt.Sprintf("val-%d", i))
}
