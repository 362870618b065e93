package database

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newTestPool(t *testing.T, size int) *Pool {
	t.Helper()

	mockDB, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}

	db := sqlx.NewDb(mockDB, "sqlmock")

	pool, err := NewWithDB(db, size, nil, nil)
	if err != nil {
		t.Fatalf("NewWithDB() error = %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

func TestPoolSize(t *testing.T) {
	pool := newTestPool(t, 4)
	if pool.Size() != 4 {
		t.Errorf("Size() = %d, want 4", pool.Size())
	}
}

func TestPoolSizeClampsToOne(t *testing.T) {
	pool := newTestPool(t, 0)
	if pool.Size() != 1 {
		t.Errorf("Size() = %d, want 1 after clamping", pool.Size())
	}
}

func TestPoolAcquireRelease(t *testing.T) {
	pool := newTestPool(t, 2)

	c1 := pool.Acquire()
	c2 := pool.Acquire()
	if c1 == nil || c2 == nil {
		t.Fatal("Acquire returned nil")
	}
	if c1 == c2 {
		t.Fatal("two concurrent acquires returned the same connection")
	}

	pool.Release(c1)
	pool.Release(c2)

	// Both slots must be reusable.
	c3 := pool.Acquire()
	if c3 == nil {
		t.Fatal("Acquire after release returned nil")
	}
	pool.Release(c3)
}

func TestPoolBlocksWhenExhausted(t *testing.T) {
	pool := newTestPool(t, 1)

	held := pool.Acquire()

	acquired := make(chan *Conn)
	go func() {
		acquired <- pool.Acquire()
	}()

	select {
	case <-acquired:
		t.Fatal("Acquire succeeded while the pool was exhausted")
	case <-time.After(50 * time.Millisecond):
	}

	pool.Release(held)

	select {
	case c := <-acquired:
		pool.Release(c)
	case <-time.After(time.Second):
		t.Fatal("release did not wake the waiting acquirer")
	}
}

// TestPoolFairness runs many more acquirers than slots: no acquirer may
// starve and the number of simultaneously-held connections never exceeds the
// pool size.
func TestPoolFairness(t *testing.T) {
	const size = 3
	const workers = 24

	pool := newTestPool(t, size)

	var active int64
	var peak int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conn := pool.Acquire()
			n := atomic.AddInt64(&active, 1)
			for {
				old := atomic.LoadInt64(&peak)
				if n <= old || atomic.CompareAndSwapInt64(&peak, old, n) {
					break
				}
			}

			time.Sleep(time.Millisecond)

			atomic.AddInt64(&active, -1)
			pool.Release(conn)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("acquirers starved: not all workers completed")
	}

	if p := atomic.LoadInt64(&peak); p > size {
		t.Errorf("peak simultaneous handles = %d, exceeds pool size %d", p, size)
	}
}

func TestPoolReleaseUnknownConnIsNoop(t *testing.T) {
	pool := newTestPool(t, 1)

	// A handle that does not belong to the pool must not corrupt the slots.
	pool.Release(&Conn{})

	c := pool.Acquire()
	if c == nil {
		t.Fatal("Acquire returned nil after foreign release")
	}
	pool.Release(c)
}
