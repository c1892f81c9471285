package spinlock

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sasha-s/go-deadlock"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	Configure(true, 10*time.Second)
	os.Exit(m.Run())
}

func TestConfigureOnce(t *testing.T) {
	assert.False(t, Configure(false, 0))
	assert.False(t, deadlock.Opts.Disable)
	assert.Equal(t, 10*time.Second, deadlock.Opts.DeadlockTimeout)
}

func TestHolding(t *testing.T) {
	lk := NewSpinlock("test")
	assert.False(t, lk.Holding())
	lk.Lock()
	assert.True(t, lk.Holding())
	lk.Unlock()
	assert.False(t, lk.Holding())
	assert.Equal(t, "test", lk.Name())
}

func TestHandOff(t *testing.T) {
	lk := NewSpinlock("handoff")
	lk.Lock()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// released by a different goroutine than the one that took it
		lk.Unlock()
	}()
	wg.Wait()
	assert.False(t, lk.Holding())
}

func TestHeldBy(t *testing.T) {
	type cpu struct{ id int }
	c0, c1 := &cpu{0}, &cpu{1}
	lk := NewSpinlock("owner")
	assert.False(t, lk.HeldBy(c0))
	lk.Lock()
	assert.True(t, lk.Holding())
	assert.False(t, lk.HeldBy(c0), "untagged")
	lk.SetOwner(c0)
	assert.True(t, lk.HeldBy(c0))
	assert.False(t, lk.HeldBy(c1))

	// handed to c1's goroutine, which tags and releases it
	done := make(chan bool)
	go func() {
		lk.SetOwner(c1)
		ok := lk.HeldBy(c1) && !lk.HeldBy(c0)
		lk.Unlock()
		done <- ok
	}()
	assert.True(t, <-done)
	assert.False(t, lk.HeldBy(c1))

	lk.Lock()
	assert.False(t, lk.HeldBy(c1), "locking clears the tag")
	lk.Unlock()
}

func TestExclusive(t *testing.T) {
	lk := NewSpinlock("count")
	n := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				lk.Lock()
				n += 1
				lk.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8000, n)
}
