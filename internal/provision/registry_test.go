package provision

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryAcquireRelease(t *testing.T) {
	reg := NewRunRegistry()

	assert.True(t, reg.TryAcquire("g1"))
	assert.False(t, reg.TryAcquire("g1"), "second acquire on the same guild must fail")
	assert.True(t, reg.TryAcquire("g2"), "other guilds are unaffected")
	assert.Equal(t, 2, reg.ActiveCount())

	reg.Release("g1")
	assert.True(t, reg.TryAcquire("g1"), "released guild can be reacquired")
}

func TestRegistryReleaseIsUnconditional(t *testing.T) {
	reg := NewRunRegistry()
	reg.Release("never-held")
	reg.Release("never-held")
	assert.Equal(t, 0, reg.ActiveCount())
}

func TestRegistryConcurrentAcquireHasOneWinner(t *testing.T) {
	reg := NewRunRegistry()

	const contenders = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if reg.TryAcquire("g1") {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, reg.ActiveCount())
}
