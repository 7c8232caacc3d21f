package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSameKeyIsSerialized(t *testing.T) {
	kl := New()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := kl.Lock("C1")
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, kl.Len())
}

func TestDifferentKeysDoNotBlock(t *testing.T) {
	kl := New()
	unlockA := kl.Lock("A")
	unlockB := kl.Lock("B")
	assert.Equal(t, 2, kl.Len())
	unlockA()
	unlockB()
	assert.Equal(t, 0, kl.Len())
}
