package worker

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool_RunsAllJobsBeforeStop(t *testing.T) {
	p := NewPool(3)
	var n atomic.Int64
	for i := 0; i < 100; i++ {
		p.Submit(func() { n.Add(1) })
	}
	p.Stop()
	assert.Equal(t, int64(100), n.Load())
}

func TestPool_SurvivesPanickingJob(t *testing.T) {
	p := NewPool(1)
	var ran atomic.Bool
	p.Submit(func() { panic("boom") })
	p.Submit(func() { ran.Store(true) })
	p.Stop()
	assert.True(t, ran.Load())

	// second Stop is a no-op
	p.Stop()
}

func TestPool_SubmitAfterStopIsDropped(t *testing.T) {
	p := NewPool(2)
	p.Stop()

	var ran atomic.Bool
	assert.NotPanics(t, func() {
		assert.False(t, p.Submit(func() { ran.Store(true) }))
	})
	assert.False(t, ran.Load())
}

func TestPool_ConcurrentSubmitAndStop(t *testing.T) {
	p := NewPool(2)
	var wg sync.WaitGroup
	var accepted, ran atomic.Int64
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p.Submit(func() { ran.Add(1) }) {
				accepted.Add(1)
			}
		}()
	}
	p.Stop()
	wg.Wait()
	assert.Equal(t, accepted.Load(), ran.Load())
}
