package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/faeln1/go-discord-observer/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestGuildQueuePreservesOrderPerGuild(t *testing.T) {
	q := NewGuildQueue(context.Background(), 0, nil, logger.Noop)

	var (
		mu  sync.Mutex
		got = map[string][]int{}
	)
	for i := 0; i < 100; i++ {
		for _, g := range []string{"g1", "g2"} {
			g, i := g, i
			assert.True(t, q.Submit(g, func(ctx context.Context) {
				mu.Lock()
				got[g] = append(got[g], i)
				mu.Unlock()
			}))
		}
	}
	q.Close()

	for _, g := range []string{"g1", "g2"} {
		assert.Len(t, got[g], 100)
		for i, v := range got[g] {
			assert.Equal(t, i, v)
		}
	}
}

func TestGuildQueueDropsWhenFull(t *testing.T) {
	q := NewGuildQueue(context.Background(), 1, nil, logger.Noop)
	release := make(chan struct{})
	started := make(chan struct{})

	assert.True(t, q.Submit("g1", func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started
	assert.True(t, q.Submit("g1", func(ctx context.Context) {}))
	assert.False(t, q.Submit("g1", func(ctx context.Context) {}))

	close(release)
	q.Close()
	assert.False(t, q.Submit("g1", func(ctx context.Context) {}), "closed queue rejects work")
}

func TestGuildQueueSurvivesPanics(t *testing.T) {
	q := NewGuildQueue(context.Background(), 0, nil, logger.Noop)
	done := make(chan struct{})
	q.Submit("g1", func(ctx context.Context) { panic("boom") })
	q.Submit("g1", func(ctx context.Context) { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker died after panic")
	}
	q.Close()
}

func TestGuildQueueCloseDrainsAfterParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewGuildQueue(ctx, 0, nil, logger.Noop)

	release := make(chan struct{})
	started := make(chan struct{})
	q.Submit("g1", func(context.Context) {
		close(started)
		<-release
	})
	<-started

	var ran []int
	for i := 0; i < 3; i++ {
		i := i
		assert.True(t, q.Submit("g1", func(ctx context.Context) {
			assert.NoError(t, ctx.Err())
			ran = append(ran, i)
		}))
	}

	cancel()
	close(release)
	q.Close()
	assert.Equal(t, []int{0, 1, 2}, ran)
}
