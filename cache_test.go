package inkpress

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counting(body string, calls *int32) RenderFunc {
	return func() ([]byte, map[string]string, error) {
		atomic.AddInt32(calls, 1)
		return []byte(body), map[string]string{"X-Test": body}, nil
	}
}

func TestPageCacheServesUntilExpiry(t *testing.T) {
	c := NewPageCache(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	var calls int32

	body, header, err := c.GetOrRender("home", counting("v1", &calls))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(body))
	assert.Equal(t, "v1", header["X-Test"])

	body, _, _ = c.GetOrRender("home", counting("v2", &calls))
	assert.Equal(t, "v1", string(body))
	assert.EqualValues(t, 1, calls)

	now = now.Add(time.Minute)
	body, _, _ = c.GetOrRender("home", counting("v2", &calls))
	assert.Equal(t, "v2", string(body))
	assert.EqualValues(t, 2, calls)
}

func TestPageCacheKeysAreIndependent(t *testing.T) {
	c := NewPageCache(time.Minute)
	var calls int32

	a, _, _ := c.GetOrRender("post/a", counting("a", &calls))
	b, _, _ := c.GetOrRender("post/b", counting("b", &calls))
	assert.Equal(t, "a", string(a))
	assert.Equal(t, "b", string(b))
	assert.Equal(t, 2, c.Len())
}

func TestPageCacheInvalidate(t *testing.T) {
	c := NewPageCache(time.Hour)
	var calls int32

	_, _, _ = c.GetOrRender("home", counting("v1", &calls))
	c.Invalidate()
	assert.Equal(t, 0, c.Len())

	body, _, _ := c.GetOrRender("home", counting("v2", &calls))
	assert.Equal(t, "v2", string(body))
}

func TestPageCacheDoesNotCacheFailures(t *testing.T) {
	c := NewPageCache(time.Hour)
	boom := errors.New("boom")

	_, _, err := c.GetOrRender("home", func() ([]byte, map[string]string, error) { return nil, nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	var calls int32
	body, _, err := c.GetOrRender("home", counting("ok", &calls))
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestPageCacheDisabledWithZeroTTL(t *testing.T) {
	c := NewPageCache(0)
	var calls int32

	_, _, _ = c.GetOrRender("home", counting("v1", &calls))
	_, _, _ = c.GetOrRender("home", counting("v1", &calls))
	assert.EqualValues(t, 2, calls)
	assert.Equal(t, 0, c.Len())
}

func TestPageCacheRendersOnceUnderConcurrency(t *testing.T) {
	c := NewPageCache(time.Hour)
	var calls int32

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = c.GetOrRender("home", counting("v", &calls))
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, calls)
}

func TestPageCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := newPageCache(time.Hour, 2)
	var calls int32

	_, _, _ = c.GetOrRender("a", counting("a", &calls))
	_, _, _ = c.GetOrRender("b", counting("b", &calls))
	_, _, _ = c.GetOrRender("a", counting("a", &calls)) // a is now most recent
	_, _, _ = c.GetOrRender("c", counting("c", &calls)) // evicts b
	assert.EqualValues(t, 3, calls)
	assert.Equal(t, 2, c.Len())

	_, _, _ = c.GetOrRender("a", counting("a", &calls))
	assert.EqualValues(t, 3, calls, "a survived")
	_, _, _ = c.GetOrRender("b", counting("b", &calls))
	assert.EqualValues(t, 4, calls, "b was evicted")
}

func TestPageCacheSlowRenderDoesNotBlockOtherKeys(t *testing.T) {
	c := NewPageCache(time.Hour)
	var calls int32
	_, _, err := c.GetOrRender("home", counting("home", &calls))
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = c.GetOrRender("post/slow", func() ([]byte, map[string]string, error) {
			close(started)
			<-release
			return []byte("slow"), nil, nil
		})
	}()
	<-started

	hit := make(chan string, 1)
	go func() {
		body, _, _ := c.GetOrRender("home", counting("other", &calls))
		hit <- string(body)
	}()
	miss := make(chan string, 1)
	go func() {
		body, _, _ := c.GetOrRender("post/fast", counting("fast", &calls))
		miss <- string(body)
	}()

	select {
	case body := <-hit:
		assert.Equal(t, "home", body)
	case <-time.After(time.Second):
		t.Fatal("cached page blocked behind a slow render")
	}
	select {
	case body := <-miss:
		assert.Equal(t, "fast", body)
	case <-time.After(time.Second):
		t.Fatal("render of another key blocked behind a slow render")
	}

	close(release)
	<-done
}

func TestPageCacheDropsRenderStartedBeforeInvalidate(t *testing.T) {
	c := NewPageCache(time.Hour)
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = c.GetOrRender("home", func() ([]byte, map[string]string, error) {
			close(started)
			<-release
			return []byte("stale"), nil, nil
		})
	}()
	<-started
	c.Invalidate()
	close(release)
	<-done

	assert.Equal(t, 0, c.Len())
	var calls int32
	body, _, err := c.GetOrRender("home", counting("fresh", &calls))
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(body))
}
