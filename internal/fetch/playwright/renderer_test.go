package playwright

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	r := New(Config{}, nil)
	require.Equal(t, 30*time.Second, r.cfg.NavigationTimeout)
	require.NotNil(t, r.logger)
}

func TestToHTTPHeader(t *testing.T) {
	t.Parallel()

	h := toHTTPHeader(map[string]string{"content-type": "text/html", "x-vercel-id": "iad1"})
	require.Equal(t, "text/html", h.Get("Content-Type"))
	require.Equal(t, "iad1", h.Get("X-Vercel-Id"))
}

func TestToInt(t *testing.T) {
	t.Parallel()

	for _, v := range []any{42, int64(42), float64(42)} {
		n, ok := toInt(v)
		require.True(t, ok)
		require.Equal(t, 42, n)
	}
	_, ok := toInt("42")
	require.False(t, ok)
}

func TestResponseLogIsSafeForConcurrentUse(t *testing.T) {
	t.Parallel()

	l := &responseLog{}
	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		go func() {
			l.add(nil)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 20; i++ {
		<-done
	}
	require.Len(t, l.all(), 20)
}
