package headless

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/site-audit/internal/fetch"
)

func TestNetworkTrackerRecordsEntries(t *testing.T) {
	t.Parallel()

	tr := newNetworkTracker()
	tr.captureEvent(&network.EventRequestWillBeSent{RequestID: "1"})
	tr.captureEvent(&network.EventResponseReceived{
		RequestID: "1",
		Type:      network.ResourceTypeDocument,
		Response: &network.Response{
			URL:     "https://example.com/",
			Status:  200,
			Headers: network.Headers{"Content-Security-Policy": "default-src 'self'"},
		},
	})
	tr.captureEvent(&network.EventLoadingFinished{RequestID: "1", EncodedDataLength: 2048})
	tr.captureEvent(&network.EventRequestWillBeSent{RequestID: "2"})
	tr.captureEvent(&network.EventResponseReceived{
		RequestID: "2",
		Type:      network.ResourceTypeOther,
		Response:  &network.Response{URL: "https://cdn.example.net/app.js", Status: 200, MimeType: "application/javascript"},
	})
	tr.captureEvent(&network.EventLoadingFailed{RequestID: "2"})

	entries := tr.snapshot()
	require.Len(t, entries, 2)
	require.Equal(t, "document", entries[0].Category)
	require.NotNil(t, entries[0].Bytes)
	require.EqualValues(t, 2048, *entries[0].Bytes)
	require.Equal(t, "script", entries[1].Category)
	require.Nil(t, entries[1].Bytes)

	status, headers, url := tr.document("https://example.com", "")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "default-src 'self'", headers.Get("Content-Security-Policy"))
	require.Equal(t, "https://example.com/", url)
}

func TestNetworkTrackerConcurrentAppends(t *testing.T) {
	t.Parallel()

	tr := newNetworkTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := network.RequestID(fmt.Sprintf("req-%d", i))
			tr.captureEvent(&network.EventResponseReceived{
				RequestID: id,
				Type:      network.ResourceTypeImage,
				Response:  &network.Response{URL: "https://example.com/i.png", Status: 200},
			})
		}(i)
	}
	wg.Wait()
	require.Len(t, tr.snapshot(), 50)
}

func TestWaitSettled(t *testing.T) {
	t.Parallel()

	tr := newNetworkTracker()
	tr.captureEvent(&network.EventRequestWillBeSent{RequestID: "1"})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, tr.waitSettled(10*time.Millisecond)(ctx), context.DeadlineExceeded)

	tr.captureEvent(&network.EventLoadingFinished{RequestID: "1"})
	require.NoError(t, tr.waitSettled(10*time.Millisecond)(context.Background()))
}

func TestDocumentFallbacks(t *testing.T) {
	t.Parallel()

	tr := newNetworkTracker()
	status, headers, url := tr.document("https://example.com", "")
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, headers)
	require.Equal(t, "https://example.com", url)

	_, _, url = tr.document("https://example.com", "https://example.com/landing")
	require.Equal(t, "https://example.com/landing", url)
}

func TestToHTTPHeader(t *testing.T) {
	t.Parallel()

	h := toHTTPHeader(network.Headers{
		"X-One":  "a",
		"X-Many": []any{"b", "c"},
		"X-Num":  42,
	})
	require.Equal(t, "a", h.Get("X-One"))
	require.Equal(t, []string{"b", "c"}, h.Values("X-Many"))
	require.Equal(t, "42", h.Get("X-Num"))
}

func TestNewChromedpDefaults(t *testing.T) {
	t.Parallel()

	r := NewChromedp(Config{}, nil)
	require.Equal(t, 30*time.Second, r.cfg.NavigationTimeout)
	require.Equal(t, 500*time.Millisecond, r.cfg.SettleQuiet)
	require.Equal(t, 15*time.Second, r.cfg.LaunchTimeout)
	require.NotEmpty(t, r.allocatorOptions())
}

func TestRenderFailsFastWhenLaunchHangs(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("needs a shell script as the browser binary")
	}

	hang := filepath.Join(t.TempDir(), "chrome")
	require.NoError(t, os.WriteFile(hang, []byte("#!/bin/sh\nsleep 30\n"), 0o755))

	r := NewChromedp(Config{ExecPath: hang, LaunchTimeout: 200 * time.Millisecond}, nil)
	start := time.Now()
	_, err := r.Render(context.Background(), fetch.RenderRequest{URL: "http://127.0.0.1:1/"})
	require.ErrorIs(t, err, ErrLaunchTimeout)
	require.Less(t, time.Since(start), 10*time.Second)
}
