package headless

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/JakeFAU/site-audit/internal/audit"
	"github.com/JakeFAU/site-audit/internal/fetch"
)

// networkTracker follows every request of one tab. CDP events arrive on the
// tab's event goroutine while the render goroutine reads snapshots, so all
// state sits behind mu.
type networkTracker struct {
	mu           sync.Mutex
	inflight     map[network.RequestID]struct{}
	lastActivity time.Time
	order        []network.RequestID
	entries      map[network.RequestID]*audit.ResourceEntry

	docStatus  int
	docHeaders http.Header
	docURL     string
}

func newNetworkTracker() *networkTracker {
	return &networkTracker{
		inflight:     make(map[network.RequestID]struct{}),
		entries:      make(map[network.RequestID]*audit.ResourceEntry),
		lastActivity: time.Now(),
	}
}

func (t *networkTracker) captureEvent(ev any) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.mu.Lock()
		t.inflight[e.RequestID] = struct{}{}
		t.lastActivity = time.Now()
		t.mu.Unlock()
	case *network.EventResponseReceived:
		t.captureResponse(e)
	case *network.EventLoadingFinished:
		t.mu.Lock()
		delete(t.inflight, e.RequestID)
		t.lastActivity = time.Now()
		if entry, ok := t.entries[e.RequestID]; ok && e.EncodedDataLength > 0 {
			size := int64(e.EncodedDataLength)
			entry.Bytes = &size
		}
		t.mu.Unlock()
	case *network.EventLoadingFailed:
		t.mu.Lock()
		delete(t.inflight, e.RequestID)
		t.lastActivity = time.Now()
		t.mu.Unlock()
	}
}

func (t *networkTracker) captureResponse(e *network.EventResponseReceived) {
	if e.Response == nil {
		return
	}
	headers := toHTTPHeader(e.Response.Headers)
	entry := &audit.ResourceEntry{
		URL:      e.Response.URL,
		Category: fetch.Categorize(string(e.Type), e.Response.MimeType),
		Status:   int(e.Response.Status),
		Headers:  headers,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastActivity = time.Now()
	if _, seen := t.entries[e.RequestID]; !seen {
		t.order = append(t.order, e.RequestID)
	}
	t.entries[e.RequestID] = entry
	if e.Type == network.ResourceTypeDocument && t.docURL == "" {
		t.docStatus = entry.Status
		t.docHeaders = headers.Clone()
		t.docURL = entry.URL
	}
}

// settled reports whether no request has been in flight for quiet.
func (t *networkTracker) settled(quiet time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight) == 0 && time.Since(t.lastActivity) >= quiet
}

// waitSettled blocks until the network has been idle for quiet or ctx expires.
func (t *networkTracker) waitSettled(quiet time.Duration) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			if t.settled(quiet) {
				return nil
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("wait for network idle: %w", ctx.Err())
			case <-ticker.C:
			}
		}
	}
}

// snapshot returns the intercepted entries in arrival order.
func (t *networkTracker) snapshot() []audit.ResourceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]audit.ResourceEntry, 0, len(t.order))
	for _, id := range t.order {
		e := *t.entries[id]
		e.Headers = e.Headers.Clone()
		out = append(out, e)
	}
	return out
}

func (t *networkTracker) document(requestURL, finalURL string) (int, http.Header, string) {
	t.mu.Lock()
	status, headers, docURL := t.docStatus, t.docHeaders.Clone(), t.docURL
	t.mu.Unlock()

	switch {
	case finalURL != "":
		docURL = finalURL
	case docURL == "":
		docURL = requestURL
	}
	if status == 0 {
		status = http.StatusOK
	}
	if headers == nil {
		headers = http.Header{}
	}
	return status, headers, docURL
}

func toHTTPHeader(h network.Headers) http.Header {
	headers := http.Header{}
	for key, value := range h {
		switch v := value.(type) {
		case string:
			headers.Add(key, v)
		case []string:
			for _, entry := range v {
				headers.Add(key, entry)
			}
		case []any:
			for _, entry := range v {
				headers.Add(key, fmt.Sprint(entry))
			}
		default:
			headers.Add(key, fmt.Sprint(v))
		}
	}
	return headers
}
