// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// idleQuiet is how long the network must stay quiet to count as idle.
const idleQuiet = 500 * time.Millisecond

// networkTracker follows request lifecycle events on one page to answer
// "is the network idle".
type networkTracker struct {
	mu           sync.Mutex
	inflight     map[network.RequestID]struct{}
	lastActivity time.Time
}

func newNetworkTracker(ctx context.Context) *networkTracker {
	t := &networkTracker{
		inflight:     make(map[network.RequestID]struct{}),
		lastActivity: time.Now(),
	}
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			t.track(e.RequestID, true)
		case *network.EventLoadingFinished:
			t.track(e.RequestID, false)
		case *network.EventLoadingFailed:
			t.track(e.RequestID, false)
		}
	})
	return t
}

func (t *networkTracker) track(id network.RequestID, start bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if start {
		t.inflight[id] = struct{}{}
	} else {
		delete(t.inflight, id)
	}
	t.lastActivity = time.Now()
}

func (t *networkTracker) idleSince() (bool, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight) == 0, t.lastActivity
}

// WaitIdle blocks until the network has been quiet for idleQuiet or the
// timeout passes. Returns false on timeout.
func (t *networkTracker) WaitIdle(ctx context.Context, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		idle, last := t.idleSince()
		if idle && time.Since(last) >= idleQuiet {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return false
		}
	}
}

// ObservedRequest is one network request seen on a page, kept for
// post-interaction matching.
type ObservedRequest struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	PostData  string            `json:"post_data,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	FrameID   string            `json:"frame_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// RequestWatcher records every request sent by a page from the moment
// it is attached. Recording is passive: nothing is blocked or altered.
type RequestWatcher struct {
	mu       sync.Mutex
	requests []ObservedRequest
}

// WatchRequests attaches a watcher to the page.
func (p *Page) WatchRequests() *RequestWatcher {
	w := &RequestWatcher{}
	chromedp.ListenTarget(p.Ctx, func(ev interface{}) {
		e, ok := ev.(*network.EventRequestWillBeSent)
		if !ok {
			return
		}
		req := ObservedRequest{
			URL:       e.Request.URL,
			Method:    e.Request.Method,
			FrameID:   string(e.FrameID),
			Timestamp: time.Now(),
		}
		if e.Request.HasPostData && e.Request.PostDataEntries != nil {
			for _, entry := range e.Request.PostDataEntries {
				req.PostData += entry.Bytes
			}
		}
		if len(e.Request.Headers) > 0 {
			req.Headers = make(map[string]string, len(e.Request.Headers))
			for k, v := range e.Request.Headers {
				if s, ok := v.(string); ok {
					req.Headers[k] = s
				}
			}
		}
		w.mu.Lock()
		w.requests = append(w.requests, req)
		w.mu.Unlock()
	})
	return w
}

// Requests returns a snapshot of everything observed so far.
func (w *RequestWatcher) Requests() []ObservedRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]ObservedRequest, len(w.requests))
	copy(out, w.requests)
	return out
}

// Since returns requests observed at or after the mark.
func (w *RequestWatcher) Since(mark time.Time) []ObservedRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []ObservedRequest
	for _, r := range w.requests {
		if !r.Timestamp.Before(mark) {
			out = append(out, r)
		}
	}
	return out
}
