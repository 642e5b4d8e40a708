// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package browser

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// HARRecorder assembles an HTTP archive from the network events of one
// page. The log follows the HAR 1.2 shape closely enough for standard
// viewers; bodies are not captured.
type HARRecorder struct {
	mu      sync.Mutex
	entries map[network.RequestID]*harEntry
	order   []network.RequestID
	started time.Time
}

type harEntry struct {
	StartedDateTime string      `json:"startedDateTime"`
	Time            float64     `json:"time"`
	Request         harRequest  `json:"request"`
	Response        harResponse `json:"response"`

	start time.Time
}

type harRequest struct {
	Method      string      `json:"method"`
	URL         string      `json:"url"`
	HTTPVersion string      `json:"httpVersion"`
	Headers     []harHeader `json:"headers"`
	QueryString []harHeader `json:"queryString"`
	PostData    *harPost    `json:"postData,omitempty"`
}

type harResponse struct {
	Status      int64       `json:"status"`
	StatusText  string      `json:"statusText"`
	HTTPVersion string      `json:"httpVersion"`
	Headers     []harHeader `json:"headers"`
	Content     harContent  `json:"content"`
	RedirectURL string      `json:"redirectURL"`
}

type harHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type harPost struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

type harContent struct {
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

// RecordHAR attaches a recorder to the page. Attach before navigating
// or the initial document request is missed.
func (p *Page) RecordHAR() *HARRecorder {
	r := &HARRecorder{
		entries: make(map[network.RequestID]*harEntry),
		started: time.Now(),
	}
	chromedp.ListenTarget(p.Ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			r.onRequest(e)
		case *network.EventResponseReceived:
			r.onResponse(e)
		case *network.EventLoadingFinished:
			r.onFinished(e)
		}
	})
	return r
}

func (r *HARRecorder) onRequest(e *network.EventRequestWillBeSent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	entry := &harEntry{
		StartedDateTime: now.UTC().Format(time.RFC3339Nano),
		start:           now,
		Request: harRequest{
			Method:      e.Request.Method,
			URL:         e.Request.URL,
			HTTPVersion: "HTTP/1.1",
			Headers:     headerList(e.Request.Headers),
			QueryString: []harHeader{},
		},
		Response: harResponse{
			HTTPVersion: "HTTP/1.1",
			Headers:     []harHeader{},
			Content:     harContent{},
		},
	}
	if e.Request.HasPostData && len(e.Request.PostDataEntries) > 0 {
		var body string
		for _, pd := range e.Request.PostDataEntries {
			body += pd.Bytes
		}
		entry.Request.PostData = &harPost{Text: body}
	}
	if _, seen := r.entries[e.RequestID]; !seen {
		r.order = append(r.order, e.RequestID)
	}
	r.entries[e.RequestID] = entry
}

func (r *HARRecorder) onResponse(e *network.EventResponseReceived) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[e.RequestID]
	if !ok {
		return
	}
	entry.Response.Status = e.Response.Status
	entry.Response.StatusText = e.Response.StatusText
	entry.Response.Headers = headerList(e.Response.Headers)
	entry.Response.Content.MimeType = e.Response.MimeType
}

func (r *HARRecorder) onFinished(e *network.EventLoadingFinished) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[e.RequestID]
	if !ok {
		return
	}
	entry.Time = float64(time.Since(entry.start).Milliseconds())
	entry.Response.Content.Size = int64(e.EncodedDataLength)
}

func headerList(h network.Headers) []harHeader {
	out := make([]harHeader, 0, len(h))
	for k, v := range h {
		if s, ok := v.(string); ok {
			out = append(out, harHeader{Name: k, Value: s})
		}
	}
	return out
}

// Archive serializes the captured traffic as HAR JSON.
func (r *HARRecorder) Archive() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]*harEntry, 0, len(r.order))
	for _, id := range r.order {
		entries = append(entries, r.entries[id])
	}
	doc := map[string]interface{}{
		"log": map[string]interface{}{
			"version": "1.2",
			"creator": map[string]string{"name": "fidentikit", "version": "1.0"},
			"entries": entries,
		},
	}
	return json.Marshal(doc)
}

// ArchiveEncoded returns the archive in the compressed base64 form used
// inside result documents.
func (r *HARRecorder) ArchiveEncoded() (string, error) {
	raw, err := r.Archive()
	if err != nil {
		return "", err
	}
	return EncodeArtifact(raw), nil
}
