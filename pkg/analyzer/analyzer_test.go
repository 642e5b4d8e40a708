// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package analyzer

import (
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socsys/fidentikit/pkg/browser"
)

func testClient() *resty.Client {
	return resty.New().SetTimeout(5 * time.Second)
}

func TestResolveFallsBackToHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	host := strings.TrimPrefix(srv.URL, "http://")

	// https against a plain HTTP listener fails, the http attempt lands.
	res := Resolve(t.Context(), testClient(), host)
	assert.True(t, res.Reachable)
	assert.Equal(t, "http://"+host, strings.TrimSuffix(res.URL, "/"))
}

func TestResolveStatusCodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	host := strings.TrimPrefix(srv.URL, "http://")

	res := Resolve(t.Context(), testClient(), host)
	assert.False(t, res.Reachable)
	assert.Equal(t, string(browser.ReasonStatusCode), res.ErrorReason)
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}

func TestResolveRejectsInformationalStatus(t *testing.T) {
	// A server answering with a bare 101 never serves a page; it must
	// not count as reachable.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 4096)
				_, _ = c.Read(buf)
				_, _ = c.Write([]byte("HTTP/1.1 101 Switching Protocols\r\nConnection: close\r\n\r\n"))
			}(conn)
		}
	}()

	res := Resolve(t.Context(), testClient(), ln.Addr().String())
	assert.False(t, res.Reachable)
	assert.Equal(t, http.StatusSwitchingProtocols, res.StatusCode)
}

func TestResolveUnreachable(t *testing.T) {
	res := Resolve(t.Context(), testClient(), "localhost:1")
	assert.False(t, res.Reachable)
	assert.NotEmpty(t, res.ErrorMsg)
	assert.Equal(t, string(browser.ReasonAddressUnreachable), res.ErrorReason)
}

func TestResolveFollowsRedirects(t *testing.T) {
	var target *httptest.Server
	target = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/landing" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, target.URL+"/landing", http.StatusFound)
	}))
	defer target.Close()
	host := strings.TrimPrefix(target.URL, "http://")

	res := Resolve(t.Context(), testClient(), host)
	require.True(t, res.Reachable)
	assert.True(t, strings.HasSuffix(res.URL, "/landing"))
}

func TestRunProbeJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"issuer":"https://op.example.com"}`)
	}))
	defer srv.Close()

	probe := metadataProbe{Name: "openid_configuration", ExpectedStatus: 200, ExpectedMIME: "application/json", JSON: true}
	body, ok := runProbe(t.Context(), testClient(), srv.URL, probe)
	require.True(t, ok)
	parsed, ok := body.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "https://op.example.com", parsed["issuer"])
}

func TestRunProbeJSONWithLooseMIME(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `{"keys":[]}`)
	}))
	defer srv.Close()

	probe := metadataProbe{Name: "jwks", ExpectedStatus: 200, ExpectedMIME: "application/json", JSON: true}
	_, ok := runProbe(t.Context(), testClient(), srv.URL, probe)
	assert.True(t, ok, "parsable JSON wins over a loose MIME")
}

func TestRunProbeRejectsWrongStatusAndMIME(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/htmlrobots":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "<html>robots</html>")
		case "/badjson":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, "not json")
		}
	}))
	defer srv.Close()

	_, ok := runProbe(t.Context(), testClient(), srv.URL+"/missing",
		metadataProbe{ExpectedStatus: 200, ExpectedMIME: "text/plain"})
	assert.False(t, ok)

	_, ok = runProbe(t.Context(), testClient(), srv.URL+"/htmlrobots",
		metadataProbe{ExpectedStatus: 200, ExpectedMIME: "text/plain"})
	assert.False(t, ok, "text probes enforce MIME")

	_, ok = runProbe(t.Context(), testClient(), srv.URL+"/badjson",
		metadataProbe{ExpectedStatus: 200, ExpectedMIME: "application/json", JSON: true})
	assert.False(t, ok)
}

func TestRunProbeText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, "User-agent: *\nDisallow: /admin\n")
	}))
	defer srv.Close()

	body, ok := runProbe(t.Context(), testClient(), srv.URL,
		metadataProbe{Name: "robots", ExpectedStatus: 200, ExpectedMIME: "text/plain"})
	require.True(t, ok)
	assert.Contains(t, body.(string), "Disallow: /admin")
}
