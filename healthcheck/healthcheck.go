// Package healthcheck provides a simple health check HTTP server.
//
// Callers register named probes (name == URL path) via AddEndpoint; the
// server exposes each at its own path plus an aggregate "/_ALL_" that
// runs every probe and reports the worst status code seen. It works as a
// process-wide singleton, one server, so callers don't need to pass a
// handle around just to register a probe from deep inside a library.
package healthcheck

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
)

// CallbackFunc is a registered probe: it returns an HTTP status code and
// a human-readable body.
type CallbackFunc func() (code int, body string)

var (
	mu        sync.Mutex
	server    *http.Server
	serveMux  *http.ServeMux
	endpoints map[string]CallbackFunc
)

// Configure builds the HTTP server and its default routes. listenAddr is
// anything http.Server.Addr accepts, e.g. ":8008".
func Configure(listenAddr string) {
	mu.Lock()
	defer mu.Unlock()

	serveMux = http.NewServeMux()
	server = &http.Server{Addr: listenAddr, Handler: serveMux}
	endpoints = make(map[string]CallbackFunc)

	serveMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, "Path not found\n")
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "/_ALL_\n")
		for path := range endpoints {
			fmt.Fprintf(w, "%s\n", path)
		}
	})

	serveMux.HandleFunc("/_ALL_", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		snapshot := make(map[string]CallbackFunc, len(endpoints))
		for path, cb := range endpoints {
			snapshot[path] = cb
		}
		mu.Unlock()

		resultCode := http.StatusOK
		var body bytes.Buffer
		for path, cb := range snapshot {
			code, text := cb()
			fmt.Fprintf(&body, "%s %d %s\n", path, code, text)
			if code > resultCode {
				resultCode = code
			}
		}
		w.WriteHeader(resultCode)
		w.Write(body.Bytes())
	})

	AddEndpoint("/ping", func() (int, string) { return http.StatusOK, "PONG" })
}

// AddEndpoint registers a probe. It panics on a reserved or duplicate
// path, since both indicate a programming error at startup, not a
// runtime condition a caller should recover from.
func AddEndpoint(urlPath string, callback CallbackFunc) {
	mu.Lock()
	defer mu.Unlock()

	switch urlPath {
	case "", "/", "/_ALL_":
		panic(fmt.Sprintf("healthcheck: path %q is reserved", urlPath))
	}
	if _, exists := endpoints[urlPath]; exists {
		panic(fmt.Sprintf("healthcheck: endpoint %q already registered", urlPath))
	}

	serveMux.HandleFunc(urlPath, func(w http.ResponseWriter, r *http.Request) {
		code, body := callback()
		w.WriteHeader(code)
		fmt.Fprint(w, body)
	})
	endpoints[urlPath] = callback
}

// Handle registers a raw http.Handler on the health-check server's mux,
// for endpoints (like a Prometheus /metrics scrape target) that don't fit
// the status-code/body CallbackFunc shape AddEndpoint expects.
func Handle(urlPath string, handler http.Handler) {
	mu.Lock()
	defer mu.Unlock()
	serveMux.Handle(urlPath, handler)
}

// Start runs the HTTP server, blocking until it stops or fails.
func Start() error {
	return server.ListenAndServe()
}

// Stop closes the server immediately (active connections are dropped),
// if one was Configure'd.
func Stop() error {
	if server == nil {
		return nil
	}
	return server.Close()
}
