package main

import (
	nethttp "net/http"
	"testing"
	"time"
)

func TestNewServer(t *testing.T) {
	handler := nethttp.NotFoundHandler()

	srv := newServer(":8080", handler)

	if srv.Addr != ":8080" {
		t.Errorf("newServer() Addr = %q, want %q", srv.Addr, ":8080")
	}
	if srv.ReadHeaderTimeout != 10*time.Second {
		t.Errorf("newServer() ReadHeaderTimeout = %v, want 10s", srv.ReadHeaderTimeout)
	}
	// Chat duration depends on how many candidates need embedding, so the
	// write side is left to the per-call backend timeouts.
	if srv.WriteTimeout != 0 {
		t.Errorf("newServer() WriteTimeout = %v, want none", srv.WriteTimeout)
	}
}
