package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIPFSBackendPut(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// NDJSON stream: a chunk line then the root object.
		fmt.Fprintf(w, `{"Name":"chunk","Hash":"%s"}`+"\n", testCIDv0)
		fmt.Fprintf(w, `{"Name":"receipt.json","Hash":"%s"}`+"\n", testCIDv1)
	}))
	defer server.Close()

	backend, err := NewIPFSBackend(IPFSConfig{APIURL: server.URL}, nil)
	if err != nil {
		t.Fatalf("NewIPFSBackend() error: %v", err)
	}

	result, err := backend.Put(context.Background(), bytes.NewReader([]byte("evidence")), "receipt.json")
	if err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if gotPath != "/api/v0/add" {
		t.Errorf("path = %s, want /api/v0/add", gotPath)
	}
	if result.CID != testCIDv1 {
		t.Errorf("cid = %s, want %s (last NDJSON object)", result.CID, testCIDv1)
	}
	if result.Provider != "ipfs" {
		t.Errorf("provider = %s, want ipfs", result.Provider)
	}
	if result.Size != int64(len("evidence")) {
		t.Errorf("size = %d, want %d", result.Size, len("evidence"))
	}
}

func TestIPFSBackendPutRejectsBadCID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"Name":"receipt.json","Hash":"garbage"}`)
	}))
	defer server.Close()

	backend, err := NewIPFSBackend(IPFSConfig{APIURL: server.URL}, nil)
	if err != nil {
		t.Fatalf("NewIPFSBackend() error: %v", err)
	}
	if _, err := backend.Put(context.Background(), bytes.NewReader(nil), "x"); err == nil {
		t.Error("Put() accepted a malformed CID")
	}
}

func TestIPFSBackendPutServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "node down", http.StatusInternalServerError)
	}))
	defer server.Close()

	backend, err := NewIPFSBackend(IPFSConfig{APIURL: server.URL}, nil)
	if err != nil {
		t.Fatalf("NewIPFSBackend() error: %v", err)
	}
	if _, err := backend.Put(context.Background(), bytes.NewReader(nil), "x"); err == nil {
		t.Error("Put() should surface a server error")
	}
}

func TestIPFSBackendGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("arg") != testCIDv1 {
			http.Error(w, "unknown cid", http.StatusNotFound)
			return
		}
		w.Write([]byte("evidence"))
	}))
	defer server.Close()

	backend, err := NewIPFSBackend(IPFSConfig{APIURL: server.URL}, nil)
	if err != nil {
		t.Fatalf("NewIPFSBackend() error: %v", err)
	}

	rc, err := backend.Get(context.Background(), testCIDv1)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "evidence" {
		t.Errorf("content = %q, want %q", data, "evidence")
	}

	if _, err := backend.Get(context.Background(), "bafyunknown"); err == nil {
		t.Error("Get() should fail for an unknown identifier")
	}
}

func TestIPFSBackendRequiresAPIURL(t *testing.T) {
	if _, err := NewIPFSBackend(IPFSConfig{}, nil); err == nil {
		t.Error("NewIPFSBackend() should require an API URL")
	}
}
