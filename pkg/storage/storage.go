// Package storage uploads payment evidence to content-addressed storage.
// A fixed priority list of backends is probed at construction; uploads go
// to the first healthy backend and fall back through the rest on failure.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/ipfs/go-cid"
)

// Result describes an uploaded object.
type Result struct {
	CID      string `json:"cid"`
	URI      string `json:"uri"`
	Size     int64  `json:"size"`
	Provider string `json:"provider"`
}

// Backend is one content-addressed storage provider.
type Backend interface {
	// Name identifies the provider ("ipfs", "pinata", "irys", "filebase").
	Name() string

	// Put uploads content and returns its content identifier.
	Put(ctx context.Context, reader io.Reader, name string) (*Result, error)

	// Get retrieves previously uploaded content by identifier.
	Get(ctx context.Context, id string) (io.ReadCloser, error)

	// Healthy reports whether the backend is reachable.
	Healthy(ctx context.Context) error
}

// ValidateCID checks that a backend returned a well-formed CID.
func ValidateCID(s string) error {
	if _, err := cid.Decode(s); err != nil {
		return fmt.Errorf("invalid content identifier %q: %w", s, err)
	}
	return nil
}
