package storage

import (
	"bytes"
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/agentpay/pkg/errors"
	"github.com/DeBrosOfficial/agentpay/pkg/logging"
)

// Config carries the credentials for every supported backend. Backends
// with no credentials configured are skipped during construction.
type Config struct {
	IPFS     IPFSConfig     `yaml:"ipfs"`
	Pinata   PinataConfig   `yaml:"pinata"`
	Irys     IrysConfig     `yaml:"irys"`
	Filebase FilebaseConfig `yaml:"filebase"`
}

// Selector owns the ordered backend list. The first constructible backend
// is preferred; every upload falls back through the remaining backends in
// list order when the preferred one fails.
type Selector struct {
	backends []Backend
	logger   *logging.ColoredLogger
}

// builders is the fixed probe order.
var builders = []struct {
	name  string
	build func(cfg Config, logger *logging.ColoredLogger) (Backend, error)
}{
	{"ipfs", func(cfg Config, logger *logging.ColoredLogger) (Backend, error) {
		return NewIPFSBackend(cfg.IPFS, logger)
	}},
	{"pinata", func(cfg Config, logger *logging.ColoredLogger) (Backend, error) {
		return NewPinataBackend(cfg.Pinata, logger)
	}},
	{"irys", func(cfg Config, logger *logging.ColoredLogger) (Backend, error) {
		return NewIrysBackend(cfg.Irys, logger)
	}},
	{"filebase", func(cfg Config, logger *logging.ColoredLogger) (Backend, error) {
		return NewFilebaseBackend(cfg.Filebase, logger)
	}},
}

// NewSelector probes the backends in priority order and keeps every one
// that constructs. Construction failures are logged and skipped; at least
// one backend must survive.
func NewSelector(cfg Config, logger *logging.ColoredLogger) (*Selector, error) {
	var backends []Backend
	for _, b := range builders {
		backend, err := b.build(cfg, logger)
		if err != nil {
			if logger != nil {
				logger.ComponentDebug(logging.ComponentStorage, "backend unavailable",
					zap.String("provider", b.name),
					zap.Error(err),
				)
			}
			continue
		}
		backends = append(backends, backend)
	}
	if len(backends) == 0 {
		return nil, errors.ErrNoStorageBackend
	}
	return newSelector(backends, logger), nil
}

func newSelector(backends []Backend, logger *logging.ColoredLogger) *Selector {
	return &Selector{backends: backends, logger: logger}
}

// Preferred returns the backend uploads are tried against first.
func (s *Selector) Preferred() Backend {
	return s.backends[0]
}

// Backends returns the active backends in priority order.
func (s *Selector) Backends() []Backend {
	return s.backends
}

// Put uploads to the preferred backend, walking the remaining backends in
// order on failure. Only the last failure is kept when all backends fail.
func (s *Selector) Put(ctx context.Context, reader io.Reader, name string) (*Result, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewStorageError("", "put", err)
	}

	var lastErr error
	for _, backend := range s.backends {
		result, err := backend.Put(ctx, bytes.NewReader(data), name)
		if err != nil {
			lastErr = err
			if s.logger != nil {
				s.logger.ComponentWarn(logging.ComponentStorage, "upload failed, trying next backend",
					zap.String("provider", backend.Name()),
					zap.Error(err),
				)
			}
			continue
		}
		if s.logger != nil {
			s.logger.ComponentInfo(logging.ComponentStorage, "content stored",
				zap.String("provider", result.Provider),
				zap.String("cid", result.CID),
			)
		}
		return result, nil
	}

	return nil, errors.NewStorageError("all", "put", lastErr)
}

// Get retrieves content, walking backends in priority order until one
// serves the identifier.
func (s *Selector) Get(ctx context.Context, id string) (io.ReadCloser, error) {
	var lastErr error
	for _, backend := range s.backends {
		rc, err := backend.Get(ctx, id)
		if err != nil {
			lastErr = err
			continue
		}
		return rc, nil
	}
	return nil, errors.NewStorageError("all", "get", lastErr)
}
