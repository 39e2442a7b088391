package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DeBrosOfficial/agentpay/pkg/errors"
	"github.com/DeBrosOfficial/agentpay/pkg/logging"
)

// IrysConfig configures the Irys permanent-storage backend.
type IrysConfig struct {
	// NodeURL is the Irys upload node (e.g. "https://node2.irys.xyz").
	NodeURL string `yaml:"node_url"`

	// Token authorizes uploads against the node.
	Token string `yaml:"token"`

	// GatewayURL serves retrievals; defaults to the public Irys gateway.
	GatewayURL string `yaml:"gateway_url"`

	Timeout time.Duration `yaml:"timeout"`
}

// IrysBackend uploads to Irys for permanent Arweave-backed storage.
// Irys identifies content by transaction id rather than an IPFS CID.
type IrysBackend struct {
	nodeURL    string
	token      string
	gatewayURL string
	httpClient *http.Client
	logger     *logging.ColoredLogger
}

// NewIrysBackend builds the Irys backend. Node URL and token are required.
func NewIrysBackend(cfg IrysConfig, logger *logging.ColoredLogger) (*IrysBackend, error) {
	if cfg.NodeURL == "" || cfg.Token == "" {
		return nil, fmt.Errorf("irys backend requires a node URL and token")
	}
	gateway := cfg.GatewayURL
	if gateway == "" {
		gateway = "https://gateway.irys.xyz"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &IrysBackend{
		nodeURL:    cfg.NodeURL,
		token:      cfg.Token,
		gatewayURL: gateway,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

func (b *IrysBackend) Name() string { return "irys" }

// Healthy checks the node's info endpoint.
func (b *IrysBackend) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", b.nodeURL+"/info", nil)
	if err != nil {
		return err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("irys node returned status %d", resp.StatusCode)
	}
	return nil
}

// Put uploads a data item and returns its transaction id.
func (b *IrysBackend) Put(ctx context.Context, reader io.Reader, name string) (*Result, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewStorageError("irys", "put", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", b.nodeURL+"/tx", bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewStorageError("irys", "put", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Authorization", "Bearer "+b.token)
	req.Header.Set("X-Irys-File-Name", name)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewStorageError("irys", "put", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.NewStorageError("irys", "put",
			fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.NewStorageError("irys", "put", err)
	}
	if out.ID == "" {
		return nil, errors.NewStorageError("irys", "put", fmt.Errorf("upload response missing id"))
	}

	return &Result{
		CID:      out.ID,
		URI:      fmt.Sprintf("%s/%s", b.gatewayURL, out.ID),
		Size:     int64(len(data)),
		Provider: b.Name(),
	}, nil
}

// Get retrieves a data item through the gateway.
func (b *IrysBackend) Get(ctx context.Context, id string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/%s", b.gatewayURL, id), nil)
	if err != nil {
		return nil, errors.NewStorageError("irys", "get", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewStorageError("irys", "get", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.NewStorageError("irys", "get",
			fmt.Errorf("gateway returned status %d", resp.StatusCode))
	}
	return resp.Body, nil
}
