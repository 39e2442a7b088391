package storage

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/DeBrosOfficial/agentpay/pkg/errors"
	"github.com/DeBrosOfficial/agentpay/pkg/logging"
)

// IPFSConfig configures the local IPFS node backend.
type IPFSConfig struct {
	// APIURL is the IPFS HTTP API base URL (e.g. "http://localhost:5001").
	APIURL string `yaml:"api_url"`

	// GatewayURL serves retrievals; defaults to the public ipfs.io gateway.
	GatewayURL string `yaml:"gateway_url"`

	// Timeout for upload and retrieval requests; defaults to 60 seconds.
	Timeout time.Duration `yaml:"timeout"`
}

// IPFSBackend talks to a local IPFS node's HTTP API.
type IPFSBackend struct {
	apiURL     string
	gatewayURL string
	httpClient *http.Client
	logger     *logging.ColoredLogger
}

// NewIPFSBackend builds the local-node backend. An API URL is required.
func NewIPFSBackend(cfg IPFSConfig, logger *logging.ColoredLogger) (*IPFSBackend, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("ipfs backend requires an API URL")
	}
	gateway := cfg.GatewayURL
	if gateway == "" {
		gateway = "https://ipfs.io/ipfs"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &IPFSBackend{
		apiURL:     cfg.APIURL,
		gatewayURL: gateway,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

func (b *IPFSBackend) Name() string { return "ipfs" }

// Healthy checks the node's version endpoint.
func (b *IPFSBackend) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "POST", b.apiURL+"/api/v0/version", nil)
	if err != nil {
		return err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ipfs health check failed with status %d", resp.StatusCode)
	}
	return nil
}

// Put adds content to the node and pins it.
func (b *IPFSBackend) Put(ctx context.Context, reader io.Reader, name string) (*Result, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewStorageError("ipfs", "put", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, errors.NewStorageError("ipfs", "put", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, errors.NewStorageError("ipfs", "put", err)
	}
	if err := writer.Close(); err != nil {
		return nil, errors.NewStorageError("ipfs", "put", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", b.apiURL+"/api/v0/add?pin=true&cid-version=1", &buf)
	if err != nil {
		return nil, errors.NewStorageError("ipfs", "put", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewStorageError("ipfs", "put", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.NewStorageError("ipfs", "put",
			fmt.Errorf("add failed with status %d: %s", resp.StatusCode, string(body)))
	}

	// The add endpoint streams NDJSON; the last object is the root.
	var last struct {
		Name string `json:"Name"`
		Hash string `json:"Hash"`
	}
	hasResult := false
	dec := json.NewDecoder(resp.Body)
	for {
		var chunk struct {
			Name string `json:"Name"`
			Hash string `json:"Hash"`
		}
		if err := dec.Decode(&chunk); err != nil {
			if stderrors.Is(err, io.EOF) {
				break
			}
			return nil, errors.NewStorageError("ipfs", "put", err)
		}
		last = chunk
		hasResult = true
	}
	if !hasResult || last.Hash == "" {
		return nil, errors.NewStorageError("ipfs", "put", fmt.Errorf("add response missing CID"))
	}
	if err := ValidateCID(last.Hash); err != nil {
		return nil, errors.NewStorageError("ipfs", "put", err)
	}

	return &Result{
		CID:      last.Hash,
		URI:      fmt.Sprintf("%s/%s", b.gatewayURL, last.Hash),
		Size:     int64(len(data)),
		Provider: b.Name(),
	}, nil
}

// Get retrieves content through the node's cat endpoint.
func (b *IPFSBackend) Get(ctx context.Context, id string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", b.apiURL+"/api/v0/cat?arg="+id, nil)
	if err != nil {
		return nil, errors.NewStorageError("ipfs", "get", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewStorageError("ipfs", "get", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.NewStorageError("ipfs", "get",
			fmt.Errorf("cat failed with status %d", resp.StatusCode))
	}
	return resp.Body, nil
}
