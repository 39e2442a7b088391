package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/DeBrosOfficial/agentpay/pkg/errors"
	"github.com/DeBrosOfficial/agentpay/pkg/logging"
)

// FilebaseConfig configures the Filebase IPFS pinning backend.
type FilebaseConfig struct {
	// Token is the Filebase IPFS RPC bearer token.
	Token string `yaml:"token"`

	// RPCURL defaults to Filebase's public IPFS RPC endpoint.
	RPCURL string `yaml:"rpc_url"`

	// GatewayURL serves retrievals.
	GatewayURL string `yaml:"gateway_url"`

	Timeout time.Duration `yaml:"timeout"`
}

// FilebaseBackend pins content through Filebase's IPFS RPC API, which
// mirrors the go-ipfs HTTP API surface.
type FilebaseBackend struct {
	token      string
	rpcURL     string
	gatewayURL string
	httpClient *http.Client
	logger     *logging.ColoredLogger
}

// NewFilebaseBackend builds the Filebase backend. A token is required.
func NewFilebaseBackend(cfg FilebaseConfig, logger *logging.ColoredLogger) (*FilebaseBackend, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("filebase backend requires a token")
	}
	rpcURL := cfg.RPCURL
	if rpcURL == "" {
		rpcURL = "https://rpc.filebase.io"
	}
	gateway := cfg.GatewayURL
	if gateway == "" {
		gateway = "https://ipfs.filebase.io/ipfs"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &FilebaseBackend{
		token:      cfg.Token,
		rpcURL:     rpcURL,
		gatewayURL: gateway,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

func (b *FilebaseBackend) Name() string { return "filebase" }

// Healthy verifies the token against the RPC version endpoint.
func (b *FilebaseBackend) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "POST", b.rpcURL+"/api/v0/version", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+b.token)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("filebase returned status %d", resp.StatusCode)
	}
	return nil
}

// Put adds and pins content through the RPC add endpoint.
func (b *FilebaseBackend) Put(ctx context.Context, reader io.Reader, name string) (*Result, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewStorageError("filebase", "put", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, errors.NewStorageError("filebase", "put", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, errors.NewStorageError("filebase", "put", err)
	}
	if err := writer.Close(); err != nil {
		return nil, errors.NewStorageError("filebase", "put", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", b.rpcURL+"/api/v0/add?cid-version=1", &buf)
	if err != nil {
		return nil, errors.NewStorageError("filebase", "put", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+b.token)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewStorageError("filebase", "put", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.NewStorageError("filebase", "put",
			fmt.Errorf("add failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var out struct {
		Hash string `json:"Hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.NewStorageError("filebase", "put", err)
	}
	if err := ValidateCID(out.Hash); err != nil {
		return nil, errors.NewStorageError("filebase", "put", err)
	}

	return &Result{
		CID:      out.Hash,
		URI:      fmt.Sprintf("%s/%s", b.gatewayURL, out.Hash),
		Size:     int64(len(data)),
		Provider: b.Name(),
	}, nil
}

// Get retrieves content through the Filebase gateway.
func (b *FilebaseBackend) Get(ctx context.Context, id string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/%s", b.gatewayURL, id), nil)
	if err != nil {
		return nil, errors.NewStorageError("filebase", "get", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewStorageError("filebase", "get", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.NewStorageError("filebase", "get",
			fmt.Errorf("gateway returned status %d", resp.StatusCode))
	}
	return resp.Body, nil
}
