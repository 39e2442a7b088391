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

// PinataConfig configures the Pinata pinning backend.
type PinataConfig struct {
	// JWT is the Pinata API bearer token.
	JWT string `yaml:"jwt"`

	// GatewayURL serves retrievals; defaults to Pinata's public gateway.
	GatewayURL string `yaml:"gateway_url"`

	Timeout time.Duration `yaml:"timeout"`
}

const pinataAPIURL = "https://api.pinata.cloud"

// PinataBackend pins content through the Pinata cloud API.
type PinataBackend struct {
	jwt        string
	gatewayURL string
	httpClient *http.Client
	logger     *logging.ColoredLogger
}

// NewPinataBackend builds the Pinata backend. A JWT is required.
func NewPinataBackend(cfg PinataConfig, logger *logging.ColoredLogger) (*PinataBackend, error) {
	if cfg.JWT == "" {
		return nil, fmt.Errorf("pinata backend requires a JWT")
	}
	gateway := cfg.GatewayURL
	if gateway == "" {
		gateway = "https://gateway.pinata.cloud/ipfs"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &PinataBackend{
		jwt:        cfg.JWT,
		gatewayURL: gateway,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

func (b *PinataBackend) Name() string { return "pinata" }

// Healthy checks the API key against Pinata's authentication test endpoint.
func (b *PinataBackend) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", pinataAPIURL+"/data/testAuthentication", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+b.jwt)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pinata authentication failed with status %d", resp.StatusCode)
	}
	return nil
}

// Put pins content via pinFileToIPFS.
func (b *PinataBackend) Put(ctx context.Context, reader io.Reader, name string) (*Result, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewStorageError("pinata", "put", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, errors.NewStorageError("pinata", "put", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, errors.NewStorageError("pinata", "put", err)
	}
	meta, _ := json.Marshal(map[string]string{"name": name})
	if err := writer.WriteField("pinataMetadata", string(meta)); err != nil {
		return nil, errors.NewStorageError("pinata", "put", err)
	}
	if err := writer.Close(); err != nil {
		return nil, errors.NewStorageError("pinata", "put", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", pinataAPIURL+"/pinning/pinFileToIPFS", &buf)
	if err != nil {
		return nil, errors.NewStorageError("pinata", "put", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+b.jwt)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewStorageError("pinata", "put", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.NewStorageError("pinata", "put",
			fmt.Errorf("pin failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var out struct {
		IpfsHash string `json:"IpfsHash"`
		PinSize  int64  `json:"PinSize"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.NewStorageError("pinata", "put", err)
	}
	if err := ValidateCID(out.IpfsHash); err != nil {
		return nil, errors.NewStorageError("pinata", "put", err)
	}

	return &Result{
		CID:      out.IpfsHash,
		URI:      fmt.Sprintf("%s/%s", b.gatewayURL, out.IpfsHash),
		Size:     int64(len(data)),
		Provider: b.Name(),
	}, nil
}

// Get retrieves content through the configured gateway.
func (b *PinataBackend) Get(ctx context.Context, id string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/%s", b.gatewayURL, id), nil)
	if err != nil {
		return nil, errors.NewStorageError("pinata", "get", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewStorageError("pinata", "get", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.NewStorageError("pinata", "get",
			fmt.Errorf("gateway returned status %d", resp.StatusCode))
	}
	return resp.Body, nil
}
