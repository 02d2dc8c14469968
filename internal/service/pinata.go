package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"aira/internal/config"

	"go.uber.org/zap"
)

// ErrPinningDisabled is returned when no Pinata JWT is configured
var ErrPinningDisabled = errors.New("IPFS pinning is not configured")

// Pinner stores a file on IPFS and returns its content hash
type Pinner interface {
	Pin(ctx context.Context, filename, name string, file io.Reader) (string, error)
}

// PinataClient pins files through Pinata's pinFileToIPFS endpoint
type PinataClient struct {
	config     *config.PinataConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// PinResponse is Pinata's answer to a pin request
type PinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// NewPinataClient creates a Pinata client
func NewPinataClient(cfg *config.PinataConfig, logger *zap.Logger) *PinataClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PinataClient{
		config: cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// IsEnabled returns whether a Pinata JWT is configured
func (c *PinataClient) IsEnabled() bool {
	return c.config.JWT != ""
}

// Pin uploads file with metadata {name} and CID version 0
func (c *PinataClient) Pin(ctx context.Context, filename, name string, file io.Reader) (string, error) {
	if !c.IsEnabled() {
		return "", ErrPinningDisabled
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to copy file: %w", err)
	}

	metadata, _ := json.Marshal(map[string]string{"name": name})
	if err := w.WriteField("pinataMetadata", string(metadata)); err != nil {
		return "", fmt.Errorf("failed to write metadata: %w", err)
	}
	options, _ := json.Marshal(map[string]int{"cidVersion": 0})
	if err := w.WriteField("pinataOptions", string(options)); err != nil {
		return "", fmt.Errorf("failed to write options: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart body: %w", err)
	}

	url := strings.TrimRight(c.config.APIURL, "/") + "/pinning/pinFileToIPFS"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.config.JWT)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pinata request failed with status %d: %s", resp.StatusCode, truncate(string(respBody), 300))
	}

	var result PinResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if result.IpfsHash == "" {
		return "", fmt.Errorf("pinata response has no IpfsHash")
	}

	c.logger.Info("📌 File pinned to IPFS",
		zap.String("name", name),
		zap.String("ipfs_hash", result.IpfsHash),
		zap.Int64("size", result.PinSize))
	return result.IpfsHash, nil
}
