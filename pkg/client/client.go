// Package client implements a thin HTTP client over a single node's
// control surface, used by nurvusctl.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Client talks to one node's Control Surface.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Logger   *slog.Logger
	TLS      *TLSClientConfig
	Insecure bool
}

// TLSClientConfig holds TLS configuration for connecting to a node whose
// Control Surface is fronted by TLS (e.g. behind a reverse proxy).
type TLSClientConfig struct {
	Enabled    bool
	CACert     string
	ClientCert string
	ClientKey  string
	ServerName string
	SkipVerify bool
}

// DefaultConfig targets a node's Control Surface on its default port.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:4001",
		Timeout: 10 * time.Second,
	}
}

// New constructs a Client for baseURL (a node's Control Surface root).
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:4001"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	transport := &http.Transport{}
	if (config.TLS != nil && config.TLS.Enabled) || config.Insecure {
		tlsConfig, err := setupClientTLS(config)
		if err != nil {
			config.Logger.Error("TLS setup failed", "error", err)
		} else {
			transport.TLSClientConfig = tlsConfig
		}
	}

	return &Client{
		baseURL: config.BaseURL,
		logger:  config.Logger,
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
	}
}

// Health fetches GET /health.
func (c *Client) Health(ctx context.Context) (HealthBody, error) {
	var body HealthBody
	err := c.getJSON(ctx, "/health", &body)
	return body, err
}

// Platform fetches GET /api/platform.
func (c *Client) Platform(ctx context.Context) (PlatformInfo, error) {
	var body PlatformInfo
	err := c.getJSON(ctx, "/api/platform", &body)
	return body, err
}

// ListProcesses fetches GET /api/processes.
func (c *Client) ListProcesses(ctx context.Context) ([]ProcessSummary, error) {
	var body struct {
		Processes []ProcessSummary `json:"processes"`
	}
	err := c.getJSON(ctx, "/api/processes", &body)
	return body.Processes, err
}

// GetProcess fetches GET /api/processes/:id.
func (c *Client) GetProcess(ctx context.Context, id string) (ProcessDetail, error) {
	var body ProcessDetail
	err := c.getJSON(ctx, "/api/processes/"+id, &body)
	return body, err
}

// StartProcess calls POST /api/processes/:id/start.
func (c *Client) StartProcess(ctx context.Context, id string) error {
	return c.postJSON(ctx, "/api/processes/"+id+"/start")
}

// StopProcess calls POST /api/processes/:id/stop.
func (c *Client) StopProcess(ctx context.Context, id string) error {
	return c.postJSON(ctx, "/api/processes/"+id+"/stop")
}

// RestartProcess calls POST /api/processes/:id/restart.
func (c *Client) RestartProcess(ctx context.Context, id string) error {
	return c.postJSON(ctx, "/api/processes/"+id+"/restart")
}

// RunCommand relays argv to the node's generic /api/command endpoint,
// used for vocabulary entries (config get/list, cluster info) with no
// dedicated REST route.
func (c *Client) RunCommand(ctx context.Context, argv []string) (json.RawMessage, error) {
	data, err := json.Marshal(struct {
		Argv []string `json:"argv"`
	}{Argv: argv})
	if err != nil {
		return nil, fmt.Errorf("marshal command: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/command", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := handleErrorResponse(resp); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return raw, nil
}

// IsReachable reports whether the node's Control Surface answers /health.
func (c *Client) IsReachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("node unreachable", "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return true
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := handleErrorResponse(resp); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postJSON(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(nil))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("HTTP request failed", "error", err, "path", path)
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	return handleErrorResponse(resp)
}

func handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	var errorResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return fmt.Errorf("API error: %s", errorResp.Error)
}

func setupClientTLS(config Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{}
	if config.Insecure {
		tlsConfig.InsecureSkipVerify = true
		return tlsConfig, nil
	}
	if config.TLS != nil {
		if config.TLS.SkipVerify {
			tlsConfig.InsecureSkipVerify = true
		}
		if config.TLS.ServerName != "" {
			tlsConfig.ServerName = config.TLS.ServerName
		}
		if config.TLS.CACert != "" {
			if err := loadCACert(tlsConfig, config.TLS.CACert); err != nil {
				return nil, fmt.Errorf("failed to load CA certificate: %w", err)
			}
		}
		if config.TLS.ClientCert != "" && config.TLS.ClientKey != "" {
			cert, err := tls.LoadX509KeyPair(config.TLS.ClientCert, config.TLS.ClientKey)
			if err != nil {
				return nil, fmt.Errorf("failed to load client certificate: %w", err)
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
		}
	}
	return tlsConfig, nil
}

func loadCACert(tlsConfig *tls.Config, caCertPath string) error {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return fmt.Errorf("failed to read CA certificate file: %w", err)
	}
	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return fmt.Errorf("failed to parse CA certificate")
	}
	tlsConfig.RootCAs = caCertPool
	return nil
}
