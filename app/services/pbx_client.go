package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/amirphl/Susanoo/config"
	"github.com/amirphl/Susanoo/utils"
)

// ProvisionReason classifies a failed extension allocation
type ProvisionReason string

const (
	ProvisionReasonTimeout     ProvisionReason = "timeout"
	ProvisionReasonRejected    ProvisionReason = "rejected"
	ProvisionReasonUnreachable ProvisionReason = "unreachable"
)

// ProvisionError is returned when the PBX could not allocate an extension.
// Transient errors are retried within the allocation deadline; non-transient
// errors stop the attempt loop immediately.
type ProvisionError struct {
	Reason     ProvisionReason
	StatusCode int
	Transient  bool
	Err        error
}

func (e *ProvisionError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("pbx provisioning failed (%s, status %d): %v", e.Reason, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("pbx provisioning failed (%s): %v", e.Reason, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// ExtensionAllocation is the result of a successful allocation
type ExtensionAllocation struct {
	Extension   string
	Secret      string
	DisplayName string
}

// ExtensionInfo describes an extension already present on the PBX
type ExtensionInfo struct {
	Extension   string
	DisplayName string
	Tech        string
}

// PBXClient provisions SIP extensions on the telephony server. AllocateExtension
// owns the retry policy: the proposed number is deterministic per account, so
// every attempt targets the same remote resource.
type PBXClient interface {
	Name() string
	AllocateExtension(ctx context.Context, extension, displayName string) (*ExtensionAllocation, error)
	GetExtension(ctx context.Context, extension string) (*ExtensionInfo, error)
	RemoveExtension(ctx context.Context, extension string) error
}

// NewPBXClient creates a PBX client based on the configured provider
func NewPBXClient(cfg *config.PBXConfig) PBXClient {
	switch cfg.Provider {
	case "freepbx":
		return NewFreePBXClient(cfg)
	default:
		return NewMockPBXClient()
	}
}

// FreePBXClient implements PBXClient against the FreePBX REST API
type FreePBXClient struct {
	cfg    *config.PBXConfig
	client *http.Client
}

// NewFreePBXClient creates a new FreePBX REST client
func NewFreePBXClient(cfg *config.PBXConfig) *FreePBXClient {
	return &FreePBXClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

func (c *FreePBXClient) Name() string { return "freepbx" }

// extensionRequest is the FreePBX core module payload for creating an extension
type extensionRequest struct {
	Extension    string `json:"extension"`
	Name         string `json:"name"`
	Secret       string `json:"secret"`
	Tech         string `json:"tech"`
	Dial         string `json:"dial"`
	DeviceType   string `json:"devicetype"`
	Description  string `json:"description"`
	Voicemail    string `json:"vm"`
	VoicemailPwd string `json:"vmpwd"`
}

type extensionResponse struct {
	Extension string `json:"extension"`
	Name      string `json:"name"`
	Tech      string `json:"tech"`
}

// AllocateExtension creates the extension on the PBX, retrying transient
// failures with exponential backoff under one shared deadline. The secret is
// generated once per allocation, not per attempt, so a retry that races a
// successful earlier attempt still lands on the same credentials.
func (c *FreePBXClient) AllocateExtension(ctx context.Context, extension, displayName string) (*ExtensionAllocation, error) {
	secret, err := generateSIPSecret()
	if err != nil {
		return nil, &ProvisionError{Reason: ProvisionReasonRejected, Err: err}
	}

	overallCtx, cancel := context.WithTimeout(ctx, c.cfg.OverallTimeout)
	defer cancel()

	var lastErr *ProvisionError
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			backoff := c.cfg.RetryBackoff * time.Duration(1<<(attempt-2))
			select {
			case <-overallCtx.Done():
				return nil, &ProvisionError{Reason: ProvisionReasonTimeout, Err: overallCtx.Err()}
			case <-time.After(backoff):
			}
		}

		perr := c.createExtension(overallCtx, extension, displayName, secret)
		if perr == nil {
			c.reloadDialplan()
			return &ExtensionAllocation{Extension: extension, Secret: secret, DisplayName: displayName}, nil
		}

		// The proposal is deterministic, so a conflict means an earlier
		// attempt already landed this extension. Confirm and reuse it.
		if perr.StatusCode == http.StatusConflict {
			if info, gerr := c.GetExtension(overallCtx, extension); gerr == nil && info != nil {
				c.reloadDialplan()
				return &ExtensionAllocation{Extension: extension, Secret: secret, DisplayName: displayName}, nil
			}
			return nil, perr
		}

		if !perr.Transient {
			return nil, perr
		}
		lastErr = perr
	}

	return nil, lastErr
}

// createExtension performs a single allocation attempt with its own timeout
func (c *FreePBXClient) createExtension(ctx context.Context, extension, displayName, secret string) *ProvisionError {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	payload := extensionRequest{
		Extension:    extension,
		Name:         displayName,
		Secret:       secret,
		Tech:         "pjsip",
		Dial:         "PJSIP/" + extension,
		DeviceType:   "fixed",
		Description:  "Auto-created for " + displayName,
		Voicemail:    "yes",
		VoicemailPwd: extension,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &ProvisionError{Reason: ProvisionReasonRejected, Err: err}
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.restBase()+"/core/extensions", bytes.NewReader(body))
	if err != nil {
		return &ProvisionError{Reason: ProvisionReasonRejected, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.APIUser, c.cfg.APIPassword)

	resp, err := c.client.Do(req)
	if err != nil {
		return c.classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict:
		return &ProvisionError{Reason: ProvisionReasonRejected, StatusCode: resp.StatusCode, Err: fmt.Errorf("extension %s already exists", extension)}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &ProvisionError{Reason: ProvisionReasonRejected, StatusCode: resp.StatusCode, Err: fmt.Errorf("pbx rejected api credentials")}
	case resp.StatusCode >= 500:
		return &ProvisionError{Reason: ProvisionReasonUnreachable, StatusCode: resp.StatusCode, Transient: true, Err: fmt.Errorf("pbx returned status %d", resp.StatusCode)}
	default:
		return &ProvisionError{Reason: ProvisionReasonRejected, StatusCode: resp.StatusCode, Err: fmt.Errorf("pbx returned status %d", resp.StatusCode)}
	}
}

// classifyTransportError maps a failed round trip to a provisioning reason.
// The shared deadline expiring ends the allocation; a per-attempt timeout or
// network error is retried.
func (c *FreePBXClient) classifyTransportError(overallCtx context.Context, err error) *ProvisionError {
	if overallCtx.Err() != nil {
		return &ProvisionError{Reason: ProvisionReasonTimeout, Err: overallCtx.Err()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProvisionError{Reason: ProvisionReasonTimeout, Transient: true, Err: err}
	}
	return &ProvisionError{Reason: ProvisionReasonUnreachable, Transient: true, Err: err}
}

// GetExtension fetches an extension from the PBX. Returns (nil, nil) when the
// extension does not exist.
func (c *FreePBXClient) GetExtension(ctx context.Context, extension string) (*ExtensionInfo, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, c.restBase()+"/core/extensions/"+extension, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.cfg.APIUser, c.cfg.APIPassword)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pbx returned status %d for extension %s", resp.StatusCode, extension)
	}

	var er extensionResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("malformed pbx response: %w", err)
	}
	info := &ExtensionInfo{Extension: er.Extension, DisplayName: er.Name, Tech: er.Tech}
	if info.Extension == "" {
		info.Extension = extension
	}
	return info, nil
}

// RemoveExtension deletes an extension from the PBX. Missing extensions are
// treated as already removed.
func (c *FreePBXClient) RemoveExtension(ctx context.Context, extension string) error {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodDelete, c.restBase()+"/core/extensions/"+extension, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.cfg.APIUser, c.cfg.APIPassword)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pbx returned status %d deleting extension %s", resp.StatusCode, extension)
	}

	c.reloadDialplan()
	return nil
}

// reloadDialplan applies pending PBX changes. Best effort: the extension is
// already committed on the server, so a failed reload is not a failed
// allocation. Runs detached from the caller's deadline.
func (c *FreePBXClient) reloadDialplan() {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ReloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.restBase()+"/core/reload", nil)
	if err != nil {
		return
	}
	req.SetBasicAuth(c.cfg.APIUser, c.cfg.APIPassword)

	resp, err := c.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}

func (c *FreePBXClient) restBase() string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/admin/api/api/rest.php/rest"
}

const sipSecretCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateSIPSecret generates a random alphanumeric SIP secret using crypto/rand
func generateSIPSecret() (string, error) {
	secret := make([]byte, utils.SIPSecretLength)
	max := big.NewInt(int64(len(sipSecretCharset)))
	for i := range secret {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		secret[i] = sipSecretCharset[n.Int64()]
	}
	return string(secret), nil
}

// MockPBXClient implements PBXClient for testing and local deployments
type MockPBXClient struct {
	mu sync.Mutex

	// FailuresBeforeSuccess makes the next N allocation attempts fail with
	// FailWith before succeeding.
	FailuresBeforeSuccess int
	FailWith              *ProvisionError
	RemoveFailWith        error

	Extensions    map[string]*ExtensionAllocation
	AllocateCalls []string
	RemoveCalls   []string
}

// NewMockPBXClient creates a new mock PBX client
func NewMockPBXClient() *MockPBXClient {
	return &MockPBXClient{
		Extensions: make(map[string]*ExtensionAllocation),
	}
}

func (m *MockPBXClient) Name() string { return "mock" }

// AllocateExtension records the call and allocates in memory
func (m *MockPBXClient) AllocateExtension(ctx context.Context, extension, displayName string) (*ExtensionAllocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AllocateCalls = append(m.AllocateCalls, extension)

	if m.FailuresBeforeSuccess > 0 {
		m.FailuresBeforeSuccess--
		if m.FailWith != nil {
			return nil, m.FailWith
		}
		return nil, &ProvisionError{Reason: ProvisionReasonUnreachable, Transient: true, Err: fmt.Errorf("mock pbx unavailable")}
	}

	if existing, ok := m.Extensions[extension]; ok {
		return existing, nil
	}

	secret, err := generateSIPSecret()
	if err != nil {
		return nil, &ProvisionError{Reason: ProvisionReasonRejected, Err: err}
	}

	allocation := &ExtensionAllocation{Extension: extension, Secret: secret, DisplayName: displayName}
	m.Extensions[extension] = allocation
	return allocation, nil
}

// GetExtension returns the in-memory extension, or (nil, nil) when absent
func (m *MockPBXClient) GetExtension(ctx context.Context, extension string) (*ExtensionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	allocation, ok := m.Extensions[extension]
	if !ok {
		return nil, nil
	}
	return &ExtensionInfo{Extension: allocation.Extension, DisplayName: allocation.DisplayName, Tech: "pjsip"}, nil
}

// RemoveExtension removes the in-memory extension
func (m *MockPBXClient) RemoveExtension(ctx context.Context, extension string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RemoveCalls = append(m.RemoveCalls, extension)
	if m.RemoveFailWith != nil {
		return m.RemoveFailWith
	}
	delete(m.Extensions, extension)
	return nil
}
