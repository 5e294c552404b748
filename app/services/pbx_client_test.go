// Package services provides external service integrations and technical concerns like provisioning and tokens
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirphl/Susanoo/config"
	"github.com/amirphl/Susanoo/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPBXConfig(baseURL string) *config.PBXConfig {
	return &config.PBXConfig{
		Provider:       "freepbx",
		BaseURL:        baseURL,
		APIUser:        "admin",
		APIPassword:    "api-secret",
		RequestTimeout: 2 * time.Second,
		ReloadTimeout:  200 * time.Millisecond,
		OverallTimeout: 5 * time.Second,
		MaxAttempts:    3,
		RetryBackoff:   time.Millisecond,
	}
}

func TestFreePBXAllocateExtensionSuccess(t *testing.T) {
	var createCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/core/extensions"):
			atomic.AddInt32(&createCalls, 1)

			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "admin", user)
			assert.Equal(t, "api-secret", pass)

			var req map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "1001", req["extension"])
			assert.Equal(t, "alice", req["name"])
			assert.Equal(t, "pjsip", req["tech"])
			assert.NotEmpty(t, req["secret"])

			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/core/reload"):
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewFreePBXClient(testPBXConfig(srv.URL))

	allocation, err := client.AllocateExtension(context.Background(), "1001", "alice")
	require.NoError(t, err)
	require.NotNil(t, allocation)
	assert.Equal(t, "1001", allocation.Extension)
	assert.Equal(t, "alice", allocation.DisplayName)
	assert.Len(t, allocation.Secret, utils.SIPSecretLength)
	assert.Equal(t, int32(1), atomic.LoadInt32(&createCalls))
}

func TestFreePBXAllocateExtensionRetriesServerErrors(t *testing.T) {
	var createCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/core/extensions") {
			n := atomic.AddInt32(&createCalls, 1)
			if n < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewFreePBXClient(testPBXConfig(srv.URL))

	allocation, err := client.AllocateExtension(context.Background(), "1002", "bob")
	require.NoError(t, err)
	require.NotNil(t, allocation)
	assert.Equal(t, int32(3), atomic.LoadInt32(&createCalls))
}

func TestFreePBXAllocateExtensionExhaustsAttempts(t *testing.T) {
	var createCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/core/extensions") {
			atomic.AddInt32(&createCalls, 1)
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewFreePBXClient(testPBXConfig(srv.URL))

	allocation, err := client.AllocateExtension(context.Background(), "1003", "carol")
	assert.Nil(t, allocation)

	var perr *ProvisionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ProvisionReasonUnreachable, perr.Reason)
	assert.True(t, perr.Transient)
	assert.Equal(t, http.StatusServiceUnavailable, perr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&createCalls))
}

func TestFreePBXAllocateExtensionRejectedCredentials(t *testing.T) {
	var createCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/core/extensions") {
			atomic.AddInt32(&createCalls, 1)
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewFreePBXClient(testPBXConfig(srv.URL))

	allocation, err := client.AllocateExtension(context.Background(), "1004", "dave")
	assert.Nil(t, allocation)

	var perr *ProvisionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ProvisionReasonRejected, perr.Reason)
	assert.False(t, perr.Transient)
	assert.Equal(t, http.StatusForbidden, perr.StatusCode)

	// Rejected credentials are terminal, no retries
	assert.Equal(t, int32(1), atomic.LoadInt32(&createCalls))
}

func TestFreePBXAllocateExtensionConflictConfirmsExisting(t *testing.T) {
	var createCalls, getCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/core/extensions"):
			atomic.AddInt32(&createCalls, 1)
			w.WriteHeader(http.StatusConflict)
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/core/extensions/1005"):
			atomic.AddInt32(&getCalls, 1)
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"extension":"1005","name":"erin","tech":"pjsip"}`)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	client := NewFreePBXClient(testPBXConfig(srv.URL))

	// A conflict on a deterministic proposal means a previous attempt landed
	// it, so the allocation is confirmed rather than failed.
	allocation, err := client.AllocateExtension(context.Background(), "1005", "erin")
	require.NoError(t, err)
	require.NotNil(t, allocation)
	assert.Equal(t, "1005", allocation.Extension)
	assert.Equal(t, int32(1), atomic.LoadInt32(&createCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&getCalls))
}

func TestFreePBXAllocateExtensionConflictWithoutExisting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/core/extensions"):
			w.WriteHeader(http.StatusConflict)
		case r.Method == http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	client := NewFreePBXClient(testPBXConfig(srv.URL))

	allocation, err := client.AllocateExtension(context.Background(), "1006", "frank")
	assert.Nil(t, allocation)

	var perr *ProvisionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusConflict, perr.StatusCode)
}

func TestFreePBXAllocateExtensionOverallDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	cfg := testPBXConfig(srv.URL)
	cfg.OverallTimeout = 100 * time.Millisecond
	client := NewFreePBXClient(cfg)

	allocation, err := client.AllocateExtension(context.Background(), "1007", "grace")
	assert.Nil(t, allocation)

	var perr *ProvisionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ProvisionReasonTimeout, perr.Reason)
}

func TestFreePBXGetExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/core/extensions/1001"):
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"extension":"1001","name":"alice","tech":"pjsip"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewFreePBXClient(testPBXConfig(srv.URL))

	info, err := client.GetExtension(context.Background(), "1001")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "1001", info.Extension)
	assert.Equal(t, "alice", info.DisplayName)
	assert.Equal(t, "pjsip", info.Tech)

	// Missing extension is (nil, nil), not an error
	info, err = client.GetExtension(context.Background(), "9999")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestFreePBXRemoveExtension(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		expectError bool
	}{
		{
			name:        "removed",
			status:      http.StatusOK,
			expectError: false,
		},
		{
			name:        "already gone",
			status:      http.StatusNotFound,
			expectError: false,
		},
		{
			name:        "server error",
			status:      http.StatusInternalServerError,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodDelete {
					w.WriteHeader(tt.status)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()

			client := NewFreePBXClient(testPBXConfig(srv.URL))

			err := client.RemoveExtension(context.Background(), "1001")
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewPBXClientProviderSelection(t *testing.T) {
	mock := NewPBXClient(&config.PBXConfig{Provider: "mock"})
	assert.Equal(t, "mock", mock.Name())

	freepbx := NewPBXClient(&config.PBXConfig{Provider: "freepbx"})
	assert.Equal(t, "freepbx", freepbx.Name())
}

func TestMockPBXClientFailuresBeforeSuccess(t *testing.T) {
	mock := NewMockPBXClient()
	mock.FailuresBeforeSuccess = 2

	_, err := mock.AllocateExtension(context.Background(), "1001", "alice")
	assert.Error(t, err)
	_, err = mock.AllocateExtension(context.Background(), "1001", "alice")
	assert.Error(t, err)

	allocation, err := mock.AllocateExtension(context.Background(), "1001", "alice")
	require.NoError(t, err)
	require.NotNil(t, allocation)
	assert.Len(t, mock.AllocateCalls, 3)

	// Re-allocating an existing extension returns the same credentials
	again, err := mock.AllocateExtension(context.Background(), "1001", "alice")
	require.NoError(t, err)
	assert.Equal(t, allocation.Secret, again.Secret)
}

func TestGenerateSIPSecret(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		secret, err := generateSIPSecret()
		require.NoError(t, err)
		assert.Len(t, secret, utils.SIPSecretLength)
		for _, ch := range secret {
			assert.Contains(t, sipSecretCharset, string(ch))
		}
		assert.False(t, seen[secret], "secrets must not repeat")
		seen[secret] = true
	}
}
