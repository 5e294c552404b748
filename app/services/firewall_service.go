package services

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/amirphl/Susanoo/config"
	"github.com/amirphl/Susanoo/utils"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/ssh"
)

// FirewallService opens and closes the PBX host firewall for subscriber IPs so
// their softphones can reach the SIP port. Commands run over SSH via fwconsole.
// Row bookkeeping for expiry lives in the trusted_ips table, not here.
type FirewallService interface {
	TrustIP(ctx context.Context, ip string) error
	UntrustIP(ctx context.Context, ip string) error
}

// FirewallServiceImpl implements FirewallService over SSH
type FirewallServiceImpl struct {
	cfg       *config.FirewallConfig
	rc        *redis.Client
	keyPrefix string
}

// NewFirewallService creates a firewall service. When the firewall is disabled
// a mock is returned so callers never branch on configuration.
func NewFirewallService(cfg *config.FirewallConfig, cacheCfg *config.CacheConfig, rc *redis.Client) FirewallService {
	if !cfg.Enabled {
		return NewMockFirewallService()
	}
	return &FirewallServiceImpl{
		cfg:       cfg,
		rc:        rc,
		keyPrefix: cacheCfg.RedisPrefix + utils.TrustedIPCacheKey + ":",
	}
}

// TrustIP whitelists an IP on the PBX firewall. A redis guard key suppresses
// redundant SSH round trips while a trust is still fresh.
func (s *FirewallServiceImpl) TrustIP(ctx context.Context, ip string) error {
	if net.ParseIP(ip) == nil {
		return fmt.Errorf("invalid ip address: %s", ip)
	}

	guardKey := s.keyPrefix + ip
	if s.rc != nil {
		ok, err := s.rc.SetNX(ctx, guardKey, "1", s.cfg.TrustTTL).Result()
		if err == nil && !ok {
			return nil
		}
	}

	output, err := s.runCommand(ctx, fmt.Sprintf("fwconsole firewall trust %s", ip))
	if err != nil || !strings.Contains(output, "Success") {
		if s.rc != nil {
			_ = s.rc.Del(context.Background(), guardKey).Err()
		}
		if err != nil {
			return fmt.Errorf("failed to trust ip %s: %w", ip, err)
		}
		return fmt.Errorf("failed to trust ip %s: unexpected fwconsole output", ip)
	}

	return nil
}

// UntrustIP removes an IP from the PBX firewall whitelist
func (s *FirewallServiceImpl) UntrustIP(ctx context.Context, ip string) error {
	if net.ParseIP(ip) == nil {
		return fmt.Errorf("invalid ip address: %s", ip)
	}

	if s.rc != nil {
		_ = s.rc.Del(ctx, s.keyPrefix+ip).Err()
	}

	output, err := s.runCommand(ctx, fmt.Sprintf("fwconsole firewall untrust %s", ip))
	if err != nil {
		return fmt.Errorf("failed to untrust ip %s: %w", ip, err)
	}
	if !strings.Contains(output, "Success") {
		return fmt.Errorf("failed to untrust ip %s: unexpected fwconsole output", ip)
	}

	return nil
}

// runCommand executes a single command on the PBX host
func (s *FirewallServiceImpl) runCommand(ctx context.Context, command string) (string, error) {
	sshConfig := &ssh.ClientConfig{
		User:            s.cfg.SSHUser,
		Auth:            s.authMethods(),
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         s.cfg.SSHTimeout,
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.SSHHost, s.cfg.SSHPort)
	client, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return "", fmt.Errorf("ssh dial %s: %w", addr, err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("ssh session: %w", err)
	}
	defer session.Close()

	type result struct {
		output []byte
		err    error
	}
	done := make(chan result, 1)
	go func() {
		out, cmdErr := session.CombinedOutput(command)
		done <- result{output: out, err: cmdErr}
	}()

	select {
	case <-ctx.Done():
		session.Close()
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return string(res.output), fmt.Errorf("ssh command: %w", res.err)
		}
		return string(res.output), nil
	}
}

func (s *FirewallServiceImpl) authMethods() []ssh.AuthMethod {
	methods := make([]ssh.AuthMethod, 0, 2)
	if s.cfg.SSHPrivateKey != "" {
		if signer, err := ssh.ParsePrivateKey([]byte(s.cfg.SSHPrivateKey)); err == nil {
			methods = append(methods, ssh.PublicKeys(signer))
		}
	}
	if s.cfg.SSHPassword != "" {
		methods = append(methods, ssh.Password(s.cfg.SSHPassword))
	}
	return methods
}

// MockFirewallService implements FirewallService for testing and for
// deployments without SSH access to the PBX host
type MockFirewallService struct {
	mu sync.Mutex

	TrustedIPs   []string
	UntrustedIPs []string
	FailWith     error
}

// NewMockFirewallService creates a new mock firewall service
func NewMockFirewallService() *MockFirewallService {
	return &MockFirewallService{
		TrustedIPs:   make([]string, 0),
		UntrustedIPs: make([]string, 0),
	}
}

// TrustIP records the trusted IP
func (m *MockFirewallService) TrustIP(ctx context.Context, ip string) error {
	if net.ParseIP(ip) == nil {
		return fmt.Errorf("invalid ip address: %s", ip)
	}
	if m.FailWith != nil {
		return m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TrustedIPs = append(m.TrustedIPs, ip)
	return nil
}

// UntrustIP records the untrusted IP
func (m *MockFirewallService) UntrustIP(ctx context.Context, ip string) error {
	if net.ParseIP(ip) == nil {
		return fmt.Errorf("invalid ip address: %s", ip)
	}
	if m.FailWith != nil {
		return m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UntrustedIPs = append(m.UntrustedIPs, ip)
	return nil
}
