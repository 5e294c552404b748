// Package scheduler
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/amirphl/Susanoo/app/services"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
)

// FirewallScheduler periodically sweeps expired trusted IPs off the PBX firewall whitelist
type FirewallScheduler struct {
	trustedIPRepo repository.TrustedIPRepository
	firewallSvc   services.FirewallService
	logger        *log.Logger
	interval      time.Duration

	logFile *os.File
}

func NewFirewallScheduler(
	trustedIPRepo repository.TrustedIPRepository,
	firewallSvc services.FirewallService,
	interval time.Duration,
) *FirewallScheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	s := &FirewallScheduler{
		trustedIPRepo: trustedIPRepo,
		firewallSvc:   firewallSvc,
		interval:      interval,
	}

	// Initialize scheduler-specific logger (to stdout and persistent file)
	if err := s.initSchedulerLogger(); err != nil {
		// Fallback to default stdout logger if file logger init fails
		s.logger = log.Default()
		s.logger.Printf("scheduler: failed to initialize file logger: %v", err)
	}

	return s
}

// initSchedulerLogger configures a logger that writes to both stdout and a persistent file under data/ (or /data)
func (s *FirewallScheduler) initSchedulerLogger() error {
	// Prefer relative data/ then fallback to /data for containerized environments
	candidates := []string{
		filepath.Join("data"),
		"/data",
	}
	for _, dir := range candidates {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			continue
		}
		logPath := filepath.Join(dir, "scheduler.log")
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			continue
		}
		s.logFile = f
		mw := io.MultiWriter(os.Stdout, f)
		// log.Logger is goroutine-safe; include timestamps with microseconds and UTC
		s.logger = log.New(mw, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
		return nil
	}
	return fmt.Errorf("could not create scheduler log file in any candidate directory")
}

// Start launches the sweep loop in a background goroutine and returns a stop function
func (s *FirewallScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *FirewallScheduler) runOnce(ctx context.Context) {
	expired, err := s.trustedIPRepo.ListExpired(ctx, utils.UTCNow())
	if err != nil {
		s.logger.Printf("scheduler: list expired trusted IPs failed: %v", err)
		return
	}
	if len(expired) == 0 {
		return
	}
	s.logger.Printf("scheduler: %d trusted IPs expired", len(expired))

	removed := 0
	for _, row := range expired {
		if row == nil {
			continue
		}
		if err := s.untrustOne(ctx, row.IPAddress); err != nil {
			// Row stays; the next sweep retries the untrust
			s.logger.Printf("scheduler: untrust ip=%s failed: %v", row.IPAddress, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Printf("scheduler: removed %d expired trusted IPs", removed)
	}
}

// untrustOne removes one IP from the firewall whitelist and deletes its row.
// The firewall comes first: a row deleted before the untrust would leave the
// IP whitelisted forever with nothing left to sweep it.
func (s *FirewallScheduler) untrustOne(ctx context.Context, ip string) error {
	opCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.firewallSvc.UntrustIP(opCtx, ip); err != nil {
		return fmt.Errorf("firewall untrust: %w", err)
	}
	if err := s.trustedIPRepo.DeleteByIPAddress(opCtx, ip); err != nil {
		return fmt.Errorf("delete trusted ip row: %w", err)
	}
	return nil
}
