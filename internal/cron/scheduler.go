package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"paygateway/internal/config"
	"paygateway/internal/metrics"
)

// AuditCounter counts audit records left without a processor response.
type AuditCounter interface {
	CountStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler manages background jobs.
type Scheduler struct {
	cron    *cron.Cron
	cfg     config.CronConfig
	audits  AuditCounter
	metrics *metrics.GatewayMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a new cron scheduler.
func New(cfg config.CronConfig, audits AuditCounter, m *metrics.GatewayMetrics, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		cfg:     cfg,
		audits:  audits,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Start registers and starts all jobs.
func (s *Scheduler) Start() error {
	s.logger.Info("Starting cron scheduler...")

	// Stale audit sweep - every 5 minutes by default
	_, err := s.cron.AddFunc(s.cfg.StaleAuditSpec, func() {
		s.logger.Debug("Running: stale audit sweep")
		s.staleAuditSweep()
	})
	if err != nil {
		return fmt.Errorf("invalid stale audit spec %q: %w", s.cfg.StaleAuditSpec, err)
	}

	s.cron.Start()
	s.logger.Info("Cron scheduler started")
	return nil
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// staleAuditSweep reports audit records whose processor request was sent
// but whose response never got stored, which points at a crash or a lost
// connection mid-dispatch.
func (s *Scheduler) staleAuditSweep() {
	defer s.recoverFromPanic("staleAuditSweep")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := s.now().Add(-s.cfg.StaleAfter)
	count, err := s.audits.CountStale(ctx, cutoff)
	if err != nil {
		s.logger.Error("Stale audit sweep failed", zap.Error(err))
		return
	}
	s.metrics.SetStaleAuditRecords(count)
	if count > 0 {
		s.logger.Warn("Audit records without processor response",
			zap.Int64("count", count),
			zap.Time("older_than", cutoff),
		)
	}
}

func (s *Scheduler) recoverFromPanic(jobName string) {
	if r := recover(); r != nil {
		s.logger.Error("Cron job panicked", zap.String("job", jobName), zap.Any("error", r))
	}
}
