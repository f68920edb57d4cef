package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"paygateway/internal/config"
	"paygateway/internal/metrics"
)

type fakeCounter struct {
	count  int64
	err    error
	panics bool
	cutoff time.Time
}

func (f *fakeCounter) CountStale(_ context.Context, cutoff time.Time) (int64, error) {
	if f.panics {
		panic("lost connection")
	}
	f.cutoff = cutoff
	return f.count, f.err
}

func newTestScheduler(counter AuditCounter, m *metrics.GatewayMetrics) (*Scheduler, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := config.CronConfig{StaleAuditSpec: "0 */5 * * * *", StaleAfter: 15 * time.Minute}
	s := New(cfg, counter, m, zap.New(core))
	s.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s, logs
}

func TestStaleAuditSweep(t *testing.T) {
	m := metrics.NewGatewayMetrics(prometheus.NewRegistry())
	counter := &fakeCounter{count: 3}
	s, logs := newTestScheduler(counter, m)

	s.staleAuditSweep()

	assert.Equal(t, time.Date(2026, 5, 1, 11, 45, 0, 0, time.UTC), counter.cutoff)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.StaleAuditRecords))
	warnings := logs.FilterMessage("Audit records without processor response").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, int64(3), warnings[0].ContextMap()["count"])
}

func TestStaleAuditSweepClean(t *testing.T) {
	m := metrics.NewGatewayMetrics(prometheus.NewRegistry())
	s, logs := newTestScheduler(&fakeCounter{}, m)

	s.staleAuditSweep()

	assert.Zero(t, testutil.ToFloat64(m.StaleAuditRecords))
	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestStaleAuditSweepErrors(t *testing.T) {
	s, logs := newTestScheduler(&fakeCounter{err: errors.New("db down")}, nil)
	s.staleAuditSweep()
	assert.Equal(t, 1, logs.FilterMessage("Stale audit sweep failed").Len())

	s, logs = newTestScheduler(&fakeCounter{panics: true}, nil)
	assert.NotPanics(t, s.staleAuditSweep)
	assert.Equal(t, 1, logs.FilterMessage("Cron job panicked").Len())
}

func TestStartRejectsBadSpec(t *testing.T) {
	s, _ := newTestScheduler(&fakeCounter{}, nil)
	s.cfg.StaleAuditSpec = "every five minutes"
	assert.Error(t, s.Start())

	s, _ = newTestScheduler(&fakeCounter{}, nil)
	require.NoError(t, s.Start())
	<-s.Stop().Done()
}
