package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func TestClassifyWorkerRunReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			want: WorkerRunReasonDeadlineExceeded,
		},
		{
			name: "engine",
			err:  &EngineFailure{Err: errors.New("render crashed")},
			want: WorkerRunReasonEngine,
		},
		{
			name: "db_lock_timeout",
			err:  &pgconn.PgError{Code: "55P03"},
			want: WorkerRunReasonDBLockTimeout,
		},
		{
			name: "serialization_failure",
			err:  &pgconn.PgError{Code: "40001"},
			want: WorkerRunReasonSerialization,
		},
		{
			name: "unique_violation",
			err:  gorm.ErrDuplicatedKey,
			want: WorkerRunReasonUniqueViolation,
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: WorkerRunReasonUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyWorkerRunReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestIncRunFinished(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newWorkerMetrics(registry, Config{
		ServiceName: "traffictuner",
		Environment: "test",
	})

	metrics.IncRunFinished("full", "succeeded")
	metrics.IncRunFinished("full", "succeeded")
	metrics.IncRunFinished("quick", "failed")

	got := testutil.ToFloat64(metrics.runsFinished.WithLabelValues("full", "succeeded"))
	if got != 2 {
		t.Fatalf("expected finished count 2, got %v", got)
	}
	got = testutil.ToFloat64(metrics.runsFinished.WithLabelValues("quick", "failed"))
	if got != 1 {
		t.Fatalf("expected finished count 1, got %v", got)
	}
}
