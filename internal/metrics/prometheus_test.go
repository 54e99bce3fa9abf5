package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetricsPrivateRegistry(t *testing.T) {
	// Two instances on separate registries must not collide.
	a := NewMetrics(prometheus.NewRegistry())
	b := NewMetrics(prometheus.NewRegistry())

	a.RecordSessionOpened()
	a.RecordSessionOpened()
	b.RecordSessionOpened()

	if got := testutil.ToFloat64(a.ActiveSessions); got != 2 {
		t.Errorf("Expected 2 active sessions, got %v", got)
	}
	if got := testutil.ToFloat64(b.SessionsCreated); got != 1 {
		t.Errorf("Expected 1 created session, got %v", got)
	}
}

func TestRecordSessionClosed(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordSessionOpened()
	m.RecordSessionClosed("client", 12)

	if got := testutil.ToFloat64(m.ActiveSessions); got != 0 {
		t.Errorf("Expected 0 active sessions, got %v", got)
	}
	if got := testutil.ToFloat64(m.SessionsClosed.WithLabelValues("client")); got != 1 {
		t.Errorf("Expected 1 closed session, got %v", got)
	}
}

func TestRecordStage(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordStage("recognizing", 0.2, false)
	m.RecordStage("recognizing", 0.4, true)

	if got := testutil.ToFloat64(m.StageErrors.WithLabelValues("recognizing")); got != 1 {
		t.Errorf("Expected 1 stage error, got %v", got)
	}
	if got := testutil.CollectAndCount(m.StageDuration); got != 1 {
		t.Errorf("Expected 1 stage duration series, got %d", got)
	}
}
