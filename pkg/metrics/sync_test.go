package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestSyncMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)

	m.IncSuccess("checkout")
	m.IncSuccess("checkout")
	m.IncFailure("cancel")
	m.AddMergeConflicts(3)
	m.ObserveDuration("checkout", 250*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	byName := map[string]*dto.MetricFamily{}
	for _, fam := range families {
		byName[fam.GetName()] = fam
	}

	success := byName["basket_sync_flow_success"]
	if success == nil || success.GetMetric()[0].GetCounter().GetValue() != 2 {
		t.Fatalf("unexpected success family %v", success)
	}
	conflicts := byName["basket_sync_merge_conflicts"]
	if conflicts == nil || conflicts.GetMetric()[0].GetCounter().GetValue() != 3 {
		t.Fatalf("unexpected conflicts family %v", conflicts)
	}
	if byName["basket_sync_flow_duration_seconds"] == nil {
		t.Fatal("missing duration family")
	}
}

func TestSyncMetricsNoopWithoutRegistry(t *testing.T) {
	m := NewSyncMetrics(nil)
	m.IncSuccess("checkout")
	m.IncFailure("checkout")
	m.AddMergeConflicts(1)
	m.ObserveDuration("checkout", time.Second)
}

func TestAddMergeConflictsIgnoresNonPositive(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)

	m.AddMergeConflicts(0)
	m.AddMergeConflicts(-2)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() == "basket_sync_merge_conflicts" {
			if fam.GetMetric()[0].GetCounter().GetValue() != 0 {
				t.Fatal("expected zero conflicts")
			}
		}
	}
}
