package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Keksclan/goRawrStash/engine"
)

func TestObserverCountsEngineEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewObserver(reg)

	c := engine.New(engine.WithSweepInterval(0), engine.WithObserver(obs))
	defer func() { _ = c.Close() }()

	c.Set("k", []byte("v"), 0)
	c.TryGet("k")          // hit
	c.TryGet("absent")     // miss
	c.Remove("k")          // removal

	if got := testutil.ToFloat64(obs.writes); got != 1 {
		t.Fatalf("writes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.hits); got != 1 {
		t.Fatalf("hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.misses); got != 1 {
		t.Fatalf("misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.removals); got != 1 {
		t.Fatalf("removals = %v, want 1", got)
	}
}

func TestObserverExpirationCounting(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewObserver(reg)

	c := engine.New(engine.WithSweepInterval(0), engine.WithObserver(obs))
	defer func() { _ = c.Close() }()

	c.Set("k", []byte("v"), time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	c.TryGet("k") // lazy expiry path

	if got := testutil.ToFloat64(obs.expirations); got != 1 {
		t.Fatalf("expirations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.misses); got != 1 {
		t.Fatalf("misses = %v, want 1", got)
	}
}

func TestRegisterEntriesGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := engine.New(engine.WithSweepInterval(0))
	defer func() { _ = c.Close() }()

	RegisterEntriesGauge(reg, c)

	c.Set("a", []byte("v"), 0)
	c.Set("b", []byte("v"), 0)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "rawrstash_cache_entries" {
			if got := mf.GetMetric()[0].GetGauge().GetValue(); got != 2 {
				t.Fatalf("entries gauge = %v, want 2", got)
			}
			return
		}
	}
	t.Fatal("rawrstash_cache_entries not gathered")
}
