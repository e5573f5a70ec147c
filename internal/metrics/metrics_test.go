package metrics_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kuchikomi/internal/metrics"
)

func TestObserveHarvest(t *testing.T) {
	records := testutil.ToFloat64(metrics.RecordsHarvested.WithLabelValues("directory"))
	skipped := testutil.ToFloat64(metrics.RecordsSkipped.WithLabelValues("directory"))
	ended := testutil.ToFloat64(metrics.Terminations.WithLabelValues("directory", "empty_page"))

	metrics.ObserveHarvest("directory", "empty_page", 30, 2, 12.5)

	assert.InDelta(t, records+30, testutil.ToFloat64(metrics.RecordsHarvested.WithLabelValues("directory")), 1e-9)
	assert.InDelta(t, skipped+2, testutil.ToFloat64(metrics.RecordsSkipped.WithLabelValues("directory")), 1e-9)
	assert.InDelta(t, ended+1, testutil.ToFloat64(metrics.Terminations.WithLabelValues("directory", "empty_page")), 1e-9)
}

func TestObserveFailure(t *testing.T) {
	before := testutil.ToFloat64(metrics.SessionFailures.WithLabelValues("travel_site", "launch"))
	metrics.ObserveFailure("travel_site", "launch")
	assert.InDelta(t, before+1, testutil.ToFloat64(metrics.SessionFailures.WithLabelValues("travel_site", "launch")), 1e-9)
}

func TestWriteTextfile(t *testing.T) {
	reg := metrics.InitRegistry()
	metrics.ObserveHarvest("map_listing", "converged", 120, 0, 95)

	path := filepath.Join(t.TempDir(), "kuchikomi.prom")
	require.NoError(t, metrics.WriteTextfile(reg, path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(body)
	assert.Contains(t, out, "kuchikomi_records_harvested_total")
	assert.Contains(t, out, `kuchikomi_harvest_terminations_total{reason="converged",source="map_listing"}`)
}
