package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSynthesis(t *testing.T) {
	before := testutil.ToFloat64(synthesisRequestsTotal.WithLabelValues("calm", StatusSuccess))

	ObserveSynthesis("calm", StatusSuccess, 250*time.Millisecond)

	after := testutil.ToFloat64(synthesisRequestsTotal.WithLabelValues("calm", StatusSuccess))
	assert.Equal(t, before+1, after)
}

func TestObserveGeneration(t *testing.T) {
	before := testutil.ToFloat64(generatedSamplesTotal.WithLabelValues("bark"))

	ObserveGeneration("bark", time.Second, 24000)

	after := testutil.ToFloat64(generatedSamplesTotal.WithLabelValues("bark"))
	assert.Equal(t, before+24000, after)
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	ObserveSynthesis("hype", StatusError, time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["castervoice_synthesis_requests_total"])
	assert.True(t, names["castervoice_synthesis_duration_seconds"])
	assert.True(t, names["go_goroutines"])
}
