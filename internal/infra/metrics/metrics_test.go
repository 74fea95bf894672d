package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSetQueueState(t *testing.T) {
	SetQueueState(3, true)
	assert.Equal(t, float64(3), testutil.ToFloat64(QueueLength))
	assert.Equal(t, float64(1), testutil.ToFloat64(Playing))

	SetQueueState(0, false)
	assert.Equal(t, float64(0), testutil.ToFloat64(QueueLength))
	assert.Equal(t, float64(0), testutil.ToFloat64(Playing))
}

func TestRecordCounters(t *testing.T) {
	before := testutil.ToFloat64(PlaybackEndsTotal.WithLabelValues("forced"))
	RecordPlaybackEnd("forced")
	assert.Equal(t, before+1, testutil.ToFloat64(PlaybackEndsTotal.WithLabelValues("forced")))

	before = testutil.ToFloat64(CommandsTotal.WithLabelValues("next", "denied"))
	RecordCommand("next", "denied")
	assert.Equal(t, before+1, testutil.ToFloat64(CommandsTotal.WithLabelValues("next", "denied")))

	before = testutil.ToFloat64(SubmissionsTotal.WithLabelValues("accepted"))
	RecordSubmission("accepted")
	assert.Equal(t, before+1, testutil.ToFloat64(SubmissionsTotal.WithLabelValues("accepted")))
}
