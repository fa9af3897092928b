package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCountsOutcomes(t *testing.T) {
	r := NewRecorder("test_room")
	before := testutil.ToFloat64(DetectionTasksTotal.WithLabelValues("test_room", OutcomeStale))

	r.RecordOutcome(OutcomeStale)
	r.RecordOutcome(OutcomeStale)
	r.RecordDetection(250 * time.Millisecond)

	after := testutil.ToFloat64(DetectionTasksTotal.WithLabelValues("test_room", OutcomeStale))
	assert.Equal(t, 2.0, after-before)
}

func TestQueueDepthBalances(t *testing.T) {
	before := testutil.ToFloat64(DetectionQueueDepth)

	RecordEnqueued(3)
	RecordDequeued()
	RecordDequeued()
	RecordDequeued()

	assert.Equal(t, before, testutil.ToFloat64(DetectionQueueDepth))
}
