package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_Counts(t *testing.T) {
	r := Recorder{}
	before := testutil.ToFloat64(analysesTotal.WithLabelValues("friendly", "false"))
	r.AnalysisCompleted("friendly", false)
	assert.Equal(t, before+1, testutil.ToFloat64(analysesTotal.WithLabelValues("friendly", "false")))

	before = testutil.ToFloat64(ocrAttempts.WithLabelValues("ocrspace", "error"))
	r.OCRAttempt("ocrspace", "error")
	assert.Equal(t, before+1, testutil.ToFloat64(ocrAttempts.WithLabelValues("ocrspace", "error")))

	before = testutil.ToFloat64(pipelineFailures.WithLabelValues("storage"))
	r.PipelineFailed("storage")
	assert.Equal(t, before+1, testutil.ToFloat64(pipelineFailures.WithLabelValues("storage")))
}
