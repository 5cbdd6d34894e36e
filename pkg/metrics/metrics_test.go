package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordBatch(t *testing.T) {
	before := testutil.ToFloat64(BatchesTotal.WithLabelValues("metrics-test"))
	rowsBefore := testutil.ToFloat64(RowsTotal.WithLabelValues("metrics-test"))

	RecordBatch("metrics-test", 128, 300, 5*time.Millisecond)
	RecordBatch("metrics-test", 64, 10, time.Millisecond)

	if got := testutil.ToFloat64(BatchesTotal.WithLabelValues("metrics-test")) - before; got != 2 {
		t.Errorf("batches delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(RowsTotal.WithLabelValues("metrics-test")) - rowsBefore; got != 192 {
		t.Errorf("rows delta = %v, want 192", got)
	}
}

func TestRecordBatchError(t *testing.T) {
	RecordBatchError("metrics-test", "SCHEMA_MISMATCH")
	RecordBatchError("metrics-test", "")

	if got := testutil.ToFloat64(BatchErrorsTotal.WithLabelValues("metrics-test", "SCHEMA_MISMATCH")); got < 1 {
		t.Errorf("SCHEMA_MISMATCH errors = %v", got)
	}
	if got := testutil.ToFloat64(BatchErrorsTotal.WithLabelValues("metrics-test", "unknown")); got < 1 {
		t.Errorf("unknown errors = %v", got)
	}
}

func TestRecordInfer(t *testing.T) {
	RecordInfer("metrics-model", nil, time.Millisecond)
	RecordInfer("metrics-model", errors.New("boom"), time.Millisecond)

	if got := testutil.ToFloat64(InferRequestsTotal.WithLabelValues("metrics-model", "success")); got != 1 {
		t.Errorf("success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(InferRequestsTotal.WithLabelValues("metrics-model", "error")); got != 1 {
		t.Errorf("error = %v, want 1", got)
	}
}
