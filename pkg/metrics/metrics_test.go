package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDispatch(t *testing.T) {
	before := testutil.ToFloat64(DispatchTotal.WithLabelValues("edit_interaction", "true"))
	RecordDispatch("edit_interaction", true)
	RecordDispatch("edit_interaction", false)

	if got := testutil.ToFloat64(DispatchTotal.WithLabelValues("edit_interaction", "true")); got != before+1 {
		t.Fatalf("dispatch counter = %v, want %v", got, before+1)
	}
}

func TestObserveCompletionCountsErrors(t *testing.T) {
	before := testutil.ToFloat64(CompletionErrors.WithLabelValues("metrics_test"))

	ObserveCompletion("metrics_test", time.Now(), nil)
	ObserveCompletion("metrics_test", time.Now(), errors.New("timeout"))

	if got := testutil.ToFloat64(CompletionErrors.WithLabelValues("metrics_test")); got != before+1 {
		t.Fatalf("error counter = %v, want %v", got, before+1)
	}
	if n := testutil.CollectAndCount(CompletionDuration, "hcp_agent_completion_duration_seconds"); n == 0 {
		t.Fatal("expected completion histogram samples")
	}
}
