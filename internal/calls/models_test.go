package calls

import "testing"

func TestCallStatusIsUnsuccessful(t *testing.T) {
	for _, s := range []CallStatus{CallStatusFailed, CallStatusBusy, CallStatusNoAnswer, CallStatusCanceled} {
		if !s.IsUnsuccessful() {
			t.Fatalf("expected %q to count as unsuccessful", s)
		}
	}
	for _, s := range []CallStatus{CallStatusCompleted, CallStatusInProgress, CallStatusQueued, CallStatusRinging} {
		if s.IsUnsuccessful() {
			t.Fatalf("did not expect %q to count as unsuccessful", s)
		}
	}
}

func TestCallDuration(t *testing.T) {
	if (Call{}).Duration() != 0 {
		t.Fatalf("expected zero duration when unreported")
	}
	d := 42
	if (Call{DurationSeconds: &d}).Duration() != 42 {
		t.Fatalf("expected reported duration")
	}
}
