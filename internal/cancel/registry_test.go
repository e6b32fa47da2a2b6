package cancel

import "testing"

func TestBeginCancelEnd(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	r.Begin("job-1")
	if r.Canceled("job-1") {
		t.Fatal("fresh flag should not be canceled")
	}
	r.Cancel("job-1")
	if !r.Canceled("job-1") {
		t.Fatal("flag should be set after Cancel")
	}
	r.End("job-1")
	if r.Canceled("job-1") {
		t.Fatal("ended key should read false")
	}
}

func TestCancelUnknownKeyIsNoop(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Cancel("never-begun")
	if r.Canceled("never-begun") {
		t.Fatal("cancel of unknown key must not create a set flag")
	}
}

func TestIdempotentReRegistration(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	// begin; cancel; begin leaves the flag set.
	r.Begin("k")
	r.Cancel("k")
	r.Begin("k")
	if !r.Canceled("k") {
		t.Fatal("second Begin must not reset an already-requested cancellation")
	}
}
