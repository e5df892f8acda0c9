package safego

import (
	"testing"
	"time"
)

func TestGo_RunsFunction(t *testing.T) {
	done := make(chan struct{})
	Go("test", func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("goroutine did not complete within timeout")
	}
}

func TestGo_RecoversAndReportsPanic(t *testing.T) {
	type report struct {
		task string
		val  interface{}
	}
	reported := make(chan report, 1)
	orig := reportPanic
	reportPanic = func(task string, r interface{}) { reported <- report{task, r} }
	t.Cleanup(func() { reportPanic = orig })

	Go("send-invitation", func() { panic("smtp exploded") })

	select {
	case got := <-reported:
		if got.task != "send-invitation" || got.val != "smtp exploded" {
			t.Errorf("reported = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Error("panic was not reported within timeout")
	}
}

func TestReportPanic_WithoutSentryClient(t *testing.T) {
	// no client is bound in tests; reporting must be a no-op rather than a crash
	reportPanic("noop", "value")
}
