package observability

import (
	"context"
	"testing"
)

func TestDetachTraceContextWithoutSpanReturnsBackground(t *testing.T) {
	detached := DetachTraceContext(context.Background())
	if detached.Done() != nil {
		t.Error("expected a non-cancellable background context when no span is present")
	}
}

func TestDetachTraceContextSurvivesParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	detached := DetachTraceContext(parent)
	cancel()

	select {
	case <-detached.Done():
		t.Error("detached context was cancelled along with its parent")
	default:
	}
}
