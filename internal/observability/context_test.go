package observability

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestOpIDLifecycle(t *testing.T) {
	base := context.Background()
	if got := OpID(base); got != "" {
		t.Fatalf("OpID() on bare context = %q, want empty", got)
	}

	ctx := WithOpID(base)
	first := OpID(ctx)
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("op_id %q is not a UUID: %v", first, err)
	}

	// Derived contexts see the same id; the id identifies the
	// invocation, not the goroutine.
	child, cancel := context.WithCancel(ctx)
	defer cancel()
	if got := OpID(child); got != first {
		t.Errorf("derived context op_id = %q, want %q", got, first)
	}

	// A fresh invocation gets a fresh id.
	if second := OpID(WithOpID(base)); second == first {
		t.Errorf("two invocations share op_id %q", first)
	}
}
