package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/rewind/pkg/domain"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nil)
	ctx := context.Background()
	count := 1000
	cfg := domain.NewConfig("a").AddState("a", nil)

	// 1. Create and Delete many sessions
	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_, _ = mgr.Create(ctx, sid, cfg)
		_ = mgr.Delete(ctx, sid)
	}

	// 2. Count locks remaining in map
	lockCount := len(mgr.locks)

	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
