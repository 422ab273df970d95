package sessions

import (
	"context"
	"testing"
	"time"
)

func TestTracker_RegisterUnregister(t *testing.T) {
	tr := NewTracker()
	if tr.Count() != 0 {
		t.Fatalf("count=%d, want 0", tr.Count())
	}

	unreg := tr.Register("a", Handle{})
	if tr.Count() != 1 {
		t.Fatalf("count=%d, want 1", tr.Count())
	}
	unreg()
	if tr.Count() != 0 {
		t.Fatalf("count=%d, want 0", tr.Count())
	}
	// Unregister is idempotent.
	unreg()
}

func TestTracker_ReRegisterSameID(t *testing.T) {
	tr := NewTracker()
	tr.Register("a", Handle{})
	unreg := tr.Register("a", Handle{})
	if tr.Count() != 1 {
		t.Fatalf("count=%d, want 1 after re-register", tr.Count())
	}
	unreg()
	if tr.Count() != 0 {
		t.Fatalf("count=%d, want 0", tr.Count())
	}
}

func TestTracker_WarnAndCancelAll(t *testing.T) {
	tr := NewTracker()

	var warned []string
	var canceled int
	tr.Register("a", Handle{
		Warn:   func(msg string) error { warned = append(warned, msg); return nil },
		Cancel: func() { canceled++ },
	})
	tr.Register("b", Handle{
		Warn:   func(msg string) error { warned = append(warned, msg); return nil },
		Cancel: func() { canceled++ },
	})

	if sent := tr.WarnAll("draining"); sent != 2 {
		t.Fatalf("warned=%d, want 2", sent)
	}
	if len(warned) != 2 || warned[0] != "draining" {
		t.Fatalf("warned=%v", warned)
	}
	if n := tr.CancelAll(); n != 2 {
		t.Fatalf("canceled=%d, want 2", n)
	}
	if canceled != 2 {
		t.Fatalf("cancel calls=%d, want 2", canceled)
	}
}

func TestTracker_Wait(t *testing.T) {
	tr := NewTracker()
	unreg := tr.Register("a", Handle{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if tr.Wait(ctx) {
		t.Fatal("wait reported drained while a bridge is registered")
	}

	unreg()
	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	if !tr.Wait(ctx2) {
		t.Fatal("wait did not report drained after unregister")
	}
}

func TestTracker_NilSafe(t *testing.T) {
	var tr *Tracker
	unreg := tr.Register("a", Handle{})
	unreg()
	if tr.Count() != 0 || tr.WarnAll("x") != 0 || tr.CancelAll() != 0 {
		t.Fatal("nil tracker should be inert")
	}
	if !tr.Wait(context.Background()) {
		t.Fatal("nil tracker should report drained")
	}
}
