package scriptd_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bft-labs/scriptd"
	"github.com/bft-labs/scriptd/pkg/lifecycle"
	"github.com/bft-labs/scriptd/pkg/script"
)

type fisher struct{}

func TestIdentityFor(t *testing.T) {
	id := scriptd.IdentityFor(fisher{})
	if id != "github.com.bft-labs.scriptd_test.fisher" {
		t.Errorf("IdentityFor() = %q", id)
	}
	if err := id.Validate(); err != nil {
		t.Errorf("derived identity invalid: %v", err)
	}
}

func TestRun_StopsWhenContextEnds(t *testing.T) {
	var n atomic.Int64
	s, err := scriptd.New(scriptd.Manifest{Name: "Fisher"}, scriptd.IdentityFor(fisher{}),
		scriptd.WithStorageRoot(t.TempDir()),
		scriptd.WithTasks(scriptd.TaskFunc{
			Label:   "count",
			ValidFn: func(ctx context.Context) bool { return true },
			ExecuteFn: func(ctx context.Context) error {
				n.Add(1)
				time.Sleep(time.Millisecond)
				return nil
			},
		}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := scriptd.Run(ctx, s); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if n.Load() == 0 {
		t.Error("task never ran")
	}
	if s.State() != script.StateStopped {
		t.Errorf("State() = %v, want stopped", s.State())
	}
}

func TestRun_ReportsCallbackFailure(t *testing.T) {
	s, err := scriptd.New(scriptd.Manifest{Name: "Fisher"}, "com.acme.Fisher",
		script.WithStorageRoot(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	s.Registry().Register(lifecycle.SignalStart, func() error { return errors.New("boom") })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = scriptd.Run(ctx, s)
	if !errors.Is(err, lifecycle.ErrCallbackFailed) {
		t.Errorf("Run() = %v, want ErrCallbackFailed", err)
	}
	if s.State() != script.StateStopped {
		t.Errorf("State() = %v, want stopped", s.State())
	}
}
