package lifecycle

import (
	"errors"
	"sync"
	"testing"

	"github.com/bft-labs/scriptd/pkg/log"
)

func TestRegistry_FireRunsInRegistrationOrder(t *testing.T) {
	r := NewRegistry(log.NewNoopLogger())

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		r.Register(SignalStart, func() error {
			order = append(order, i)
			return nil
		})
	}

	if err := r.Fire(SignalStart); err != nil {
		t.Fatalf("Fire() = %v, want nil", err)
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("callback order = %v, want 0..4", order)
		}
	}
	if len(order) != 5 {
		t.Fatalf("ran %d callbacks, want 5", len(order))
	}
}

func TestRegistry_FailingCallbackDoesNotHaltBatch(t *testing.T) {
	r := NewRegistry(log.NewNoopLogger())
	boom := errors.New("boom")

	var ranC2 bool
	r.RegisterNamed(SignalStart, "c1", func() error { return boom })
	r.RegisterNamed(SignalStart, "c2", func() error {
		ranC2 = true
		return nil
	})

	err := r.Fire(SignalStart)
	if !ranC2 {
		t.Error("second callback did not run after first failed")
	}
	if !errors.Is(err, ErrCallbackFailed) {
		t.Errorf("Fire() error = %v, want ErrCallbackFailed", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Fire() error = %v, should wrap the callback error", err)
	}

	var fe *FireError
	if !errors.As(err, &fe) {
		t.Fatalf("Fire() error type = %T, want *FireError", err)
	}
	if len(fe.Failures) != 1 || fe.Failures[0].Name != "c1" {
		t.Errorf("failures = %+v, want only c1", fe.Failures)
	}
}

func TestRegistry_PanickingCallbackIsRecovered(t *testing.T) {
	r := NewRegistry(log.NewNoopLogger())

	var after bool
	r.Register(SignalStop, func() error { panic("kaboom") })
	r.Register(SignalStop, func() error {
		after = true
		return nil
	})

	err := r.Fire(SignalStop)
	if err == nil {
		t.Fatal("Fire() = nil, want failure from panicking callback")
	}
	if !after {
		t.Error("callback after the panicking one did not run")
	}
}

func TestRegistry_ResultIsConjunction(t *testing.T) {
	r := NewRegistry(log.NewNoopLogger())
	r.Register(SignalSuspend, func() error { return nil })
	r.Register(SignalSuspend, func() error { return errors.New("first") })
	r.Register(SignalSuspend, func() error { return nil })
	r.Register(SignalSuspend, func() error { return errors.New("second") })

	var fe *FireError
	if !errors.As(r.Fire(SignalSuspend), &fe) {
		t.Fatal("expected *FireError")
	}
	if len(fe.Failures) != 2 {
		t.Errorf("got %d failures, want 2", len(fe.Failures))
	}
}

func TestRegistry_SignalsAreIndependent(t *testing.T) {
	r := NewRegistry(log.NewNoopLogger())

	var started, stopped int
	r.Register(SignalStart, func() error {
		started++
		return nil
	})
	r.Register(SignalStop, func() error {
		stopped++
		return nil
	})
	r.Register(SignalStop, nil)

	_ = r.Fire(SignalStart)
	_ = r.Fire(SignalStart)

	if started != 2 || stopped != 0 {
		t.Errorf("started=%d stopped=%d, want 2 and 0", started, stopped)
	}
	if r.Len(SignalStop) != 1 {
		t.Errorf("Len(stop) = %d, want 1 (nil ignored)", r.Len(SignalStop))
	}
	if err := r.Fire(SignalResume); err != nil {
		t.Errorf("firing a signal with no callbacks = %v, want nil", err)
	}
}

func TestRegistry_ConcurrentRegisterAndFire(t *testing.T) {
	r := NewRegistry(log.NewNoopLogger())

	var mu sync.Mutex
	calls := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register(SignalResume, func() error {
				mu.Lock()
				calls++
				mu.Unlock()
				return nil
			})
		}()
		go func() {
			defer wg.Done()
			_ = r.Fire(SignalResume)
		}()
	}
	wg.Wait()

	if r.Len(SignalResume) != 20 {
		t.Errorf("Len(resume) = %d, want 20", r.Len(SignalResume))
	}
}
