package engine

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/chunga-ict/instancectl/kernel/model"
	"github.com/pkg/errors"
)

func TestTracker_BeginRejectsSecond(t *testing.T) {
	tr := NewTracker()

	if err := tr.Begin("r1", model.Pausing, model.Running); err != nil {
		t.Fatalf("first begin failed: %v", err)
	}
	err := tr.Begin("r1", model.Deleting, model.Running)
	if !errors.Is(err, ErrAlreadyInProgress) {
		t.Fatalf("expected ErrAlreadyInProgress, got %v", err)
	}

	descriptor, found := tr.Get("r1")
	if !found {
		t.Fatal("expected descriptor for r1")
	}
	if descriptor.Kind != model.Pausing {
		t.Errorf("rejected begin must not change kind, got %s", descriptor.Kind)
	}
	if descriptor.OriginalStatus != model.Running {
		t.Errorf("expected original status Running, got %s", descriptor.OriginalStatus)
	}
}

func TestTracker_ConcurrentBegin(t *testing.T) {
	tr := NewTracker()

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.Begin("r1", model.Resuming, model.Paused) == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly one begin to win, got %d", wins)
	}
	if tr.Count() != 1 {
		t.Errorf("expected one descriptor, got %d", tr.Count())
	}
}

func TestTracker_UpdateAndClear(t *testing.T) {
	tr := NewTracker()

	tr.Update("r4", model.Resuming)
	descriptor, found := tr.Get("r4")
	if !found || descriptor.Kind != model.Resuming || descriptor.OriginalStatus != model.Resuming {
		t.Fatalf("unexpected descriptor after update: %+v (found=%v)", descriptor, found)
	}

	if err := tr.Begin("r5", model.Resuming, model.Paused); err != nil {
		t.Fatal(err)
	}
	tr.Update("r5", model.Running)
	descriptor, _ = tr.Get("r5")
	if descriptor.Kind != model.Running || descriptor.OriginalStatus != model.Paused {
		t.Errorf("update must keep original status, got %+v", descriptor)
	}

	tr.Clear("r4")
	tr.Clear("r4")
	if tr.IsBusy("r4") {
		t.Error("r4 should not be busy after clear")
	}
	if !tr.IsBusy("r5") {
		t.Error("r5 should still be busy")
	}
}

func TestTracker_DisplayStatus(t *testing.T) {
	tr := NewTracker()
	inst := &model.Instance{Id: "r1", Status: model.Running}

	if got := tr.DisplayStatus(inst); got != model.Running {
		t.Errorf("expected durable status without descriptor, got %s", got)
	}
	if err := tr.Begin("r1", model.Pausing, model.Running); err != nil {
		t.Fatal(err)
	}
	if got := tr.DisplayStatus(inst); got != model.Pausing {
		t.Errorf("expected tracked kind while busy, got %s", got)
	}
}
