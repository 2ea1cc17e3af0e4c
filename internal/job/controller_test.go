package job

import (
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func newTestController(t *testing.T) (*Controller, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.json")
	c, err := NewController(path, zap.NewNop())
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c, path
}

func TestController_CreateAndGet(t *testing.T) {
	c, _ := newTestController(t)
	j := c.Create("in.csv", "/data/uploads/in.csv", 10)
	if j.Status != StatusQueued {
		t.Errorf("Status = %q, want %q", j.Status, StatusQueued)
	}
	got, ok := c.Get(j.ID)
	if !ok || got.ID != j.ID {
		t.Fatal("expected Get to find the created job")
	}
}

func TestController_StartAndComplete(t *testing.T) {
	c, _ := newTestController(t)
	j := c.Create("in.csv", "/data/uploads/in.csv", 0)

	ctx, ok := c.Start(j.ID)
	if !ok || ctx == nil {
		t.Fatal("expected Start to succeed for a queued job")
	}
	if got, _ := c.Get(j.ID); got.Status != StatusRunning {
		t.Errorf("Status after Start = %q, want %q", got.Status, StatusRunning)
	}

	c.Complete(j.ID, "/data/results/out.zip", map[string]int{"found": 1}, nil)
	got, _ := c.Get(j.ID)
	if got.Status != StatusComplete || got.ResultPath != "/data/results/out.zip" {
		t.Errorf("unexpected job after Complete: %+v", got)
	}
}

func TestController_Fail_DoesNotOverrideCancelled(t *testing.T) {
	c, _ := newTestController(t)
	j := c.Create("in.csv", "", 0)
	c.Start(j.ID)
	c.Cancel(j.ID)

	c.Fail(j.ID, errors.New("boom"))
	got, _ := c.Get(j.ID)
	if got.Status != StatusCancelled {
		t.Errorf("Status = %q, want Fail to leave a cancelled job alone", got.Status)
	}
}

func TestController_CancelOnlyAffectsActiveJobs(t *testing.T) {
	c, _ := newTestController(t)
	j := c.Create("in.csv", "", 0)
	c.Start(j.ID)
	c.Complete(j.ID, "out.zip", nil, nil)

	if c.Cancel(j.ID) {
		t.Error("expected Cancel to fail on an already-completed job")
	}
}

func TestController_Resumable(t *testing.T) {
	c, _ := newTestController(t)
	j := c.Create("in.csv", "/data/uploads/in.csv", 0)

	if _, ok := c.Resumable(j.ID); ok {
		t.Error("a queued job should not be resumable")
	}

	c.Start(j.ID)
	c.Cancel(j.ID)
	path, ok := c.Resumable(j.ID)
	if !ok || path != "/data/uploads/in.csv" {
		t.Errorf("Resumable = (%q, %v), want (%q, true)", path, ok, "/data/uploads/in.csv")
	}
}

func TestController_Delete(t *testing.T) {
	c, _ := newTestController(t)
	j := c.Create("in.csv", "", 0)

	if !c.Delete(j.ID) {
		t.Fatal("expected Delete to succeed")
	}
	if _, ok := c.Get(j.ID); ok {
		t.Error("expected job to be gone after Delete")
	}
	if c.Delete(j.ID) {
		t.Error("expected a second Delete to report false")
	}
}

func TestController_ReloadMarksInFlightJobsInterrupted(t *testing.T) {
	c, path := newTestController(t)
	j := c.Create("in.csv", "/data/uploads/in.csv", 0)
	c.Start(j.ID)

	reloaded, err := NewController(path, zap.NewNop())
	if err != nil {
		t.Fatalf("NewController (reload): %v", err)
	}
	got, ok := reloaded.Get(j.ID)
	if !ok {
		t.Fatal("expected reloaded controller to know about the persisted job")
	}
	if got.Status != StatusInterrupted {
		t.Errorf("Status after reload = %q, want %q", got.Status, StatusInterrupted)
	}
	if got.Error != interruptedMessage {
		t.Errorf("Error = %q, want the interrupted message", got.Error)
	}
}

func TestController_List_NewestFirst(t *testing.T) {
	c, _ := newTestController(t)
	first := c.Create("a.csv", "", 0)
	first.CreatedAt = "2026-01-01T00:00:00Z"
	second := c.Create("b.csv", "", 0)
	second.CreatedAt = "2026-06-01T00:00:00Z"

	list := c.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(list))
	}
	if list[0].ID != second.ID {
		t.Errorf("expected newest job first, got %+v", list)
	}
}
