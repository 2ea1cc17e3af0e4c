package job

import (
	"context"
	"testing"
)

func TestStreamProgress_JobNotFound(t *testing.T) {
	c, _ := newTestController(t)
	err := c.StreamProgress(context.Background(), "missing", func(Event) error { return nil })
	if err != errJobNotFound {
		t.Errorf("err = %v, want errJobNotFound", err)
	}
}

func TestStreamProgress_CompletesImmediatelyForFinishedJob(t *testing.T) {
	c, _ := newTestController(t)
	j := c.Create("in.csv", "", 0)
	c.Start(j.ID)
	c.AppendProgress(j.ID, map[string]int{"completed": 1})
	c.Complete(j.ID, "out.zip", map[string]int{"found": 1}, nil)

	var events []Event
	err := c.StreamProgress(context.Background(), j.ID, func(e Event) error {
		events = append(events, e)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamProgress: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected a progress event then a complete event, got %d: %+v", len(events), events)
	}
	if events[0].Type != "progress" || events[1].Type != "complete" {
		t.Errorf("unexpected event sequence: %+v", events)
	}
}

func TestStreamProgress_StopsOnContextCancel(t *testing.T) {
	c, _ := newTestController(t)
	j := c.Create("in.csv", "", 0)
	c.Start(j.ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.StreamProgress(ctx, j.ID, func(Event) error { return nil })
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
