package job

import (
	"context"
	"time"
)

// Event is one Server-Sent Events payload, JSON-encoded by the caller as
// `data: <json>\n\n`. Type mirrors app.py's event_generator tags:
// "progress" while running, then exactly one of "complete"/"error"/
// "cancelled" before the stream ends.
type Event struct {
	Type        string `json:"type"`
	Data        any    `json:"data,omitempty"`
	Summary     any    `json:"summary,omitempty"`
	PreviewRows any    `json:"preview_rows,omitempty"`
	Message     string `json:"message,omitempty"`
}

// pollInterval is the 300ms sleep between checks, the same interval
// app.py's event_generator uses.
const pollInterval = 300 * time.Millisecond

// StreamProgress tails a job's progress log, invoking send for every new
// entry and for the terminal event, then returns once the job reaches a
// terminal state or ctx is cancelled. Grounded on app.py's
// progress_stream endpoint.
func (c *Controller) StreamProgress(ctx context.Context, id string, send func(Event) error) error {
	j, ok := c.Get(id)
	if !ok {
		return errJobNotFound
	}

	lastIdx := 0
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		j.mu.Lock()
		progress := j.Progress
		status := j.Status
		summary := j.Summary
		preview := j.PreviewRows
		errMsg := j.Error
		j.mu.Unlock()

		for ; lastIdx < len(progress); lastIdx++ {
			if err := send(Event{Type: "progress", Data: progress[lastIdx]}); err != nil {
				return err
			}
		}

		switch status {
		case StatusComplete:
			return send(Event{Type: "complete", Summary: summary, PreviewRows: preview})
		case StatusError:
			return send(Event{Type: "error", Message: errMsg})
		case StatusCancelled:
			return send(Event{Type: "cancelled", Message: "Job was cancelled."})
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
