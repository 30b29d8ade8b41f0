package eventstore

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"time"
)

// Build status values.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// BuildSummary is a read model of one build reconstructed from its events.
type BuildSummary struct {
	BuildID      string        `json:"build_id"`
	Mode         string        `json:"mode"`
	Status       string        `json:"status"`
	Source       string        `json:"source"`
	Destination  string        `json:"destination,omitempty"`
	Plugins      []string      `json:"plugins,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	FileCount    int           `json:"file_count"`
	Stages       []string      `json:"stages,omitempty"`
	ErrorStage   string        `json:"error_stage,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// History loads all events since `since` and returns the most recent
// builds, newest first. limit <= 0 returns every build.
func History(ctx context.Context, s Store, since time.Time, limit int) ([]*BuildSummary, error) {
	events, err := s.GetRange(ctx, since, time.Now().Add(time.Hour))
	if err != nil {
		return nil, err
	}
	return Summarize(events, limit), nil
}

// Summarize folds events into per-build summaries, newest first.
func Summarize(events []Event, limit int) []*BuildSummary {
	builds := map[string]*BuildSummary{}
	for _, e := range events {
		apply(builds, e)
	}

	out := make([]*BuildSummary, 0, len(builds))
	for _, b := range builds {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b *BuildSummary) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.BuildID, b.BuildID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func apply(builds map[string]*BuildSummary, e Event) {
	id := e.BuildID()
	if id == "" {
		return
	}
	summary, ok := builds[id]
	if !ok {
		summary = &BuildSummary{BuildID: id, Status: StatusRunning, StartedAt: e.Timestamp()}
		builds[id] = summary
	}

	switch e.Type() {
	case TypeBuildStarted:
		var meta BuildStartedMeta
		if err := json.Unmarshal(e.Payload(), &meta); err == nil {
			summary.Mode = meta.Mode
			summary.Source = meta.Source
			summary.Destination = meta.Destination
			summary.Plugins = meta.Plugins
		}
		summary.StartedAt = e.Timestamp()

	case TypeStageCompleted:
		var payload struct {
			Stage string `json:"stage"`
			Files int    `json:"files"`
		}
		if err := json.Unmarshal(e.Payload(), &payload); err == nil {
			summary.Stages = append(summary.Stages, payload.Stage)
			summary.FileCount = payload.Files
		}

	case TypeBuildCompleted:
		finish(summary, e.Timestamp(), StatusCompleted)
		var payload struct {
			Files int `json:"files"`
		}
		if err := json.Unmarshal(e.Payload(), &payload); err == nil {
			summary.FileCount = payload.Files
		}

	case TypeBuildFailed:
		finish(summary, e.Timestamp(), StatusFailed)
		var payload struct {
			Stage string `json:"stage"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal(e.Payload(), &payload); err == nil {
			summary.ErrorStage = payload.Stage
			summary.ErrorMessage = payload.Error
		}
	}
}

func finish(summary *BuildSummary, at time.Time, status string) {
	summary.CompletedAt = &at
	summary.Duration = at.Sub(summary.StartedAt)
	summary.Status = status
}
