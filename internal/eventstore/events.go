package eventstore

import (
	"encoding/json"
	"time"

	dberrors "git.home.luguber.info/inful/docsmith/internal/foundation/errors"
)

// Event type names.
const (
	TypeBuildStarted   = "BuildStarted"
	TypeStageCompleted = "StageCompleted"
	TypeBuildCompleted = "BuildCompleted"
	TypeBuildFailed    = "BuildFailed"
)

// BuildStartedMeta describes the build being started.
type BuildStartedMeta struct {
	Mode        string   `json:"mode"` // "build" or "process"
	Source      string   `json:"source"`
	Destination string   `json:"destination,omitempty"`
	Concurrency int      `json:"concurrency"`
	Plugins     []string `json:"plugins,omitempty"`
}

// BuildStarted is emitted when a Build or Process call begins.
type BuildStarted struct {
	BaseEvent
	Meta BuildStartedMeta
}

// NewBuildStarted creates a BuildStarted event.
func NewBuildStarted(buildID string, meta BuildStartedMeta) (*BuildStarted, error) {
	base, err := newBase(buildID, TypeBuildStarted, meta)
	if err != nil {
		return nil, err
	}
	return &BuildStarted{BaseEvent: base, Meta: meta}, nil
}

// StageCompleted is emitted when the read, run or write stage succeeds.
type StageCompleted struct {
	BaseEvent
	Stage    string
	Files    int
	Duration time.Duration
}

// NewStageCompleted creates a StageCompleted event.
func NewStageCompleted(buildID, stage string, files int, duration time.Duration) (*StageCompleted, error) {
	base, err := newBase(buildID, TypeStageCompleted, map[string]any{
		"stage":       stage,
		"files":       files,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		return nil, err
	}
	return &StageCompleted{BaseEvent: base, Stage: stage, Files: files, Duration: duration}, nil
}

// BuildCompleted is emitted after the last stage of a successful build.
type BuildCompleted struct {
	BaseEvent
	Files    int
	Duration time.Duration
}

// NewBuildCompleted creates a BuildCompleted event.
func NewBuildCompleted(buildID string, files int, duration time.Duration) (*BuildCompleted, error) {
	base, err := newBase(buildID, TypeBuildCompleted, map[string]any{
		"files":       files,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		return nil, err
	}
	return &BuildCompleted{BaseEvent: base, Files: files, Duration: duration}, nil
}

// BuildFailed is emitted when a stage fails.
type BuildFailed struct {
	BaseEvent
	Stage string
	Error string
}

// NewBuildFailed creates a BuildFailed event.
func NewBuildFailed(buildID, stage, errMsg string) (*BuildFailed, error) {
	base, err := newBase(buildID, TypeBuildFailed, map[string]any{
		"stage": stage,
		"error": errMsg,
	})
	if err != nil {
		return nil, err
	}
	return &BuildFailed{BaseEvent: base, Stage: stage, Error: errMsg}, nil
}

func newBase(buildID, eventType string, payload any) (BaseEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return BaseEvent{}, dberrors.EventStoreError("failed to marshal "+eventType+" payload").
			WithCause(err).
			WithContext("build_id", buildID).
			Build()
	}
	return BaseEvent{
		EventBuildID:   buildID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   data,
	}, nil
}
