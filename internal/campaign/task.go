package campaign

import (
	"errors"
	"fmt"
	"time"
)

// TaskStatus is the lifecycle state of one media task on a post
type TaskStatus string

// Task status constants
const (
	TaskIdle       TaskStatus = "idle"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskError      TaskStatus = "error"
)

// ErrTaskInProgress is returned when a task of the same type is already running for a post.
var ErrTaskInProgress = errors.New("media task already in progress")

// ErrPrecondition marks an operation invoked against a record not yet in the required state.
var ErrPrecondition = errors.New("precondition failed")

// MediaTask tracks one enrichment (image, video, audio, publish) of a post.
// Transitions only move forward: idle -> in_progress -> completed | error.
type MediaTask struct {
	Status    TaskStatus `json:"status"`
	URL       string     `json:"url,omitempty"`
	Payload   string     `json:"payload,omitempty"`
	Error     string     `json:"error,omitempty"`
	UpdatedAt time.Time  `json:"updated_at,omitempty"`
}

// Begin moves an idle task to in_progress.
func (t MediaTask) Begin(now time.Time) (MediaTask, error) {
	switch t.state() {
	case TaskIdle:
		return MediaTask{Status: TaskInProgress, UpdatedAt: now}, nil
	case TaskInProgress:
		return t, ErrTaskInProgress
	default:
		return t, fmt.Errorf("cannot start task in state %s: %w", t.Status, ErrPrecondition)
	}
}

// Complete records the produced artifact for an in-progress task.
func (t MediaTask) Complete(url, payload string, now time.Time) (MediaTask, error) {
	if t.state() != TaskInProgress {
		return t, fmt.Errorf("cannot complete task in state %s: %w", t.state(), ErrPrecondition)
	}
	return MediaTask{Status: TaskCompleted, URL: url, Payload: payload, UpdatedAt: now}, nil
}

// Fail records a human-readable reason for an in-progress task.
func (t MediaTask) Fail(reason string, now time.Time) (MediaTask, error) {
	if t.state() != TaskInProgress {
		return t, fmt.Errorf("cannot fail task in state %s: %w", t.state(), ErrPrecondition)
	}
	return MediaTask{Status: TaskError, Error: reason, UpdatedAt: now}, nil
}

// Settled reports whether the task reached a terminal state.
func (t MediaTask) Settled() bool {
	s := t.state()
	return s == TaskCompleted || s == TaskError
}

func (t MediaTask) state() TaskStatus {
	if t.Status == "" {
		return TaskIdle
	}
	return t.Status
}
