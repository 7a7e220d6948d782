// Package runtime is the boundary to the reasoning runtime that produces
// assistant turns. The orchestrator owns persistence and event emission; a
// Runtime only decides what to say and which task tools to run.
package runtime

import (
	"context"

	"threadkit/pkg/models"
)

// ToolTrace records one executed tool invocation for the transcript.
type ToolTrace struct {
	Name      string
	Arguments string
	Result    string
}

// TurnResult is the explicit outcome of a runtime turn. DisplayRequested is
// set when the turn touched or inspected the task set, meaning the caller
// should surface (rebuild) the task widget.
type TurnResult struct {
	Reply            string
	ToolTraces       []ToolTrace
	DisplayRequested bool
}

// Runtime produces one assistant turn from a thread's message history. The
// last history item is the user message that triggered the turn.
type Runtime interface {
	Respond(ctx context.Context, thread models.Thread, history []models.Item) (TurnResult, error)
}

// TaskOps is the mutable task surface a runtime's tools execute against.
type TaskOps interface {
	Add(title, threadID string) (models.Task, error)
	Complete(id string) (models.Task, error)
	Delete(id string) error
	List() ([]models.Task, error)
}
