package task

import (
	"errors"
	"fmt"
)

// Sentinel errors for task operations.
var (
	// ErrOrchestrator matches every error returned by an Orchestrator.
	ErrOrchestrator = errors.New("task orchestrator error")

	// ErrTaskNotFound indicates no task has the requested id.
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidStatus indicates an unknown status name.
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrInvalidEvent indicates an unknown event name.
	ErrInvalidEvent = errors.New("invalid task event")
)

// OrchestratorError wraps errors from orchestrator operations.
type OrchestratorError struct {
	// Op is the operation that failed ("create", "update", "get", "refresh").
	Op string
	// TaskID is the task involved, empty when unknown.
	TaskID string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *OrchestratorError) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("task %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("task %s %s: %v", e.Op, e.TaskID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *OrchestratorError) Unwrap() error {
	return e.Err
}

// Is makes every OrchestratorError match ErrOrchestrator.
func (e *OrchestratorError) Is(target error) bool {
	return target == ErrOrchestrator
}
