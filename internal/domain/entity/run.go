package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AnnotationRun is a single execution of one or more AnnotationSchemas
// against a set of Assets.
type AnnotationRun struct {
	ID                  int64
	UUID                uuid.UUID
	InfospaceID         int64
	UserID              int64
	Name                string
	Status              RunStatus
	Configuration       Metadata
	TargetSchemaIDs     []int64
	IncludeParentContext bool
	ContextWindow       int
	ErrorMessage        *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	CompletedAt         *time.Time
}

// NewAnnotationRun constructs a PENDING run with a fresh UUID.
func NewAnnotationRun(infospaceID, userID int64, name string, schemaIDs []int64) *AnnotationRun {
	return &AnnotationRun{
		UUID:            uuid.New(),
		InfospaceID:     infospaceID,
		UserID:          userID,
		Name:            name,
		Status:          RunStatusPending,
		Configuration:   Metadata{},
		TargetSchemaIDs: schemaIDs,
		ContextWindow:   1,
	}
}

// runTransitions enumerates the legal state-transition DAG of spec §4.5.
var runTransitions = map[RunStatus]map[RunStatus]bool{
	RunStatusPending: {
		RunStatusRunning: true,
	},
	RunStatusRunning: {
		RunStatusCompleted:           true,
		RunStatusCompletedWithErrors: true,
		RunStatusFailed:              true,
		RunStatusPaused:              true,
	},
	RunStatusPaused: {
		RunStatusRunning: true,
	},
	RunStatusFailed: {
		RunStatusPending: true,
	},
}

// InvalidStatusTransitionError is returned when a caller requests a run
// status transition outside the DAG defined in spec §4.5.
type InvalidStatusTransitionError struct {
	From RunStatus
	To   RunStatus
}

func (e *InvalidStatusTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

// Transition moves the run to `to`, validating against the legal DAG.
// Retrying a FAILED run clears ErrorMessage, per spec §7 policy.
func (r *AnnotationRun) Transition(to RunStatus) error {
	allowed := runTransitions[r.Status]
	if !allowed[to] {
		return &InvalidStatusTransitionError{From: r.Status, To: to}
	}
	if r.Status == RunStatusFailed && to == RunStatusPending {
		r.ErrorMessage = nil
	}
	r.Status = to
	if to.IsTerminal() || to == RunStatusFailed {
		now := time.Now().UTC()
		r.CompletedAt = &now
	}
	return nil
}
