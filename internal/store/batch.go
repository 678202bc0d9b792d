package store

import (
	"errors"
	"fmt"
	"net/http"
)

// Action is a store operation sent through the proxy.
type Action string

// Store actions.
const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDestroy Action = "destroy"
)

// Method returns the HTTP method the action is sent with.
func (a Action) Method() string {
	switch a {
	case ActionCreate:
		return http.MethodPost
	case ActionUpdate:
		return http.MethodPut
	case ActionDestroy:
		return http.MethodDelete
	default:
		return http.MethodGet
	}
}

// Operation is one request of a sync batch.
type Operation struct {
	Action Action
	Record *Record
	Err    error
}

// Batch is the outcome of one Sync: every operation that was sent, in order, plus the
// result of the reload that always follows.
type Batch struct {
	Operations []Operation
	ReloadErr  error
}

// Exceptions returns the operations that failed.
func (b *Batch) Exceptions() []Operation {
	var failed []Operation
	for _, op := range b.Operations {
		if op.Err != nil {
			failed = append(failed, op)
		}
	}
	return failed
}

// HasException reports whether any operation failed.
func (b *Batch) HasException() bool {
	return len(b.Exceptions()) > 0
}

// Err joins the operation failures, or returns nil when the batch succeeded.
// A failed reload does not fail the batch; see ReloadErr.
func (b *Batch) Err() error {
	var errs []error
	for _, op := range b.Exceptions() {
		if op.Record != nil && op.Record.ID != nil {
			errs = append(errs, fmt.Errorf("%s %d: %w", op.Action, *op.Record.ID, op.Err))
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %w", op.Action, op.Err))
	}
	return errors.Join(errs...)
}
