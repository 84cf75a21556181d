package services

import "fmt"

// RenderError wraps a renderer failure. No partial state was persisted.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return fmt.Sprintf("render artifact: %v", e.Err) }
func (e *RenderError) Unwrap() error { return e.Err }

// PersistenceError wraps a storage failure after a successful render.
// Compensating cleanup of the fresh artifact has already run by the time
// the caller sees this.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persist report: %v", e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }
