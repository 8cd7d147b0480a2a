package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a node or scene does not exist
var ErrNotFound = errors.New("not found")

// DataError reports malformed entries dropped during normalization.
// It is informational: the cleaned data is still usable.
type DataError struct {
	DroppedNodes int
	DroppedEdges int
}

func (e *DataError) Error() string {
	return fmt.Sprintf("dropped %d malformed nodes and %d malformed edges", e.DroppedNodes, e.DroppedEdges)
}

// NetworkError wraps a failed fetch; the last good state stays in use
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AssetError reports a floor background that could not be loaded
type AssetError struct {
	Floor string
	Path  string
	Err   error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("failed to load background for floor %s (%s): %v", e.Floor, e.Path, e.Err)
}

func (e *AssetError) Unwrap() error { return e.Err }

// PersistenceError reports a failed write-back to the backing store
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
