package domain

import "fmt"

// ServiceError marks a failure of a generative or embedding backend:
// unreachable, quota exhausted, or a malformed reply.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string { return fmt.Sprintf("service %s: %v", e.Op, e.Err) }
func (e *ServiceError) Unwrap() error { return e.Err }

// StorageError marks the vector index being unavailable or inconsistent.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// ParseError marks model output missing the expected structure. It is always
// recovered inside the component that raised it and never reaches callers.
type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.What, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// DataError marks a missing or malformed catalog/behavior source. Fatal to
// the request.
type DataError struct {
	Source string
	Err    error
}

func (e *DataError) Error() string { return fmt.Sprintf("data %s: %v", e.Source, e.Err) }
func (e *DataError) Unwrap() error { return e.Err }
