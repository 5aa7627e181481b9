package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrParseSkip marks a malformed line or record that is dropped locally
	ErrParseSkip = errors.New("record skipped")
	// ErrInvalidSubnet is returned when a subnet cannot be routed to a table
	ErrInvalidSubnet = errors.New("invalid subnet")
)

// SourceInvocationError reports an external command that failed or returned
// output the parser could not read, attributed to one scope or zone
type SourceInvocationError struct {
	Adapter string
	Target  string
	Err     error
}

func (e *SourceInvocationError) Error() string {
	return fmt.Sprintf("%s source %s: %v", e.Adapter, e.Target, e.Err)
}

func (e *SourceInvocationError) Unwrap() error {
	return e.Err
}

// StorageWriteError reports an insert or commit failure. Key is the natural
// key of the offending record: "ip|mac" for leases, "name|hostname" for DNS
// rows. A failed commit reports Table "*" and the snapshot ID as Key.
type StorageWriteError struct {
	Table string
	Key   string
	Err   error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("write %s into %s: %v", e.Key, e.Table, e.Err)
}

func (e *StorageWriteError) Unwrap() error {
	return e.Err
}

// CycleAbortError wraps whatever stopped a collection cycle. It is raised
// once per failed cycle.
type CycleAbortError struct {
	CycleID string
	Err     error
}

func (e *CycleAbortError) Error() string {
	return fmt.Sprintf("cycle %s aborted: %v", e.CycleID, e.Err)
}

func (e *CycleAbortError) Unwrap() error {
	return e.Err
}
