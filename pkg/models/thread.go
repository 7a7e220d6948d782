package models

// ThreadStatus is the lifecycle state of a thread.
type ThreadStatus string

const (
	ThreadActive ThreadStatus = "active"
	ThreadLocked ThreadStatus = "locked"
	ThreadClosed ThreadStatus = "closed"
)

// Valid reports whether s is a known thread status.
func (s ThreadStatus) Valid() bool {
	switch s {
	case ThreadActive, ThreadLocked, ThreadClosed:
		return true
	}
	return false
}

type Thread struct {
	ID     string       `json:"id"`
	Title  string       `json:"title,omitempty"`
	Status ThreadStatus `json:"status"`
	// Created timestamp (ns); immutable once set
	CreatedTS int64 `json:"created_ts"`
	// Updated timestamp (ns) - last time metadata or thread activity changed
	UpdatedTS int64 `json:"updated_ts,omitempty"`
}
