package models

// Task is the domain's mutable resource managed through widget actions.
//
// Tasks are global to the store, not scoped to a thread: Thread records which
// conversation created the task, for provenance only, and must never be used
// as a filter predicate. Every conversation sees the same task list.
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Thread    string `json:"thread,omitempty"`
	CreatedTS int64  `json:"created_ts"`
	UpdatedTS int64  `json:"updated_ts,omitempty"`
}
