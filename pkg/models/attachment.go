package models

// Attachment references a thread by id. Plain CRUD; no ordering invariant
// beyond id uniqueness.
type Attachment struct {
	ID        string `json:"id"`
	Thread    string `json:"thread"`
	Name      string `json:"name,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	Size      int64  `json:"size,omitempty"`
	CreatedTS int64  `json:"created_ts"`
}
