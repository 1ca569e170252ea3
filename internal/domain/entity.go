package domain

import "time"

// Entity provides the common identity and timestamp fields shared by all
// persisted domain types. Embed it in any type that gets its own table.
type Entity struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp to the current time.
// Call this whenever the underlying entity changes.
func (e *Entity) Touch() {
	e.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new entity.
func (e *Entity) InitTimestamps() {
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
}
