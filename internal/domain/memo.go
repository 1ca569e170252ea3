package domain

// Memo is a note attached to a saved video, optionally anchored to a
// position in the video via TimestampSec.
type Memo struct {
	Entity
	UserID       string   `json:"user_id"`
	VideoID      string   `json:"video_id"`
	Content      string   `json:"content"`
	TimestampSec *int     `json:"timestamp_sec,omitempty"`
	TagIDs       []string `json:"tag_ids"`
}

// Tag is a user-scoped label attached to memos (many-to-many).
type Tag struct {
	Entity
	UserID string  `json:"user_id"`
	Name   string  `json:"name"`
	Color  *string `json:"color,omitempty"`
}
