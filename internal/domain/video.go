package domain

// Video is a reference to an external YouTube video saved by a user.
// The media itself is never fetched or stored; only the reference.
type Video struct {
	Entity
	UserID     string  `json:"user_id"`
	YoutubeID  string  `json:"youtube_id"`
	YoutubeURL string  `json:"youtube_url"`
	Title      string  `json:"title,omitempty"`
	ThemeID    *string `json:"theme_id,omitempty"`
}

// Theme is a user-defined grouping label for videos.
type Theme struct {
	Entity
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}
