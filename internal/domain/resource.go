package domain

import "time"

// Resource describes a video file resolved under the media root. It is
// computed per request and never cached.
type Resource struct {
	Name        string
	Path        string
	Size        int64
	ModTime     time.Time
	ContentType string
}
