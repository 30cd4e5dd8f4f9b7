package ports

import "io"

// AvatarUpload is a profile picture on its way to object storage.
type AvatarUpload struct {
	UserID      string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
