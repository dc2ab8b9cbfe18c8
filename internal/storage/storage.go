// Package storage hands finished byte buffers to object storage. Nothing is
// ever written to the local filesystem.
package storage

import "context"

// Reference locates an uploaded object.
type Reference struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Uploader stores a buffer and returns where it went. The buffer is not
// retained after Upload returns.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType, nameHint string) (Reference, error)
}
