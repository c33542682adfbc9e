package policies

import (
	"context"
	"io"
)

// Uploader stores listing photos and hands back a public URL.
type Uploader interface {
	Upload(ctx context.Context, objectKey string, reader io.Reader, contentType string) (url string, err error)
	Remove(ctx context.Context, objectKey string) error
}
