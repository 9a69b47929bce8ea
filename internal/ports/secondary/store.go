package secondary

import "context"

// ObjectStore defines the secondary port for the capture, dataset and
// ground-truth object store. All locations are full s3:// URIs.
type ObjectStore interface {
	// List returns the URIs of every object under prefix, sorted lexically.
	List(ctx context.Context, prefix string) ([]string, error)

	// Read returns an object's full content.
	// Returns an error wrapping ErrNotFound if the object does not exist.
	Read(ctx context.Context, uri string) ([]byte, error)

	// Put writes body as a single object.
	Put(ctx context.Context, uri string, body []byte, contentType string) error
}
