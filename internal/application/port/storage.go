package port

import "context"

// PhotoStorage stores bill photo payloads and returns an opaque URL.
// Callers treat a storage failure as "no photo" rather than failing
// the surrounding bill operation.
type PhotoStorage interface {
	// Store persists the decoded photo bytes and returns a reference URL
	Store(ctx context.Context, content []byte, contentType string) (string, error)
}
