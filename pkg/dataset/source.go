// Package dataset fetches datasets from the dataset hosting service and
// keeps them in a local cache.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Source resolves a dataset handle into a local directory holding the dataset.
type Source interface {
	// Download makes the dataset available locally and returns its directory.
	//
	// # Args
	//
	// - ctx: context. Canceling it aborts downloading.
	//
	// - handle: "owner/slug" of the dataset.
	Download(ctx context.Context, handle string) (string, error)
}

var ErrBadHandle = errors.New("dataset handle should be in the form of owner/slug")

// ParseHandle splits "owner/slug" into owner and slug.
func ParseHandle(handle string) (owner string, slug string, err error) {
	owner, slug, ok := strings.Cut(handle, "/")
	if !ok || owner == "" || slug == "" || strings.Contains(slug, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrBadHandle, handle)
	}
	if owner == "." || owner == ".." || slug == "." || slug == ".." {
		return "", "", fmt.Errorf("%w: %q", ErrBadHandle, handle)
	}
	return owner, slug, nil
}
