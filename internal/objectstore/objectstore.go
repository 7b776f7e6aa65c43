// Package objectstore defines the binary image store used for photo objects.
package objectstore

import (
	"context"
	"errors"
)

// ObjectExt is the extension every photo object carries.
const ObjectExt = ".jpeg"

// ErrObjectNotFound is returned when a requested object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Store puts and deletes objects in one fixed bucket.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL returns the public address of key.
	URL(key string) string
}

// ObjectKey returns the object key of a photo: "{photoID}.jpeg".
func ObjectKey(photoID string) string {
	return photoID + ObjectExt
}
