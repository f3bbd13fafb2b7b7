// Package util contains any functions used across the application that don't match
// any other package
package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewToken mints an opaque identity token. The default nanoid alphabet at
// 21 characters carries ~126 bits of entropy, which makes collisions and
// guessing negligible over a room's lifetime.
func NewToken() (string, error) {
	return gonanoid.New()
}
