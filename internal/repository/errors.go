// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// services and handlers to distinguish between failure scenarios without
// leaking raw database errors: a unique-key violation surfaces as
// ErrEmailExists or ErrConflict, a missing row as ErrNotFound.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a referenced row does not exist, for example
// assigning a role id that was never seeded. Handlers translate this into an
// HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert or update violates a uniqueness
// constraint other than the user email. Handlers translate this into an HTTP
// 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned by user creation when the email is already
// registered.
var ErrEmailExists = errors.New("email already exists")

// isDupKey reports whether err is a MySQL duplicate-key violation (1062).
func isDupKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

// isFKViolation reports whether err is a MySQL foreign-key failure (1452),
// meaning a referenced parent row is absent.
func isFKViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1452")
}
