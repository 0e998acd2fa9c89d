// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrLastSSM indicates that a delete would remove the final
// ssm account, while ErrReferenceExists signals a duplicate letter
// reference code.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when the requested row does not exist or the
// caller is not associated with it (e.g. marking a letter read without
// being a recipient). Handlers translate this into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrUsernameExists is returned when creating a user with a username
// that is already taken. Handlers translate this into HTTP 409.
var ErrUsernameExists = errors.New("username already exists")

// ErrEmailExists is returned when an update would claim an email that
// another account already uses. HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrReferenceExists is returned when creating a letter whose reference
// code already exists. References are globally unique. HTTP 409.
var ErrReferenceExists = errors.New("reference already exists")

// ErrLastSSM is returned when a delete would remove the last remaining
// ssm account. At least one ssm must always exist. HTTP 400.
var ErrLastSSM = errors.New("cannot delete the last ssm user")

// isDuplicate reports whether err is a unique-key violation. MySQL
// surfaces error 1062; the SQLite test fixture reports "UNIQUE
// constraint failed".
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique")
}
