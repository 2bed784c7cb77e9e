// Package repository defines error values reused across repositories.
// These sentinels let handlers distinguish failure scenarios without
// inspecting driver errors. Ownership is not a sentinel: lookups are
// owner-scoped, so a foreign row surfaces as a *NotFound value, and the
// station paths report ownership through GetWithOwner/OwnedBy results.
package repository

import "errors"

// ErrEmailExists is returned when registering an email that is already
// taken. Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrExhibitionNotFound is returned when an exhibition does not exist or
// is not visible to the calling admin. The two cases are deliberately
// indistinguishable so foreign resources are never revealed.
var ErrExhibitionNotFound = errors.New("exhibition not found")

// ErrStationNotFound is returned when a station lookup finds no row.
var ErrStationNotFound = errors.New("station not found")
