// Package drive implements the folder-tree and file operations of the
// storage service: folder creation and listing, breadcrumb resolution,
// uploads with collision-free naming, downloads, and cascading deletion.
// All operations are scoped to an owning user; callers match the sentinel
// errors below with errors.Is.
package drive

import "errors"

var (
	// ErrValidation marks a rejected request input, such as an empty
	// folder name.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced entity id that does not resolve.
	// It takes precedence over ErrForbidden.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks an entity owned by a different user.
	ErrForbidden = errors.New("forbidden")

	// ErrStorage marks a blob store failure. Fatal for writes, logged and
	// swallowed for removals.
	ErrStorage = errors.New("storage failure")
)
