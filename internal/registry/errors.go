package registry

import "errors"

var (
	// ErrExtraction means the target could not be described. Nothing is
	// registered when it is returned.
	ErrExtraction = errors.New("cannot extract management surface")

	ErrAttributeNotFound    = errors.New("attribute not found")
	ErrAttributeNotReadable = errors.New("attribute is not readable")
	ErrAttributeNotWritable = errors.New("attribute is not writable")
	ErrOperationNotFound    = errors.New("operation not found")

	// ErrNameInUse means another target is already registered under the name.
	ErrNameInUse = errors.New("name already in use")
	// ErrNameCollision means a key of the new object is already indexed,
	// either by an equal name or by a hash collision.
	ErrNameCollision = errors.New("name collision")
	// ErrInconsistent is reported by Verify.
	ErrInconsistent = errors.New("registry index is inconsistent")
)
