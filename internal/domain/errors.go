package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrLabelsDirNotFound signals that the annotation directory does not exist.
	ErrLabelsDirNotFound = errors.New("labels directory not found")
	// ErrImagesDirNotFound signals that the image directory does not exist.
	ErrImagesDirNotFound = errors.New("images directory not found")
	// ErrNoAnnotations signals that no annotation file with a recognized extension was found.
	ErrNoAnnotations = errors.New("no annotation files found")
	// ErrInvalidRatios signals split ratios outside [0,1] or not summing to 1.
	ErrInvalidRatios = errors.New("invalid split ratios")
	// ErrUnknownMergePolicy signals an unsupported merge policy name.
	ErrUnknownMergePolicy = errors.New("unknown merge policy")
	// ErrUnknownManifestFormat signals an unsupported manifest encoding.
	ErrUnknownManifestFormat = errors.New("unknown manifest format")
)

// IO operation names used in IOError.
const (
	OpList   = "list"
	OpOpen   = "open"
	OpRead   = "read"
	OpStat   = "stat"
	OpMkdir  = "mkdir"
	OpCopy   = "copy"
	OpWrite  = "write"
	OpRemove = "remove"
)

// IOError is an unrecoverable filesystem failure. It aborts the run.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Err.Error())
}

func (e *IOError) Unwrap() error { return e.Err }

// NewIOError wraps err with the failing operation and path.
func NewIOError(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}
