package bagit

import "fmt"

// FilesystemError wraps a failed I/O primitive: copy, write, unlink,
// mkdir, tempfile, glob, open. It is returned immediately and aborts
// the operation in progress; filesystem errors are never accumulated.
type FilesystemError struct {
	Op      string
	Path    string
	Wrapped error
}

func (e *FilesystemError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("filesystem error during %s: %v", e.Op, e.Wrapped)
	}
	return fmt.Sprintf("filesystem error during %s on %s: %v", e.Op, e.Path, e.Wrapped)
}

func (e *FilesystemError) Unwrap() error { return e.Wrapped }

func fsErr(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &FilesystemError{Op: op, Path: path, Wrapped: err}
}

// BagError describes a contract or format violation: an unsupported
// algorithm, a duplicate fetch URL, a reserved filename, an unknown
// charset, an upgrade precondition that doesn't hold, removal of the
// last algorithm, a destination that escapes the bag, and so on.
type BagError struct {
	Message string
	Wrapped error
}

func (e *BagError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
	}
	return e.Message
}

func (e *BagError) Unwrap() error { return e.Wrapped }

func bagErr(format string, args ...interface{}) error {
	return &BagError{Message: fmt.Sprintf(format, args...)}
}

func bagErrWrap(wrapped error, format string, args ...interface{}) error {
	return &BagError{Message: fmt.Sprintf(format, args...), Wrapped: wrapped}
}

// Problem is a single accumulated error or warning record. Load,
// Validate and DownloadAll collect Problems instead of failing fast,
// so that callers see the full picture of what is wrong with a bag.
type Problem struct {
	File    string
	Message string
}

func (p Problem) String() string {
	if p.File == "" {
		return p.Message
	}
	return fmt.Sprintf("%s: %s", p.File, p.Message)
}
