//go:build !unix

package bagit

import "os"

// lockFile is a no-op on platforms without flock semantics; the
// temp-then-rename write pattern is still safe without it.
func lockFile(f *os.File) error   { return nil }
func unlockFile(f *os.File) error { return nil }
