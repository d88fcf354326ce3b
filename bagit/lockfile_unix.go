//go:build unix

package bagit

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockFile takes an advisory exclusive lock on f for the duration of a
// guarded download write, so that two fetches racing for the same
// staged temp file don't interleave.
func lockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
