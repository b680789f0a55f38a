package sourcer

import (
	"os"

	"golang.org/x/sys/unix"
)

// Readable reports whether path is a regular file this process may read.
// access(2) honours the real uid, ACLs and read-only mounts, which a mode-bit
// check would miss.
func Readable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return unix.Access(path, unix.R_OK) == nil
}
