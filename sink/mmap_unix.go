//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package sink

import (
	"os"

	"golang.org/x/sys/unix"
)

func pageSize() int {
	return unix.Getpagesize()
}

func mapFile(file *os.File, size int) ([]byte, error) {
	return unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func unmap(data []byte) error {
	return unix.Munmap(data)
}

// syncMap msyncs from the start of the mapping, which keeps the address page aligned
func syncMap(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Msync(data, unix.MS_SYNC)
}
