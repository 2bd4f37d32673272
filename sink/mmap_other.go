//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package sink

import (
	"errors"
	"os"
)

var errMmapUnsupported = errors.New("memory-mapped sinks are not supported on this platform")

func pageSize() int {
	return os.Getpagesize()
}

func mapFile(*os.File, int) ([]byte, error) {
	return nil, errMmapUnsupported
}

func unmap([]byte) error {
	return nil
}

func syncMap([]byte) error {
	return nil
}
