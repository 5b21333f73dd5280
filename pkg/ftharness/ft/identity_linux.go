//go:build linux

package ft

import "golang.org/x/sys/unix"

func gettid() int {
	return unix.Gettid()
}
