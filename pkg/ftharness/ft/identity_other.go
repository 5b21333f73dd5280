//go:build !linux

package ft

import "os"

func gettid() int {
	return os.Getpid()
}
