package ft

import (
	"os"
)

// Identity is how the native manager recognises a calling thread.
type Identity struct {
	PID  uint32
	TID  uint32
	Name string
}

// CurrentIdentity captures the process and thread ids of the caller.
//
// The thread id is only meaningful while the calling goroutine stays on the
// same OS thread; callers that need a stable TID lock the goroutine with
// runtime.LockOSThread before calling. On platforms without thread ids the
// TID equals the PID.
func CurrentIdentity(name string) Identity {
	return Identity{
		PID:  uint32(os.Getpid()),
		TID:  uint32(gettid()),
		Name: name,
	}
}
