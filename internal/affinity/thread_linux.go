//go:build linux

package affinity

import "golang.org/x/sys/unix"

func currentThreadID() int { return unix.Gettid() }

// On Linux the main thread's tid equals the pid.
func mainThreadID() int { return unix.Getpid() }
