//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package encoder

import (
	"golang.org/x/sys/unix"

	"vp9-encoder/config"
)

var niceValues = map[config.Priority]int{
	config.PriorityIdle:   19,
	config.PriorityLow:    10,
	config.PriorityNormal: 0,
	config.PriorityHigh:   -5,
}

// setPriority renices pid. Raising priority usually needs privileges.
func setPriority(pid int, p config.Priority) error {
	nice, ok := niceValues[p]
	if !ok || pid <= 0 {
		return nil
	}
	return unix.Setpriority(unix.PRIO_PROCESS, pid, nice)
}
