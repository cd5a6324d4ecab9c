//go:build windows

package encoder

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"

	"vp9-encoder/config"
)

var priorityClasses = map[config.Priority]uint32{
	config.PriorityIdle:   windows.IDLE_PRIORITY_CLASS,
	config.PriorityLow:    windows.BELOW_NORMAL_PRIORITY_CLASS,
	config.PriorityNormal: windows.NORMAL_PRIORITY_CLASS,
	config.PriorityHigh:   windows.ABOVE_NORMAL_PRIORITY_CLASS,
}

func setPriority(pid int, p config.Priority) error {
	class, ok := priorityClasses[p]
	if !ok || pid <= 0 {
		return nil
	}

	handle, err := windows.OpenProcess(windows.PROCESS_SET_INFORMATION, false, uint32(pid))
	if err != nil {
		if errors.Is(err, windows.ERROR_ACCESS_DENIED) {
			return fmt.Errorf("access denied opening process %d", pid)
		}
		return err
	}
	defer windows.CloseHandle(handle)

	return windows.SetPriorityClass(handle, class)
}
