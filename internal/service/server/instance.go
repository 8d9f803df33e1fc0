package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning indicates another guard-server process owns the sensor.
var ErrAlreadyRunning = errors.New("another guard-server instance is running")

// ensureSingleInstance fails when another process runs the same executable.
func ensureSingleInstance() error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	pid, found, err := findProcessByName(filepath.Base(executable), os.Getpid())
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	if found {
		return fmt.Errorf("%w: pid %d", ErrAlreadyRunning, pid)
	}

	return nil
}

// findProcessByName returns the first process other than exceptPID whose
// executable is processName.
func findProcessByName(processName string, exceptPID int) (int, bool, error) {
	processList, err := ps.Processes()
	if err != nil {
		return 0, false, err
	}

	for _, process := range processList {
		if process.Pid() == exceptPID {
			continue
		}

		if !sameExecutable(process.Executable(), processName) {
			continue
		}

		return process.Pid(), true, nil
	}

	return 0, false, nil
}

// sameExecutable compares executable names; Windows names are case-insensitive.
func sameExecutable(a, b string) bool {
	if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		return strings.EqualFold(a, b)
	}

	return a == b
}
