//go:build !unix

package procutil

import (
	"errors"
	"os"
)

var errPauseUnsupported = errors.New("pausing a process is not supported on this OS")

func stopProcess(*os.Process) error { return errPauseUnsupported }

func continueProcess(*os.Process) error { return errPauseUnsupported }
