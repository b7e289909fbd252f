package cli

import (
	"errors"
	"fmt"
)

// ExitError carries a dispatched command's non-zero exit code back to main.
// The child has already reported its own failure, so nothing is printed.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.Code)
}

// ExitCode maps an Execute result to the process exit status: 0 on success,
// the child's status when a dispatched command failed, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) && exit.Code > 0 {
		return exit.Code
	}
	return 1
}
