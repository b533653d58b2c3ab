package errors

// CommandError carries the process exit code of a failed command.
type CommandError struct {
	ExitCode    int
	CommonError string
}

// Error implements the error interface, returning the message from the common error.
func (e *CommandError) Error() string {
	return e.CommonError
}

// NewCommandError wraps err with the exit code the process should end with.
func NewCommandError(err error, code int) *CommandError {
	return &CommandError{
		ExitCode:    code,
		CommonError: err.Error(),
	}
}
