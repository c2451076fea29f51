package errors

type ExitCode int

const (
	ExitSuccess         ExitCode = 0
	ExitGeneralError    ExitCode = 1
	ExitConfigError     ExitCode = 2
	ExitValidationError ExitCode = 3
	ExitAPIError        ExitCode = 4
	ExitConnectionError ExitCode = 5
	ExitToolError       ExitCode = 6
	ExitAuthError       ExitCode = 7
	ExitRateLimitError  ExitCode = 8
)

func (e ExitCode) Int() int {
	return int(e)
}
