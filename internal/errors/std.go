package errors

import (
	stderrors "errors"
)

// Re-exported so callers importing this package do not also need the
// standard library errors package under another name.
var (
	As   = stderrors.As
	Is   = stderrors.Is
	Join = stderrors.Join
)
