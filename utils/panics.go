package utils

import "fmt"

// RecoverWithError turns a panic into an error stored in err. Panics that
// carry an error stay matchable with errors.As.
func RecoverWithError(err *error) {
	if rv := recover(); rv != nil {
		if panicErr, ok := rv.(error); ok {
			*err = fmt.Errorf("got panic: %w", panicErr)
			return
		}
		*err = fmt.Errorf("got panic: %v", rv)
	}
}
