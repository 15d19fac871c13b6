package expose

import "fmt"

// Error is a named visibility error. Errors compare equal under errors.Is
// when their names match, so wrapped causes stay inspectable while callers
// test against the sentinels below.
type Error struct {
	Name    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Name, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by name.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Name == e.Name
}

var (
	// ErrInvalidCallback is returned synchronously when a registration has
	// no callable callback. Nothing is registered.
	ErrInvalidCallback = &Error{Name: "InvalidCallback", Message: "no callback function provided"}

	// ErrUnmeasurableTarget reports a target the region provider could not
	// measure. It only affects the current check; the registration stays
	// tracked and is retried on the next pass.
	ErrUnmeasurableTarget = &Error{Name: "UnmeasurableTarget", Message: "target cannot be measured"}
)

// InvalidCallback creates an InvalidCallback error.
func InvalidCallback(message string) *Error {
	return &Error{Name: ErrInvalidCallback.Name, Message: message}
}

// UnmeasurableTarget creates an UnmeasurableTarget error wrapping the
// provider's cause.
func UnmeasurableTarget(message string, cause error) *Error {
	return &Error{Name: ErrUnmeasurableTarget.Name, Message: message, Err: cause}
}
