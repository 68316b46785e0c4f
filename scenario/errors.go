package scenario

import "errors"

var (
	// ErrUnknownObject is returned when a root, reference or step names an
	// object the scenario does not define.
	ErrUnknownObject = errors.New("unknown object")

	// ErrInvalidStep is returned for steps that neither set nor raise, or
	// whose target is not of the form object.Property.
	ErrInvalidStep = errors.New("invalid step")

	// ErrUnknownAdapter is returned by ParseAdapter for unrecognized names.
	ErrUnknownAdapter = errors.New("unknown adapter")
)
