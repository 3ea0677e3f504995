package nodegl

import (
	"errors"
	"fmt"
)

// Error kinds returned by node construction, parameter access, attachment
// and resource initialization. Match them with errors.Is.
var (
	ErrInvalidArgument          = errors.New("nodegl: invalid argument")
	ErrTypeMismatch             = errors.New("nodegl: type mismatch")
	ErrInvalidNodeType          = errors.New("nodegl: invalid node type")
	ErrAllocationFailure        = errors.New("nodegl: allocation failure")
	ErrDeviceCapabilityExceeded = errors.New("nodegl: device capability exceeded")
	ErrAlreadyAttached          = errors.New("nodegl: node already attached")
	ErrNotAttached              = errors.New("nodegl: node not attached")
	ErrResourceInit             = errors.New("nodegl: resource initialization failure")
)

// ResourceInitError reports a device-side failure (compile, link, allocate)
// while initializing a node. Diagnostic carries the backend's message.
type ResourceInitError struct {
	Node       string
	Diagnostic string
}

func (e *ResourceInitError) Error() string {
	return fmt.Sprintf("nodegl: init %s: %s", e.Node, e.Diagnostic)
}

// Unwrap lets errors.Is match ErrResourceInit.
func (e *ResourceInitError) Unwrap() error {
	return ErrResourceInit
}

func errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// allocErr wraps a device allocation error.
func allocErr(n *Node, what string, err error) error {
	return fmt.Errorf("%w: %s: %s: %v", ErrAllocationFailure, n.name, what, err)
}
