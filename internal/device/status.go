package device

import "fmt"

// Status is the result code every runtime call returns. Codes follow the HIP
// runtime numbering so logs line up with the vendor documentation.
type Status int

const (
	Success                    Status = 0
	ErrorInvalidValue          Status = 1
	ErrorMemoryAllocation      Status = 2
	ErrorInvalidDevicePointer  Status = 17
	ErrorInvalidResourceHandle Status = 400
	ErrorNotReady              Status = 600
	ErrorLaunchFailure         Status = 719
)

// Name returns the symbolic name of the status.
func (s Status) Name() string {
	switch s {
	case Success:
		return "Success"
	case ErrorInvalidValue:
		return "ErrorInvalidValue"
	case ErrorMemoryAllocation:
		return "ErrorMemoryAllocation"
	case ErrorInvalidDevicePointer:
		return "ErrorInvalidDevicePointer"
	case ErrorInvalidResourceHandle:
		return "ErrorInvalidResourceHandle"
	case ErrorNotReady:
		return "ErrorNotReady"
	case ErrorLaunchFailure:
		return "ErrorLaunchFailure"
	default:
		return ""
	}
}

// String returns a human-readable description of the status.
func (s Status) String() string {
	switch s {
	case Success:
		return "no error"
	case ErrorInvalidValue:
		return "invalid argument"
	case ErrorMemoryAllocation:
		return "out of memory"
	case ErrorInvalidDevicePointer:
		return "invalid device pointer"
	case ErrorInvalidResourceHandle:
		return "invalid resource handle"
	case ErrorNotReady:
		return "device not ready"
	case ErrorLaunchFailure:
		return "unspecified launch failure"
	default:
		return ""
	}
}

// Err converts a failing status into an error. It returns nil for Success.
func (s Status) Err() error {
	if s == Success {
		return nil
	}
	return &StatusError{Status: s}
}

// StatusError carries a non-success status through error returns.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	name := e.Status.Name()
	if name == "" {
		name = "<unknown error>"
	}
	desc := e.Status.String()
	if desc == "" {
		desc = "<unknown description>"
	}
	return fmt.Sprintf("device runtime error %d: %s: %s", int(e.Status), name, desc)
}
