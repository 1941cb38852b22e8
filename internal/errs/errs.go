package errs

import (
	"fmt"

	"github.com/go-faster/errors"
)

type (
	// ConnectionError is returned when the node could not be reached or the
	// transport failed mid-request. It is the only retry-eligible error kind.
	ConnectionError struct {
		Op  string
		Err error
	}

	// DecodeError is returned when bytes read from the chain do not match the
	// expected schema. It is never defaulted away.
	DecodeError struct {
		What string
		Err  error
	}

	// DispatchError is the chain's rejection of an included extrinsic, or of the
	// inner call of a multisig execution.
	DispatchError struct {
		Module     string
		Name       string
		Index      int
		ErrorIndex int
		Raw        string
	}

	// UnsupportedRuntimeError is returned when the node runs a runtime version
	// the storage and call layouts were not pinned against.
	UnsupportedRuntimeError struct {
		SpecName    string
		SpecVersion int
	}
)

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.What, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DispatchError) Error() string {
	if e.Module != "" {
		return fmt.Sprintf("dispatch error %s.%s", e.Module, e.Name)
	}
	if e.Name != "" {
		return fmt.Sprintf("dispatch error %s", e.Name)
	}
	return fmt.Sprintf("dispatch error %s", e.Raw)
}

// Is matches another DispatchError naming the same module error.
func (e *DispatchError) Is(target error) bool {
	t, ok := target.(*DispatchError)
	if !ok {
		return false
	}
	return t.Module == e.Module && t.Name == e.Name
}

func (e *UnsupportedRuntimeError) Error() string {
	return fmt.Sprintf("runtime %s/%d is not a supported spec version", e.SpecName, e.SpecVersion)
}

// NewConnectionError wraps err as a ConnectionError unless it already is one.
func NewConnectionError(op string, err error) error {
	if err == nil {
		return nil
	}
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return err
	}
	return &ConnectionError{Op: op, Err: err}
}

// NewReadError wraps a failed read as a ConnectionError unless the node
// answered: schema mismatches and node error objects keep their type.
func NewReadError(op string, err error) error {
	if err == nil || IsDecode(err) || IsNodeError(err) {
		return err
	}
	return NewConnectionError(op, err)
}

// NewDecodeError wraps err as a DecodeError.
func NewDecodeError(what string, err error) error {
	if err == nil {
		return nil
	}
	return &DecodeError{What: what, Err: err}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// IsDecode reports whether err is a schema mismatch, including an unsupported runtime.
func IsDecode(err error) bool {
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return true
	}
	var runtimeErr *UnsupportedRuntimeError
	return errors.As(err, &runtimeErr)
}

// IsNodeError reports whether err carries an error object returned by the node.
func IsNodeError(err error) bool {
	var coded interface{ ErrorCode() int }
	return errors.As(err, &coded)
}
