package storage

import "fmt"

// OpError wraps a failure from the raw key-value backend with the store
// operation that hit it. The original cause stays inspectable through
// errors.Unwrap / errors.Is.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// opErr builds an OpError, passing nil through untouched.
func opErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}
