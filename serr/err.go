// Package serr defines the error values returned by the process core.
// Invariant violations are not errors; they halt through debug.DFatalf.
package serr

import (
	"errors"
	"fmt"
)

type Terror uint32

const (
	TErrNoError Terror = iota
	TErrNoproc
	TErrNomem
	TErrNochild
	TErrNotfound
	TErrFault
	TErrInval
	TErrKilled
	TErrBadfd
)

func (err Terror) String() string {
	switch err {
	case TErrNoError:
		return "no error"
	case TErrNoproc:
		return "process table full"
	case TErrNomem:
		return "out of memory"
	case TErrNochild:
		return "no children"
	case TErrNotfound:
		return "not found"
	case TErrFault:
		return "bad address"
	case TErrInval:
		return "invalid argument"
	case TErrKilled:
		return "killed"
	case TErrBadfd:
		return "bad file descriptor"
	default:
		return "unknown error"
	}
}

type Err struct {
	ErrCode Terror
	Obj     string
	Err     error
}

func NewErr(code Terror, obj interface{}) *Err {
	return &Err{ErrCode: code, Obj: fmt.Sprintf("%v", obj)}
}

func NewErrError(code Terror, obj interface{}, err error) *Err {
	return &Err{ErrCode: code, Obj: fmt.Sprintf("%v", obj), Err: err}
}

func (err *Err) Code() Terror {
	return err.ErrCode
}

func (err *Err) Unwrap() error {
	return err.Err
}

func (err *Err) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("{Err: %q Obj: %q (%v)}", err.ErrCode, err.Obj, err.Err)
	}
	return fmt.Sprintf("{Err: %q Obj: %q}", err.ErrCode, err.Obj)
}

func (err *Err) String() string {
	return err.Error()
}

func IsErrCode(error error, code Terror) bool {
	var err *Err
	if errors.As(error, &err) {
		return err.ErrCode == code
	}
	return false
}
