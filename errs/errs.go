// Package errs defines the error kinds reported by folio operations.
//
// Every failure is an *Error carrying a Code. Callers match kinds with
// errors.Is against the exported sentinels:
//
//	if errors.Is(err, errs.ErrCrypto) { ... }
package errs

import (
	"fmt"
	"strings"
)

// Code categorizes an Error.
type Code string

const (
	CodeLoad                  Code = "LOAD"
	CodeUnsupportedConversion Code = "UNSUPPORTED_CONVERSION"
	CodeIO                    Code = "IO"
	CodeStructure             Code = "STRUCTURE"
	CodeCrypto                Code = "CRYPTO"
	CodeEncodingLoss          Code = "ENCODING_LOSS"
	CodeInvalidArgument       Code = "INVALID_ARGUMENT"
)

// Error is the structured error returned by folio packages.
type Error struct {
	Code Code
	Op   string // operation, e.g. "rotate"
	Path string // file involved, if any
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
	} else {
		b.WriteString(strings.ToLower(strings.ReplaceAll(string(e.Code), "_", " ")))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrLoad                  = &Error{Code: CodeLoad}
	ErrUnsupportedConversion = &Error{Code: CodeUnsupportedConversion}
	ErrIO                    = &Error{Code: CodeIO}
	ErrStructure             = &Error{Code: CodeStructure}
	ErrCrypto                = &Error{Code: CodeCrypto}
	ErrEncodingLoss          = &Error{Code: CodeEncodingLoss}
	ErrInvalidArgument       = &Error{Code: CodeInvalidArgument}
)

// E builds an *Error.
func E(code Code, op, path string, err error) *Error {
	return &Error{Code: code, Op: op, Path: path, Err: err}
}

// Structure reports a malformed or unusable document.
func Structure(op, format string, args ...any) *Error {
	return &Error{Code: CodeStructure, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Invalid reports a bad argument.
func Invalid(op, format string, args ...any) *Error {
	return &Error{Code: CodeInvalidArgument, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Crypto reports an authentication or cipher failure.
func Crypto(op, format string, args ...any) *Error {
	return &Error{Code: CodeCrypto, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// WithPath returns a copy of err with Path set when err is an *Error
// lacking one. Other errors are wrapped with the given code.
func WithPath(err error, code Code, op, path string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		c := *e
		if c.Path == "" {
			c.Path = path
		}
		if c.Op == "" {
			c.Op = op
		}
		return &c
	}
	return E(code, op, path, err)
}
