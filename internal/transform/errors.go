package transform

import "fmt"

// Transformation failures are tagged so the CLI can report precise build
// diagnostics. All of them are fatal to the transformation that raised them.

// SyntaxError reports a function definition that does not match the shape a
// remotable function must have.
type SyntaxError struct {
	Func   string // function name, empty when the file itself fails to parse
	Reason string
}

func (e *SyntaxError) Error() string {
	if e.Func == "" {
		return fmt.Sprintf("syntax error: %s", e.Reason)
	}
	return fmt.Sprintf("syntax error in %s: %s", e.Func, e.Reason)
}

// UnsupportedTypeError reports a parameter whose type does not reduce to a
// byte sequence. An empty Param means the function has no parameters at all.
type UnsupportedTypeError struct {
	Func  string
	Param string
	Type  string
}

func (e *UnsupportedTypeError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("%s: remotable functions require at least one parameter", e.Func)
	}
	return fmt.Sprintf("%s: parameter %s has unsupported type %s (must reduce to a byte sequence)", e.Func, e.Param, e.Type)
}

// UnknownAttributeError reports an unrecognized attribute key.
type UnknownAttributeError struct {
	Key string
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("unknown attribute %q", e.Key)
}

// InvalidAttributeValueError reports a recognized key with a mistyped or
// out-of-range value.
type InvalidAttributeValueError struct {
	Key    string
	Value  string
	Reason string
}

func (e *InvalidAttributeValueError) Error() string {
	return fmt.Sprintf("invalid value %s for attribute %q: %s", e.Value, e.Key, e.Reason)
}

// EmissionIOError reports a failure to create or write the kernel program
// source file.
type EmissionIOError struct {
	Path string
	Err  error
}

func (e *EmissionIOError) Error() string {
	return fmt.Sprintf("emitting kernel source %s: %v", e.Path, e.Err)
}

func (e *EmissionIOError) Unwrap() error { return e.Err }
