package jsondb

import (
	"errors"
	"fmt"
)

// ErrParse matches every *ParseError.
var ErrParse = errors.New("jsondb: parse error")

// ParseError reports a stored document that could not be decoded. The
// in-memory document is left untouched when it is returned.
type ParseError struct {
	Location string
	Codec    string
	Err      error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("jsondb: parse %s as %s: %v", e.Location, e.Codec, e.Err)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is(err, ErrParse) match any ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
