package jsondb

import (
	"fmt"

	"github.com/goliatone/go-jsondb/document"
	"github.com/goliatone/go-jsondb/internal/hydrate"
)

// DecodeOption configures DecodeAt.
type DecodeOption[T any] = hydrate.DecoderOption[T]

// DecodeStrict rejects object fields T does not declare.
func DecodeStrict[T any]() DecodeOption[T] {
	return hydrate.WithDisallowUnknownFields[T]()
}

// DecodeWithValidator runs validate on the decoded value.
func DecodeWithValidator[T any](validate func(path string, value *T) error) DecodeOption[T] {
	return hydrate.WithPostHook[T](func(ctx hydrate.Context, value *T) error {
		return validate(ctx.Path, value)
	})
}

// DecodeAt decodes the value at path into T using encoding/json rules. An
// empty path decodes the whole document.
func DecodeAt[T any](s *Store, path string, opts ...DecodeOption[T]) (T, error) {
	var zero T
	root := s.Data().Raw()
	node, ok := root, true
	if path != "" {
		node, ok = document.Lookup(root, path)
	}
	if !ok {
		return zero, fmt.Errorf("jsondb: decode %q: %w", path, document.ErrPathNotFound)
	}
	ctx := hydrate.Context{Location: s.location(), Path: path}
	value, err := hydrate.NewDecoder[T](opts...).Decode(ctx, node.Interface())
	if err != nil {
		return zero, fmt.Errorf("jsondb: %w", err)
	}
	return value, nil
}
