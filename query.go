package jsondb

import (
	"fmt"

	"github.com/theory/jsonpath"
)

// Query selects values from the document with an RFC 9535 JSONPath
// expression such as "$.items[?@.price > 10].name". Results are plain Go
// values detached from the document; writes to them are not observed.
func (s *Store) Query(expression string) ([]any, error) {
	if expression == "" {
		return nil, fmt.Errorf("jsondb: query expression must not be empty")
	}
	path, err := jsonpath.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("jsondb: invalid query %q: %w", expression, err)
	}
	nodes := path.Select(s.Data().Interface())
	out := make([]any, len(nodes))
	copy(out, nodes)
	return out, nil
}
