// Package codec converts documents to and from their on-disk representation.
package codec

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-jsondb/document"
)

// Codec encodes and decodes a whole document.
type Codec interface {
	Name() string
	Encode(root *document.Value) ([]byte, error)
	Decode(payload []byte) (*document.Value, error)
}

// DefaultIndent matches JSON.stringify(value, null, 2).
const DefaultIndent = 2

type jsonCodec struct {
	indent string
}

// JSON returns a codec writing JSON indented by the given number of spaces.
// Zero writes compact JSON.
func JSON(indent int) Codec {
	if indent < 0 {
		indent = 0
	}
	return jsonCodec{indent: strings.Repeat(" ", indent)}
}

func (jsonCodec) Name() string { return "json" }

func (c jsonCodec) Encode(root *document.Value) ([]byte, error) {
	out, err := document.MarshalIndent(root, c.indent)
	if err != nil {
		return nil, fmt.Errorf("codec: json encode: %w", err)
	}
	return out, nil
}

func (jsonCodec) Decode(payload []byte) (*document.Value, error) {
	root, err := document.Unmarshal(payload)
	if err != nil {
		return nil, fmt.Errorf("codec: json decode: %w", err)
	}
	return root, nil
}

// ByName returns the codec registered under name ("json" or "yaml").
func ByName(name string, indent int) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSON(indent), nil
	case "yaml", "yml":
		return YAML(), nil
	default:
		return nil, fmt.Errorf("codec: unknown format %q", name)
	}
}

// ForPath picks a codec from the file extension, defaulting to JSON.
func ForPath(path string, indent int) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML()
	default:
		return JSON(indent)
	}
}
