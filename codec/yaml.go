package codec

import (
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/goliatone/go-jsondb/document"
)

type yamlCodec struct{}

// YAML returns a codec storing the document as YAML. Mapping order is kept in
// both directions.
func YAML() Codec {
	return yamlCodec{}
}

func (yamlCodec) Name() string { return "yaml" }

func (yamlCodec) Encode(root *document.Value) ([]byte, error) {
	out, err := yaml.Marshal(toYAML(root))
	if err != nil {
		return nil, fmt.Errorf("codec: yaml encode: %w", err)
	}
	return out, nil
}

func (yamlCodec) Decode(payload []byte) (*document.Value, error) {
	var raw any
	if err := yaml.UnmarshalWithOptions(payload, &raw, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("codec: yaml decode: %w", err)
	}
	root, err := fromYAML(raw)
	if err != nil {
		return nil, fmt.Errorf("codec: yaml decode: %w", err)
	}
	return root, nil
}

func toYAML(v *document.Value) any {
	switch v.Kind() {
	case document.KindObject:
		out := make(yaml.MapSlice, 0, v.Len())
		for _, key := range v.Keys() {
			child, _ := v.Child(key)
			out = append(out, yaml.MapItem{Key: key, Value: toYAML(child)})
		}
		return out
	case document.KindArray:
		out := make([]any, v.Len())
		for i := range out {
			child, _ := v.Index(i)
			out[i] = toYAML(child)
		}
		return out
	case document.KindNumber:
		n, _ := v.AsNumber()
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n)
		}
		return n
	default:
		return v.Interface()
	}
}

func fromYAML(raw any) (*document.Value, error) {
	switch v := raw.(type) {
	case yaml.MapSlice:
		out := document.NewObject()
		for _, item := range v {
			child, err := fromYAML(item.Value)
			if err != nil {
				return nil, err
			}
			if err := out.SetChild(fmt.Sprint(item.Key), child); err != nil {
				return nil, err
			}
		}
		return out, nil
	case []any:
		elems := make([]*document.Value, len(v))
		for i, elem := range v {
			child, err := fromYAML(elem)
			if err != nil {
				return nil, err
			}
			elems[i] = child
		}
		return document.NewArray(elems...), nil
	case time.Time:
		return document.String(v.Format(time.RFC3339Nano)), nil
	default:
		return document.From(v)
	}
}
