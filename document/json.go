package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Marshal encodes v as compact JSON, keeping object keys in insertion order.
// HTML characters are not escaped.
func Marshal(v *Value) ([]byte, error) {
	enc := &encoder{}
	enc.strings = json.NewEncoder(&enc.scratch)
	enc.strings.SetEscapeHTML(false)
	if err := enc.encode(v); err != nil {
		return nil, err
	}
	return enc.out.Bytes(), nil
}

// MarshalIndent is like Marshal with each element on its own line prefixed
// by one indent per nesting level. No trailing newline is written.
func MarshalIndent(v *Value, indent string) ([]byte, error) {
	compact, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	if indent == "" {
		return compact, nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Unmarshal decodes a single JSON value, preserving object key order. A
// repeated key keeps its first position and its last value.
func Unmarshal(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	tok, err := dec.Token()
	if err == nil {
		return nil, fmt.Errorf("document: unexpected %v after top-level value", tok)
	}
	if !errors.Is(err, io.EOF) {
		return nil, err
	}
	return v, nil
}

// MarshalJSON implements json.Marshaler.
func (v *Value) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return Marshal(v)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := Unmarshal(data)
	if err != nil {
		return err
	}
	*v = *decoded
	return nil
}

type encoder struct {
	out     bytes.Buffer
	scratch bytes.Buffer
	strings *json.Encoder
}

func (e *encoder) encode(v *Value) error {
	switch v.Kind() {
	case KindNull:
		e.out.WriteString("null")
	case KindBool:
		if v.b {
			e.out.WriteString("true")
		} else {
			e.out.WriteString("false")
		}
	case KindNumber:
		num, err := json.Marshal(v.n)
		if err != nil {
			return fmt.Errorf("document: encode number: %w", err)
		}
		e.out.Write(num)
	case KindString:
		return e.encodeString(v.s)
	case KindObject:
		e.out.WriteByte('{')
		first := true
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			if !first {
				e.out.WriteByte(',')
			}
			first = false
			if err := e.encodeString(pair.Key); err != nil {
				return err
			}
			e.out.WriteByte(':')
			if err := e.encode(pair.Value); err != nil {
				return err
			}
		}
		e.out.WriteByte('}')
	case KindArray:
		e.out.WriteByte('[')
		for i, elem := range v.arr {
			if i > 0 {
				e.out.WriteByte(',')
			}
			if err := e.encode(elem); err != nil {
				return err
			}
		}
		e.out.WriteByte(']')
	default:
		return fmt.Errorf("document: encode unknown kind %s", v.Kind())
	}
	return nil
}

func (e *encoder) encodeString(s string) error {
	e.scratch.Reset()
	if err := e.strings.Encode(s); err != nil {
		return fmt.Errorf("document: encode string: %w", err)
	}
	e.out.Write(bytes.TrimSuffix(e.scratch.Bytes(), []byte{'\n'}))
	return nil
}

func decodeValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("document: number %s: %w", t, err)
		}
		return Number(f), nil
	case json.Delim:
		switch t {
		case '{':
			out := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("document: object key %v is not a string", keyTok)
				}
				child, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				out.obj.Set(key, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return out, nil
		case '[':
			out := NewArray()
			for dec.More() {
				child, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				out.arr = append(out.arr, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("document: unexpected token %v", tok)
}
