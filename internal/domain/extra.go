package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// FieldKind classifies an extra-field value. The set is closed: forms only
// produce scalar values.
type FieldKind string

const (
	KindString  FieldKind = "string"
	KindNumber  FieldKind = "number"
	KindBoolean FieldKind = "boolean"
	KindDate    FieldKind = "date"
)

// ExtraField is a single form-defined field on a token.
type ExtraField struct {
	Name  string
	Kind  FieldKind
	Value any
}

// Extra carries the form-defined fields of a token in submission order. The
// service stores and returns it verbatim and never interprets the contents.
type Extra []ExtraField

// MarshalJSON renders the fields as a JSON object preserving field order.
func (e Extra) MarshalJSON() ([]byte, error) {
	if e == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(field.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(field.Value)
		if err != nil {
			return nil, fmt.Errorf("extra field %q: %w", field.Name, err)
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the original key order. Numbers
// are kept as json.Number so they round-trip without precision loss;
// non-scalar values are preserved as their raw JSON text.
func (e *Extra) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*e = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("extra: expected JSON object, got %v", tok)
	}

	fields := Extra{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("extra: expected object key, got %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		field, err := decodeExtraValue(name, raw)
		if err != nil {
			return err
		}
		fields = append(fields, field)
	}

	*e = fields
	return nil
}

func decodeExtraValue(name string, raw json.RawMessage) (ExtraField, error) {
	field := ExtraField{Name: name}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var val any
	if err := dec.Decode(&val); err != nil {
		return field, err
	}

	switch v := val.(type) {
	case string:
		field.Kind = KindString
		if looksLikeDate(v) {
			field.Kind = KindDate
		}
		field.Value = v
	case json.Number:
		field.Kind = KindNumber
		field.Value = v
	case bool:
		field.Kind = KindBoolean
		field.Value = v
	case nil:
		field.Kind = KindString
		field.Value = nil
	default:
		// Nested structures are outside the scalar contract; keep the raw
		// JSON text so the blob still passes through untouched.
		field.Kind = KindString
		field.Value = string(raw)
	}

	return field, nil
}

func looksLikeDate(s string) bool {
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return true
	}
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return true
	}
	return false
}
