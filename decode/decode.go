package decode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// Decode decodes data into a new value of type T.
func Decode[T any](data []byte) (T, error) {
	var v T
	if err := Into(data, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Into decodes data into v, which must be a non-nil pointer.
func Into(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("decode: target must be a non-nil pointer, got %T", v)
	}
	root := rv.Type().Elem()
	if err := json.Unmarshal(data, v); err != nil {
		return translate(err, data, root)
	}
	if !needsCheck(root) {
		return nil
	}
	return checkRequired(data, root, "")
}

// IntoNamed is Into for custom unmarshalers that decode through a local
// helper type: mismatches reported against the helper carry entity instead.
func IntoNamed(data []byte, v any, entity string) error {
	err := Into(data, v)
	var mismatch *SchemaMismatchError
	if errors.As(err, &mismatch) && !exported(mismatch.Entity) {
		mismatch.Entity = entity
		if mismatch.Field == "" && mismatch.Expected == "object" {
			mismatch.Expected = entity + " object"
		}
	}
	return err
}

// Fields splits a JSON object into its raw members.
func Fields(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &SchemaMismatchError{Expected: "object", Got: kindOf(data), Err: err}
	}
	if fields == nil {
		return nil, &SchemaMismatchError{Expected: "object", Got: "null"}
	}
	return fields, nil
}

// Discriminator reads the string tag of a polymorphic object, so the caller
// can pick the concrete shape before decoding the rest of it.
func Discriminator(data []byte, field string) (string, error) {
	fields, err := Fields(data)
	if err != nil {
		return "", err
	}
	raw, ok := fields[field]
	if !ok || isNull(raw) {
		return "", &SchemaMismatchError{Field: field, Expected: "string discriminator", Got: missingOrNull(ok)}
	}
	var tag string
	if err := json.Unmarshal(raw, &tag); err != nil {
		return "", &SchemaMismatchError{Field: field, Expected: "string discriminator", Got: kindOf(raw), Err: err}
	}
	return tag, nil
}

func translate(err error, data []byte, root reflect.Type) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("decode %s: malformed JSON at offset %d: %w", typeName(root), syntaxErr.Offset, err)
	}

	// Errors from custom unmarshalers carry no position, so find the value
	// that produced it.
	var mismatch *SchemaMismatchError
	if errors.As(err, &mismatch) {
		if located := locate(data, root, ""); located != nil {
			return located
		}
		return err
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field, owner := resolvePath(root, typeErr.Field)
		return &SchemaMismatchError{
			Entity:   typeName(owner),
			Field:    field,
			Expected: describe(typeErr.Type),
			Got:      typeErr.Value,
			Err:      err,
		}
	}

	if located := locate(data, root, ""); located != nil {
		return located
	}
	return fmt.Errorf("decode %s: %w", typeName(root), err)
}

// resolvePath turns an UnmarshalTypeError field into a JSON path, dropping
// the names of embedded structs, and returns the struct declaring the field.
func resolvePath(root reflect.Type, field string) (string, reflect.Type) {
	owner := indirect(root)
	if field == "" {
		return "", owner
	}

	cur := owner
	var path string
	for _, seg := range strings.Split(field, ".") {
		cur = element(cur)
		if cur == nil || cur.Kind() != reflect.Struct {
			path = joinPath(path, seg)
			cur = nil
			continue
		}
		if f, ok := planField(cur, seg); ok {
			path = joinPath(path, f.name)
			owner = f.owner
			cur = f.typ
			continue
		}
		if embeddedField(cur, seg) {
			continue
		}
		path = joinPath(path, seg)
		cur = nil
	}
	return path, owner
}

func planField(t reflect.Type, name string) (fieldPlan, bool) {
	for _, f := range planFor(t) {
		if f.name == name {
			return f, true
		}
	}
	for _, f := range planFor(t) {
		if strings.EqualFold(f.name, name) {
			return f, true
		}
	}
	return fieldPlan{}, false
}

// element strips pointers and containers down to the value type.
func element(t reflect.Type) reflect.Type {
	if t == nil {
		return nil
	}
	t = indirect(t)
	for t.Kind() == reflect.Slice || t.Kind() == reflect.Array || t.Kind() == reflect.Map {
		t = indirect(t.Elem())
	}
	return t
}

// locate walks data alongside t and reports the first value that a custom
// unmarshaler rejects, with its full path.
func locate(data []byte, t reflect.Type, path string) error {
	t = indirect(t)

	if customDecoding(t) {
		if isNull(data) {
			return nil
		}
		if textual(t) && kindOf(data) != "string" {
			return &SchemaMismatchError{Field: path, Expected: "string", Got: kindOf(data)}
		}
		err := json.Unmarshal(data, reflect.New(t).Interface())
		if err == nil {
			return nil
		}
		var nested *SchemaMismatchError
		if errors.As(err, &nested) {
			relocated := *nested
			relocated.Field = joinPath(path, nested.Field)
			return &relocated
		}
		if path == "" {
			return nil
		}
		return fmt.Errorf("decode %s: field %q: %w", typeName(t), path, err)
	}

	switch t.Kind() {
	case reflect.Struct:
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil
		}
		for _, f := range planFor(t) {
			raw, ok := lookup(fields, f.name)
			if !ok {
				continue
			}
			if err := locate(raw, f.typ, joinPath(path, f.name)); err != nil {
				var mismatch *SchemaMismatchError
				if errors.As(err, &mismatch) && mismatch.Entity == "" {
					mismatch.Entity = typeName(f.owner)
				}
				return err
			}
		}

	case reflect.Slice, reflect.Array:
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil
		}
		for i, item := range items {
			if err := locate(item, t.Elem(), path+"["+strconv.Itoa(i)+"]"); err != nil {
				return err
			}
		}

	case reflect.Map:
		var items map[string]json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil
		}
		keys := make([]string, 0, len(items))
		for k := range items {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if err := locate(items[k], t.Elem(), joinPath(path, k)); err != nil {
				return err
			}
		}
	}
	return nil
}

// describe names the JSON shape expected for t.
func describe(t reflect.Type) string {
	t = indirect(t)
	switch t.Kind() {
	case reflect.Struct:
		if exported(t.Name()) {
			return t.Name() + " object"
		}
		return "object"
	case reflect.Map:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	}
	return t.String()
}

// checkRequired walks data alongside t and reports the first required field
// that is absent or null. Type errors were already caught by json.Unmarshal,
// so anything that does not parse as the expected container is skipped here.
func checkRequired(data []byte, t reflect.Type, path string) error {
	t = indirect(t)

	switch t.Kind() {
	case reflect.Struct:
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
			return nil
		}
		for _, f := range planFor(t) {
			raw, ok := lookup(fields, f.name)
			fieldPath := joinPath(path, f.name)
			if !ok || isNull(raw) {
				if f.required {
					return &SchemaMismatchError{
						Entity:   typeName(t),
						Field:    fieldPath,
						Expected: f.typ.String(),
						Got:      missingOrNull(ok),
					}
				}
				continue
			}
			if !needsCheck(f.typ) {
				continue
			}
			if err := checkRequired(raw, f.typ, fieldPath); err != nil {
				return err
			}
		}

	case reflect.Slice, reflect.Array:
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil
		}
		for i, item := range items {
			if isNull(item) {
				continue
			}
			if err := checkRequired(item, t.Elem(), path+"["+strconv.Itoa(i)+"]"); err != nil {
				return err
			}
		}

	case reflect.Map:
		var items map[string]json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil
		}
		keys := make([]string, 0, len(items))
		for k := range items {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if isNull(items[k]) {
				continue
			}
			if err := checkRequired(items[k], t.Elem(), joinPath(path, k)); err != nil {
				return err
			}
		}
	}
	return nil
}

func lookup(fields map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	if raw, ok := fields[name]; ok {
		return raw, true
	}
	// encoding/json matches keys case-insensitively
	for k, raw := range fields {
		if strings.EqualFold(k, name) {
			return raw, true
		}
	}
	return nil, false
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func missingOrNull(present bool) string {
	if present {
		return "null"
	}
	return "missing"
}

func kindOf(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "empty"
	}
	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

func exported(name string) bool {
	return name != "" && unicode.IsUpper([]rune(name)[0])
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func typeName(t reflect.Type) string {
	t = indirect(t)
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
