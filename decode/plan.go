package decode

import (
	"encoding"
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

type fieldPlan struct {
	name     string
	typ      reflect.Type
	required bool
	// owner is the struct type that declares the field.
	owner reflect.Type
}

var (
	unmarshalerType     = reflect.TypeFor[json.Unmarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

	plans  sync.Map // reflect.Type -> []fieldPlan
	checks sync.Map // reflect.Type -> bool
)

// planFor lists the JSON-visible fields of struct type t, with embedded
// structs flattened the way encoding/json promotes them.
func planFor(t reflect.Type) []fieldPlan {
	if cached, ok := plans.Load(t); ok {
		return cached.([]fieldPlan)
	}

	var fields []fieldPlan
	seen := map[string]bool{}
	collectFields(t, seen, &fields)

	actual, _ := plans.LoadOrStore(t, fields)
	return actual.([]fieldPlan)
}

func collectFields(t reflect.Type, seen map[string]bool, out *[]fieldPlan) {
	var embedded []reflect.Type

	for i := range t.NumField() {
		sf := t.Field(i)
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")

		if sf.Anonymous && name == "" {
			ft := indirect(sf.Type)
			if ft.Kind() == reflect.Struct {
				embedded = append(embedded, ft)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		*out = append(*out, fieldPlan{
			name:     name,
			typ:      sf.Type,
			required: sf.Tag.Get("decode") == "required",
			owner:    t,
		})
	}

	// outer fields shadow promoted ones
	for _, et := range embedded {
		collectFields(et, seen, out)
	}
}

// needsCheck reports whether a value of type t can contain a required field
// that checkRequired has to look for.
func needsCheck(t reflect.Type) bool {
	if cached, ok := checks.Load(t); ok {
		return cached.(bool)
	}
	result := reaches(t, map[reflect.Type]bool{})
	checks.Store(t, result)
	return result
}

func reaches(t reflect.Type, visiting map[reflect.Type]bool) bool {
	t = indirect(t)
	if visiting[t] || customDecoding(t) {
		return false
	}
	visiting[t] = true
	defer delete(visiting, t)

	switch t.Kind() {
	case reflect.Struct:
		for _, f := range planFor(t) {
			if f.required || reaches(f.typ, visiting) {
				return true
			}
		}
	case reflect.Slice, reflect.Array, reflect.Map:
		return reaches(t.Elem(), visiting)
	}
	return false
}

// customDecoding types validate themselves.
func customDecoding(t reflect.Type) bool {
	pt := reflect.PointerTo(t)
	return t.Implements(unmarshalerType) || pt.Implements(unmarshalerType) || textual(t)
}

// textual types are encoded as JSON strings, time.Time among them.
func textual(t reflect.Type) bool {
	return t.Implements(textUnmarshalerType) || reflect.PointerTo(t).Implements(textUnmarshalerType)
}

// embeddedField reports whether name is the Go name of a struct embedded in
// t without a JSON tag. encoding/json lists those in UnmarshalTypeError.Field
// even though they never appear in the document.
func embeddedField(t reflect.Type, name string) bool {
	sf, ok := t.FieldByName(name)
	if !ok || !sf.Anonymous {
		return false
	}
	tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	return tag == "" && indirect(sf.Type).Kind() == reflect.Struct
}
