package paginate

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/s0up4200/osuapi/decode"
	"github.com/s0up4200/osuapi/transport"
)

// Extractor splits a raw response into its items, the cursor of the next
// page and the total count when the endpoint reports one. spec is the
// request that produced raw.
type Extractor func(raw json.RawMessage, spec transport.RequestSpec) (Page[json.RawMessage], error)

// CursorString extracts endpoints that page with an opaque "cursor_string".
// itemsField names the member holding the items.
func CursorString(itemsField string) Extractor {
	return func(raw json.RawMessage, _ transport.RequestSpec) (Page[json.RawMessage], error) {
		fields, err := decode.Fields(raw)
		if err != nil {
			return Page[json.RawMessage]{}, err
		}

		items, err := itemsOf(fields, itemsField)
		if err != nil {
			return Page[json.RawMessage]{}, err
		}
		page := Page[json.RawMessage]{Items: items}

		if rawCursor, ok := fields["cursor_string"]; ok {
			var cursor *string
			if err := json.Unmarshal(rawCursor, &cursor); err != nil {
				return Page[json.RawMessage]{}, &decode.SchemaMismatchError{
					Field: "cursor_string", Expected: "string or null", Got: string(rawCursor), Err: err,
				}
			}
			if cursor != nil && *cursor != "" {
				page.Cursor = cursor
			}
		}

		if rawTotal, ok := fields["total"]; ok {
			var total *int
			if err := json.Unmarshal(rawTotal, &total); err == nil {
				page.Total = total
			}
		}
		return page, nil
	}
}

// Offset extracts endpoints that page with "offset" and "limit" parameters.
// A page shorter than limit is the last one. An empty itemsField means the
// response is a bare array.
func Offset(itemsField string, limit int) Extractor {
	return func(raw json.RawMessage, spec transport.RequestSpec) (Page[json.RawMessage], error) {
		var items []json.RawMessage
		if itemsField == "" {
			if err := json.Unmarshal(raw, &items); err != nil {
				return Page[json.RawMessage]{}, &decode.SchemaMismatchError{Expected: "array", Got: "non-array", Err: err}
			}
		} else {
			fields, err := decode.Fields(raw)
			if err != nil {
				return Page[json.RawMessage]{}, err
			}
			if items, err = itemsOf(fields, itemsField); err != nil {
				return Page[json.RawMessage]{}, err
			}
		}

		page := Page[json.RawMessage]{Items: items}
		if len(items) == 0 || len(items) < limit {
			return page, nil
		}

		offset := 0
		if v := spec.Query.Get("offset"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return Page[json.RawMessage]{}, fmt.Errorf("invalid offset %q in request: %w", v, err)
			}
			offset = parsed
		}
		next := strconv.Itoa(offset + len(items))
		page.Cursor = &next
		return page, nil
	}
}

// PageNumber extracts endpoints that page with a 1-based "page" parameter.
// A page shorter than limit is the last one.
func PageNumber(itemsField string, limit int) Extractor {
	return func(raw json.RawMessage, spec transport.RequestSpec) (Page[json.RawMessage], error) {
		fields, err := decode.Fields(raw)
		if err != nil {
			return Page[json.RawMessage]{}, err
		}
		items, err := itemsOf(fields, itemsField)
		if err != nil {
			return Page[json.RawMessage]{}, err
		}

		page := Page[json.RawMessage]{Items: items}
		if len(items) == 0 || len(items) < limit {
			return page, nil
		}

		current := 1
		if v := spec.Query.Get("page"); v != "" {
			if current, err = strconv.Atoi(v); err != nil {
				return Page[json.RawMessage]{}, fmt.Errorf("invalid page %q in request: %w", v, err)
			}
		}
		next := strconv.Itoa(current + 1)
		page.Cursor = &next
		return page, nil
	}
}

func itemsOf(fields map[string]json.RawMessage, name string) ([]json.RawMessage, error) {
	raw, ok := fields[name]
	if !ok {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &decode.SchemaMismatchError{Field: name, Expected: "array", Got: "non-array", Err: err}
	}
	return items, nil
}
