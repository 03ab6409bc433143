// Package validate checks extracted travel request documents before they are
// accepted as training labels. Validation walks the generic JSON tree so that
// every problem is reported with its path, not just the first decode error.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hyperifyio/travelmail/internal/schema"
)

// ErrInvalid is matched by errors.Is for every validation failure.
var ErrInvalid = errors.New("invalid travel request")

// Issue is one problem at a JSON path such as "requests[0].flight.pax.adult".
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Error lists every issue found in a document.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.String()
	}
	return fmt.Sprintf("%d validation issue(s): %s", len(e.Issues), strings.Join(parts, "; "))
}

func (e *Error) Is(target error) bool { return target == ErrInvalid }

// Validate parses b as an EmailRequest and checks it against the request
// schema. Unknown fields are ignored. Integer fields accept integral JSON
// numbers such as 2.0.
func Validate(b []byte) (schema.EmailRequest, error) {
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return schema.EmailRequest{}, &Error{Issues: []Issue{{Message: "not valid JSON: " + err.Error()}}}
	}
	return ValidateValue(doc)
}

// ValidateValue is Validate for an already decoded JSON value.
func ValidateValue(doc any) (schema.EmailRequest, error) {
	var issues []Issue
	check(doc, emailRequestSpec, "", &issues)
	if len(issues) > 0 {
		return schema.EmailRequest{}, &Error{Issues: issues}
	}
	// Re-encoding writes integral floats as integers for the typed decode.
	norm, err := json.Marshal(doc)
	if err != nil {
		return schema.EmailRequest{}, fmt.Errorf("validate: re-encode: %w", err)
	}
	var out schema.EmailRequest
	if err := json.Unmarshal(norm, &out); err != nil {
		return schema.EmailRequest{}, &Error{Issues: []Issue{{Message: err.Error()}}}
	}
	return out, nil
}

type kind int

const (
	kString kind = iota
	kInt
	kNumber
	kObject
	kList
)

func (k kind) String() string {
	switch k {
	case kString:
		return "string"
	case kInt:
		return "integer"
	case kNumber:
		return "number"
	case kObject:
		return "object"
	default:
		return "list"
	}
}

// spec describes one value. Object specs list their fields; list specs
// describe their items.
type spec struct {
	kind   kind
	enum   []string
	fields []field
	items  *spec
}

type field struct {
	name     string
	required bool
	spec     spec
}

func req(name string, s spec) field { return field{name: name, required: true, spec: s} }
func opt(name string, s spec) field { return field{name: name, spec: s} }

var (
	str     = spec{kind: kString}
	integer = spec{kind: kInt}
	number  = spec{kind: kNumber}
)

func enum(values []string) spec { return spec{kind: kString, enum: values} }
func object(fields ...field) spec { return spec{kind: kObject, fields: fields} }
func list(item spec) spec { return spec{kind: kList, items: &item} }

var (
	rangeSpec = object(
		req("type", enum(schema.SpecTypes)),
		opt("exact", str), opt("from", str), opt("to", str), opt("text", str),
	)
	legSpec = object(
		opt("from", str), opt("to", str), opt("date", rangeSpec), opt("time", rangeSpec),
	)
	paxSpec      = object(req("adult", integer), req("child", integer), req("infant", integer))
	hotelPaxSpec = object(req("adult", integer), req("child", integer))

	flightSpec = object(
		req("trip_type", enum(schema.TripTypes)),
		opt("pnr", str),
		opt("airline_preference", str),
		opt("cabin", enum(schema.Cabins)),
		req("legs", list(legSpec)),
		req("pax", paxSpec),
		req("baggage", object(opt("hand", integer), opt("hold", integer))),
		opt("currency", str),
		opt("budget_total", number),
		opt("notes", str),
		opt("po_number", str),
	)
	hotelSpec = object(
		opt("city", str), opt("area", str),
		opt("date", object(req("check_in", rangeSpec), req("check_out", rangeSpec))),
		opt("nights", integer), opt("rooms", integer),
		req("pax", hotelPaxSpec),
		opt("purpose", enum(schema.Purposes)),
		opt("theme", enum(schema.Themes)),
		opt("hotel_class", integer),
		opt("budget_total", number),
		opt("currency", str), opt("notes", str), opt("po_number", str),
	)
	transferSpec = object(
		opt("direction", enum(schema.Directions)),
		opt("from", str), opt("to", str),
		opt("date", rangeSpec), opt("time", rangeSpec),
		req("pax", paxSpec),
		opt("luggage_pieces", integer),
		opt("notes", str), opt("po_number", str),
	)
	itemSpec = object(
		req("type", enum(schema.RequestTypes)),
		opt("flight", flightSpec), opt("hotel", hotelSpec), opt("transfer", transferSpec),
	)
	emailRequestSpec = object(req("requests", list(itemSpec)))
)

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func add(issues *[]Issue, path, format string, a ...any) {
	*issues = append(*issues, Issue{Path: path, Message: fmt.Sprintf(format, a...)})
}

func check(v any, s spec, path string, issues *[]Issue) {
	switch s.kind {
	case kString:
		sv, ok := v.(string)
		if !ok {
			add(issues, path, "expected string, got %s", typeName(v))
			return
		}
		if len(s.enum) > 0 && !schema.Contains(s.enum, sv) {
			add(issues, path, "%q is not one of %s", sv, strings.Join(s.enum, ", "))
		}
	case kInt:
		f, ok := v.(float64)
		if !ok {
			add(issues, path, "expected integer, got %s", typeName(v))
			return
		}
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			add(issues, path, "expected integer, got %v", f)
		}
	case kNumber:
		if _, ok := v.(float64); !ok {
			add(issues, path, "expected number, got %s", typeName(v))
		}
	case kList:
		arr, ok := v.([]any)
		if !ok {
			add(issues, path, "expected list, got %s", typeName(v))
			return
		}
		for i, elem := range arr {
			check(elem, *s.items, path+"["+strconv.Itoa(i)+"]", issues)
		}
	case kObject:
		obj, ok := v.(map[string]any)
		if !ok {
			add(issues, path, "expected object, got %s", typeName(v))
			return
		}
		for _, f := range s.fields {
			fv, present := obj[f.name]
			if !present || fv == nil {
				if f.required {
					add(issues, join(path, f.name), "field required")
				}
				continue
			}
			check(fv, f.spec, join(path, f.name), issues)
		}
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64:
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
