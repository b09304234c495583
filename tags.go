package neoseed

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// identPattern matches labels, relationship types and property names that can
// be spliced into Cypher text without quoting.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validIdent(s string) bool {
	return identPattern.MatchString(s)
}

// fieldMapping ties one struct field to one node property.
type fieldMapping struct {
	Index []int
	Field string
	Prop  string
	Date  bool
}

// entityMetadata is the parsed `graph` tag information for a struct type.
type entityMetadata struct {
	// Label is the node label, taken from the struct name.
	Label string
	// PK is the primary key mapping; it is also present in Fields.
	PK fieldMapping
	// Fields lists every mapped field in declaration order.
	Fields []fieldMapping
}

// parseTagsFromType reads `graph:"prop[,pk][,date]"` tags from a struct type.
// Untagged fields and fields tagged "-" are skipped.
func parseTagsFromType(typ reflect.Type) (*entityMetadata, error) {
	if typ == nil {
		return nil, fmt.Errorf("nil type")
	}
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("type %s is not a struct", typ)
	}

	meta := &entityMetadata{Label: typ.Name()}
	if !validIdent(meta.Label) {
		return nil, fmt.Errorf("type %s has no usable label", typ)
	}

	hasPK := false
	seen := make(map[string]string)
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag, ok := field.Tag.Lookup("graph")
		if !ok || tag == "-" || !field.IsExported() {
			continue
		}

		parts := strings.Split(tag, ",")
		m := fieldMapping{Index: field.Index, Field: field.Name, Prop: parts[0]}
		if !validIdent(m.Prop) {
			return nil, fmt.Errorf("field %s has invalid property name %q", field.Name, m.Prop)
		}
		if prev, dup := seen[m.Prop]; dup {
			return nil, fmt.Errorf("fields %s and %s both map to property %q", prev, field.Name, m.Prop)
		}
		seen[m.Prop] = field.Name

		isPK := false
		for _, opt := range parts[1:] {
			switch opt {
			case "pk":
				isPK = true
			case "date":
				if field.Type != reflect.TypeOf(time.Time{}) {
					return nil, fmt.Errorf("field %s: date option requires time.Time", field.Name)
				}
				m.Date = true
			default:
				return nil, fmt.Errorf("field %s: unknown tag option %q", field.Name, opt)
			}
		}

		if isPK {
			if hasPK {
				return nil, fmt.Errorf("struct %s declares more than one primary key", typ.Name())
			}
			meta.PK = m
			hasPK = true
		}
		meta.Fields = append(meta.Fields, m)
	}

	if !hasPK {
		return nil, fmt.Errorf("no primary key ('pk') tag defined for struct %s", typ.Name())
	}
	return meta, nil
}

// parseTags is the compile-time typed form of parseTagsFromType.
func parseTags[T any]() (*entityMetadata, error) {
	return parseTagsFromType(reflect.TypeOf((*T)(nil)).Elem())
}

// properties converts a struct value into a node property map.
func (m *entityMetadata) properties(val reflect.Value) map[string]any {
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	props := make(map[string]any, len(m.Fields))
	for _, f := range m.Fields {
		v := val.FieldByIndex(f.Index).Interface()
		if f.Date {
			v = toDate(v.(time.Time))
		}
		props[f.Prop] = v
	}
	return props
}

// pkValue returns the primary key of a struct value.
func (m *entityMetadata) pkValue(val reflect.Value) any {
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	return val.FieldByIndex(m.PK.Index).Interface()
}

// hasProp reports whether prop is one of the mapped property names.
func (m *entityMetadata) hasProp(prop string) bool {
	for _, f := range m.Fields {
		if f.Prop == prop {
			return true
		}
	}
	return false
}

// populate fills the struct pointed to by dst from node properties. Missing
// properties leave the field untouched.
func (m *entityMetadata) populate(props map[string]any, dst reflect.Value) error {
	val := dst.Elem()
	for _, f := range m.Fields {
		raw, ok := props[f.Prop]
		if !ok || raw == nil {
			continue
		}
		field := val.FieldByIndex(f.Index)
		if !field.CanSet() {
			continue
		}

		if d, isDate := raw.(dbtype.Date); isDate {
			raw = d.Time()
		}

		rv := reflect.ValueOf(raw)
		switch {
		case rv.Type().AssignableTo(field.Type()):
			field.Set(rv)
		case rv.Type().ConvertibleTo(field.Type()) && rv.Kind() != reflect.String && field.Kind() != reflect.String:
			field.Set(rv.Convert(field.Type()))
		default:
			return fmt.Errorf("%w: property %q is %T, field %s is %s",
				ErrFieldType, f.Prop, raw, f.Field, field.Type())
		}
	}
	return nil
}

// toDate drops the clock part so the value is stored as a DATE.
func toDate(t time.Time) dbtype.Date {
	y, mo, d := t.Date()
	return dbtype.Date(time.Date(y, mo, d, 0, 0, 0, 0, time.UTC))
}
