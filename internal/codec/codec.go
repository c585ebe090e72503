// Package codec converts values between their application form and the
// narrow set of storage types SQLite keeps (INTEGER, REAL, TEXT, BLOB,
// NULL). It is the only place in the adapter that knows how a value is
// laid out on disk.
//
// Dates, booleans and ISO-8601 strings are stored as INTEGER epoch
// milliseconds. Maps, slices and structs are stored as JSON text. Byte
// slices and numbers are stored unchanged.
package codec

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

// isoPattern matches the extended ISO-8601 calendar forms: a date,
// optionally followed by a clock (minutes, seconds, fraction) and a zone.
var isoPattern = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2})(?:[T ](\d{2}:\d{2}(?::\d{2}(?:[.,]\d+)?)?)(Z|[+-]\d{2}(?::?\d{2})?)?)?$`)

var timeType = reflect.TypeOf(time.Time{})

// Encode converts an application value into its storage form.
func Encode(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return x, nil
	case json.RawMessage:
		return string(x), nil
	case string:
		return encodeString(x), nil
	case bool:
		return encodeBool(x), nil
	case time.Time:
		return x.UnixMilli(), nil
	case *time.Time:
		if x == nil {
			return nil, nil
		}
		return x.UnixMilli(), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return Encode(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return v, nil
	case reflect.String:
		return encodeString(rv.String()), nil
	case reflect.Bool:
		return encodeBool(rv.Bool()), nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return rv.Bytes(), nil
		}
		return encodeJSON(v)
	case reflect.Map, reflect.Array:
		return encodeJSON(v)
	case reflect.Struct:
		if rv.Type().ConvertibleTo(timeType) {
			return rv.Convert(timeType).Interface().(time.Time).UnixMilli(), nil
		}
		return encodeJSON(v)
	}
	return v, nil
}

// EncodeAll encodes every value of values into a new slice.
func EncodeAll(values []any) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		enc, err := Encode(v)
		if err != nil {
			return nil, fmt.Errorf("encoding value %d: %w", i+1, err)
		}
		out[i] = enc
	}
	return out, nil
}

// EncodeRecord encodes every value of rec into a new Record.
func EncodeRecord(rec types.Record) (types.Record, error) {
	out := make(types.Record, len(rec))
	for k, v := range rec {
		enc, err := Encode(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", k, err)
		}
		out[k] = enc
	}
	return out, nil
}

// Decode converts a storage value read from a column described by attr
// back into its application form. A nil attr returns raw unchanged.
// Structured text that is not valid JSON is returned as stored.
func Decode(raw any, attr *types.Attribute) (any, error) {
	if attr == nil || raw == nil {
		return raw, nil
	}

	switch {
	case attr.IsDate():
		if ms, ok := asInt64(raw); ok {
			return time.UnixMilli(ms).UTC(), nil
		}
		if s, ok := raw.(string); ok {
			if t, ok := ParseISO8601(strings.ReplaceAll(s, `"`, "")); ok {
				return t, nil
			}
		}
	case attr.IsStructured():
		switch x := raw.(type) {
		case string:
			if !json.Valid([]byte(x)) {
				return x, nil
			}
			return decodeJSON([]byte(x))
		case []byte:
			if !json.Valid(x) {
				return x, nil
			}
			return decodeJSON(x)
		}
	case attr.HasType(types.TypeBinary):
		// A zero-length blob scans as a nil slice; NULL scans as nil.
		if b, ok := raw.([]byte); ok && len(b) == 0 {
			return []byte{}, nil
		}
	case attr.HasType(types.TypeBoolean):
		if n, ok := asInt64(raw); ok {
			return n != 0, nil
		}
	}
	return raw, nil
}

// DecodeRecord decodes every column of row through the attribute that
// lookup returns for it. Columns without an attribute are copied as is.
func DecodeRecord(row types.Record, lookup func(column string) *types.Attribute) (types.Record, error) {
	out := make(types.Record, len(row))
	for col, raw := range row {
		v, err := Decode(raw, lookup(col))
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", col, err)
		}
		out[col] = v
	}
	return out, nil
}

// ParseISO8601 parses s if it is a strict extended ISO-8601 date or date
// time. Values without a zone are read as UTC.
func ParseISO8601(s string) (time.Time, bool) {
	m := isoPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	date, clock, zone := m[1], m[2], m[3]

	switch len(clock) {
	case 0:
		clock = "00:00:00"
	case 5:
		clock += ":00"
	}
	clock = strings.Replace(clock, ",", ".", 1)

	switch len(zone) {
	case 0:
		zone = "Z"
	case 3:
		zone += ":00"
	case 5:
		zone = zone[:3] + ":" + zone[3:]
	}

	t, err := time.Parse(time.RFC3339Nano, date+"T"+clock+zone)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func encodeString(s string) any {
	if t, ok := ParseISO8601(strings.ReplaceAll(s, `"`, "")); ok {
		return t.UnixMilli()
	}
	return s
}

func encodeBool(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func encodeJSON(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling structured value: %w", err)
	}
	return string(b), nil
}

func decodeJSON(b []byte) (any, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("parsing structured value: %w", err)
	}
	return v, nil
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case float64:
		if x == float64(int64(x)) {
			return int64(x), true
		}
	}
	return 0, false
}
