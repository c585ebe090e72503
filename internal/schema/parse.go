package schema

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

var (
	uniqueType = reflect.TypeOf(types.Unique{})
	indexType  = reflect.TypeOf(types.Index{})
)

// hintHook lets the unique and index hints be written either as a bare
// flag (unique: true, index: true) or as an object.
func hintHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() == reflect.Pointer {
		to = to.Elem()
	}
	switch to {
	case uniqueType:
		if b, ok := data.(bool); ok {
			return map[string]any{"unique": b}, nil
		}
	case indexType:
		switch x := data.(type) {
		case bool:
			if !x {
				return nil, nil
			}
			return map[string]any{}, nil
		case string:
			return map[string]any{"indexName": x}, nil
		}
	}
	return data, nil
}

// ParseDefinition converts a decoded attribute definition (a type name,
// or a map of attribute keys) into a Definition. Keys outside the
// attribute vocabulary are kept in Attribute.Extra.
func ParseDefinition(v any) (types.Definition, error) {
	switch x := v.(type) {
	case string:
		return types.Shorthand(x), nil
	case types.Attribute:
		return types.Full(x), nil
	case map[string]any:
		var attr types.Attribute
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook: hintHook,
			Result:     &attr,
		})
		if err != nil {
			return types.Definition{}, err
		}
		if err := dec.Decode(x); err != nil {
			return types.Definition{}, fmt.Errorf("decoding attribute: %w", err)
		}
		if len(attr.Extra) == 0 {
			attr.Extra = nil
		}
		return types.Full(attr), nil
	}
	return types.Definition{}, fmt.Errorf("unsupported attribute definition %T", v)
}

// ParseCollections converts a decoded collections document, keyed by
// model name, into Collections. Each entry may set identity, tableName
// and attributes.
func ParseCollections(raw map[string]any) (map[string]types.Collection, error) {
	out := make(map[string]types.Collection, len(raw))
	for key, v := range raw {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("collection %s: expected a map, got %T", key, v)
		}

		var c struct {
			Identity   string         `mapstructure:"identity"`
			TableName  string         `mapstructure:"tableName"`
			Attributes map[string]any `mapstructure:"attributes"`
		}
		if err := mapstructure.Decode(m, &c); err != nil {
			return nil, fmt.Errorf("collection %s: %w", key, err)
		}

		defs := make(map[string]types.Definition, len(c.Attributes))
		for name, def := range c.Attributes {
			d, err := ParseDefinition(def)
			if err != nil {
				return nil, fmt.Errorf("collection %s attribute %s: %w", key, name, err)
			}
			defs[name] = d
		}
		out[key] = types.Collection{
			Identity:   c.Identity,
			TableName:  c.TableName,
			Attributes: defs,
		}
	}
	return out, nil
}
