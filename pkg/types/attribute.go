package types

import "strings"

// Semantic attribute types understood by the adapter. Type names are
// matched case-insensitively.
const (
	TypeString     = "string"
	TypeText       = "text"
	TypeMediumText = "mediumtext"
	TypeLongText   = "longtext"
	TypeJSON       = "json"
	TypeArray      = "array"
	TypeBoolean    = "boolean"
	TypeInteger    = "integer"
	TypeFloat      = "float"
	TypeBinary     = "binary"
	TypeDate       = "date"
	TypeDateTime   = "datetime"
	TypeDatestamp  = "datestamp"
	TypeSQL        = "sqltype"
)

// DefaultAutoIncrement is the DefaultsTo marker that asks the engine to
// generate the value itself.
const DefaultAutoIncrement = "AUTO_INCREMENT"

// DefaultPrimaryKey is the primary-key attribute name used when no
// attribute declares PrimaryKey.
const DefaultPrimaryKey = "id"

// Attribute describes one column of a collection.
type Attribute struct {
	Type          string  `mapstructure:"type"`
	ColumnName    string  `mapstructure:"columnName"`
	PrimaryKey    bool    `mapstructure:"primaryKey"`
	AutoIncrement bool    `mapstructure:"autoIncrement"`
	NotNull       bool    `mapstructure:"notNull"`
	DefaultsTo    any     `mapstructure:"defaultsTo"`
	Unique        *Unique `mapstructure:"unique"`
	Index         *Index  `mapstructure:"index"`

	// SQLType is passed to the engine verbatim as the column type.
	SQLType string `mapstructure:"sqlType"`

	// Relation linkage. These inform association resolution and have no
	// effect on the physical column.
	Model      string `mapstructure:"model"`
	Collection string `mapstructure:"collection"`
	Via        string `mapstructure:"via"`
	On         string `mapstructure:"on"`
	References string `mapstructure:"references"`
	ForeignKey bool   `mapstructure:"foreignKey"`
	Alias      string `mapstructure:"alias"`

	// Extra holds keys that are not part of the attribute vocabulary.
	Extra map[string]any `mapstructure:",remain"`
}

// Unique is a uniqueness hint. Composite names sibling attributes that
// share the unique constraint with this one.
type Unique struct {
	Unique    bool     `mapstructure:"unique"`
	Composite []string `mapstructure:"composite"`
}

// Index is an index hint. An empty Name lets the builder pick one.
type Index struct {
	Name string `mapstructure:"indexName"`
	Type string `mapstructure:"indexType"`
}

// Column returns the physical column name of the attribute named name.
func (a Attribute) Column(name string) string {
	if a.ColumnName != "" {
		return a.ColumnName
	}
	return name
}

// IsUnique reports whether the attribute carries an enabled unique hint.
func (a Attribute) IsUnique() bool {
	return a.Unique != nil && a.Unique.Unique
}

// HasType reports whether the attribute's semantic type is one of types.
func (a Attribute) HasType(types ...string) bool {
	for _, t := range types {
		if strings.EqualFold(a.Type, t) {
			return true
		}
	}
	return false
}

// IsDate reports whether values of the attribute are stored as epoch
// milliseconds.
func (a Attribute) IsDate() bool {
	return a.HasType(TypeDate, TypeDateTime, TypeDatestamp)
}

// IsStructured reports whether values of the attribute are stored as
// JSON text.
func (a Attribute) IsStructured() bool {
	return a.HasType(TypeJSON, TypeArray)
}

// Definition is an attribute definition as declared by a collection:
// either a bare semantic type ("string") or a full Attribute.
type Definition struct {
	shorthand string
	full      *Attribute
}

// Shorthand returns a Definition holding only a semantic type.
func Shorthand(typ string) Definition {
	return Definition{shorthand: typ}
}

// Full returns a Definition holding a complete Attribute.
func Full(attr Attribute) Definition {
	return Definition{full: &attr}
}

// IsShorthand reports whether d was declared as a bare type.
func (d Definition) IsShorthand() bool {
	return d.full == nil
}

// Normalize returns the full Attribute form of d.
func (d Definition) Normalize() Attribute {
	if d.full != nil {
		return *d.full
	}
	return Attribute{Type: d.shorthand}
}
