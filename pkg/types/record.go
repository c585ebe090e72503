package types

// Record is a row keyed by column (or attribute) name.
type Record map[string]any

// Collection is the framework-side description of one model.
type Collection struct {
	// Identity is the model identity. Informational.
	Identity string

	// TableName is the physical table. When empty the key the collection
	// is registered under is used.
	TableName string

	// Attributes maps attribute name to definition. Nil is an empty set.
	Attributes map[string]Definition
}

// Criteria is an abstract filter, projection and ordering.
type Criteria struct {
	Where  Where
	Select []string
	Sort   []Sort
	Limit  int
	Skip   int
}

// Where maps attribute names (or the "or"/"and" combinators) to values or
// operator maps.
type Where map[string]any

// Sort orders by one attribute.
type Sort struct {
	Attribute string
	Desc      bool
}

// ColumnDescription is the physical shape of one column as reported by
// Describe.
type ColumnDescription struct {
	PrimaryKey bool   `json:"primaryKey" yaml:"primaryKey"`
	Type       string `json:"type" yaml:"type"`
	Indexed    bool   `json:"indexed" yaml:"indexed"`
	Unique     bool   `json:"unique" yaml:"unique"`
}

// JoinInstruction is one hop of an association. Instructions sharing an
// Alias form a chain: a single hop, or two hops through a junction table.
type JoinInstruction struct {
	Parent    string
	ParentKey string
	Child     string
	ChildKey  string
	Alias     string
	Select    []string
	Criteria  *Criteria
}

// Statement is parameterized SQL. Placeholders are written $1..$N and
// refer to Values by position.
type Statement struct {
	Query  string
	Values []any
}
