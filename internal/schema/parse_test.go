package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

func TestParseDefinition(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want types.Attribute
	}{
		{
			name: "shorthand",
			in:   "string",
			want: types.Attribute{Type: "string"},
		},
		{
			name: "full with flags",
			in: map[string]any{
				"type":          "integer",
				"primaryKey":    true,
				"autoIncrement": true,
				"defaultsTo":    "AUTO_INCREMENT",
			},
			want: types.Attribute{Type: "integer", PrimaryKey: true, AutoIncrement: true, DefaultsTo: "AUTO_INCREMENT"},
		},
		{
			name: "unique as flag",
			in:   map[string]any{"type": "string", "unique": true},
			want: types.Attribute{Type: "string", Unique: &types.Unique{Unique: true}},
		},
		{
			name: "unique as object",
			in: map[string]any{
				"type":   "string",
				"unique": map[string]any{"unique": true, "composite": []any{"other"}},
			},
			want: types.Attribute{Type: "string", Unique: &types.Unique{Unique: true, Composite: []string{"other"}}},
		},
		{
			name: "index as flag",
			in:   map[string]any{"type": "integer", "index": true},
			want: types.Attribute{Type: "integer", Index: &types.Index{}},
		},
		{
			name: "index as object",
			in:   map[string]any{"type": "integer", "index": map[string]any{"indexName": "ix", "indexType": "hash"}},
			want: types.Attribute{Type: "integer", Index: &types.Index{Name: "ix", Type: "hash"}},
		},
		{
			name: "unknown keys are kept",
			in:   map[string]any{"type": "string", "size": 10, "columnName": "s"},
			want: types.Attribute{Type: "string", ColumnName: "s", Extra: map[string]any{"size": 10}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := ParseDefinition(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, def.Normalize())
		})
	}
}

func TestParseDefinitionErrors(t *testing.T) {
	_, err := ParseDefinition(42)
	assert.Error(t, err)

	_, err = ParseDefinition(map[string]any{"primaryKey": "yes please"})
	assert.Error(t, err)
}

func TestParseCollectionsFromYAML(t *testing.T) {
	doc := `
user:
  tableName: users
  attributes:
    id:
      type: integer
      primaryKey: true
      autoIncrement: true
    name: string
    createdAt: datetime
pet:
  attributes:
    owner:
      model: user
`
	var raw map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(doc), &raw))

	cols, err := ParseCollections(raw)
	require.NoError(t, err)
	require.Len(t, cols, 2)

	user := cols["user"]
	assert.Equal(t, "users", user.TableName)
	require.Contains(t, user.Attributes, "createdAt")
	assert.True(t, user.Attributes["name"].IsShorthand())
	assert.True(t, user.Attributes["id"].Normalize().AutoIncrement)

	r := Build(cols)
	assert.Equal(t, []string{"pet", "users"}, r.Tables())
	assert.Equal(t, "id", r.PrimaryKeyOf("users"))
	owner, ok := r.TableOrEmpty("pet").Attribute("owner")
	require.True(t, ok)
	assert.Equal(t, "user", owner.Model)
}

func TestParseCollectionsRejectsScalars(t *testing.T) {
	_, err := ParseCollections(map[string]any{"user": "nope"})
	assert.Error(t, err)
}
