package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

func TestBuild(t *testing.T) {
	r := Build(map[string]types.Collection{
		"user": {
			TableName: "users",
			Attributes: map[string]types.Definition{
				"id":   types.Full(types.Attribute{Type: "integer", PrimaryKey: true, AutoIncrement: true}),
				"name": types.Shorthand("string"),
				"mail": types.Full(types.Attribute{Type: "string", ColumnName: "email"}),
			},
		},
		"log": {},
	})

	assert.Equal(t, []string{"log", "users"}, r.Tables())

	users, ok := r.Table("users")
	require.True(t, ok)
	assert.Equal(t, []string{"id", "mail", "name"}, users.Names())
	assert.Equal(t, "email", users.ColumnOf("mail"))
	assert.Equal(t, "unknown", users.ColumnOf("unknown"))

	attr := users.AttributeForColumn("email")
	require.NotNil(t, attr)
	assert.Equal(t, "string", attr.Type)
	assert.Nil(t, users.AttributeForColumn("mail"))

	name, ok := users.Attribute("name")
	require.True(t, ok)
	assert.Equal(t, "string", name.Type)

	logs, ok := r.Table("log")
	require.True(t, ok)
	assert.Empty(t, logs.Names())
	assert.Equal(t, types.DefaultPrimaryKey, logs.PrimaryKey())

	_, ok = r.Table("missing")
	assert.False(t, ok)
	assert.Equal(t, "missing", r.TableOrEmpty("missing").Name())
}

func TestPrimaryKey(t *testing.T) {
	tests := []struct {
		name  string
		attrs map[string]types.Definition
		want  string
	}{
		{
			name:  "defaults to id",
			attrs: map[string]types.Definition{"name": types.Shorthand("string")},
			want:  "id",
		},
		{
			name: "declared primary key",
			attrs: map[string]types.Definition{
				"code": types.Full(types.Attribute{Type: "string", PrimaryKey: true}),
				"name": types.Shorthand("string"),
			},
			want: "code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewTable("t", tt.attrs).PrimaryKey())
		})
	}
}

func TestPrimaryKeyMemoized(t *testing.T) {
	scans := 0
	orig := scanPrimaryKey
	scanPrimaryKey = func(t *Table) string {
		scans++
		return orig(t)
	}
	t.Cleanup(func() { scanPrimaryKey = orig })

	tbl := NewTable("t", map[string]types.Definition{
		"uid": types.Full(types.Attribute{Type: "string", PrimaryKey: true}),
	})

	first := tbl.PrimaryKey()
	second := tbl.PrimaryKey()
	assert.Equal(t, "uid", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, scans)
}

func TestRegistryPrimaryKeyOf(t *testing.T) {
	r := Build(map[string]types.Collection{
		"pets": {Attributes: map[string]types.Definition{
			"tag": types.Full(types.Attribute{Type: "string", PrimaryKey: true}),
		}},
	})
	assert.Equal(t, "tag", r.PrimaryKeyOf("pets"))
	assert.Equal(t, "id", r.PrimaryKeyOf("nope"))
}
