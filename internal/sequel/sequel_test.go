package sequel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wlsqlite/internal/schema"
	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

func newCompiler(opts Options) *Compiler {
	r := schema.Build(map[string]types.Collection{
		"user": {
			TableName: "users",
			Attributes: map[string]types.Definition{
				"id":    types.Full(types.Attribute{Type: types.TypeInteger, PrimaryKey: true, AutoIncrement: true}),
				"name":  types.Shorthand(types.TypeString),
				"email": types.Full(types.Attribute{Type: types.TypeString, ColumnName: "email_address"}),
				"age":   types.Shorthand(types.TypeInteger),
			},
		},
	})
	return New(r, opts)
}

func TestFind(t *testing.T) {
	c := newCompiler(DefaultOptions)

	tests := []struct {
		name       string
		criteria   types.Criteria
		wantQuery  string
		wantValues []any
	}{
		{
			name:      "no criteria",
			criteria:  types.Criteria{},
			wantQuery: `SELECT * FROM "users"`,
		},
		{
			name:       "equality with column name",
			criteria:   types.Criteria{Where: types.Where{"email": "a@x", "name": "a"}},
			wantQuery:  `SELECT * FROM "users" WHERE "email_address" = $1 AND "name" = $2`,
			wantValues: []any{"a@x", "a"},
		},
		{
			name:      "null",
			criteria:  types.Criteria{Where: types.Where{"name": nil}},
			wantQuery: `SELECT * FROM "users" WHERE "name" IS NULL`,
		},
		{
			name:       "in list",
			criteria:   types.Criteria{Where: types.Where{"id": []int{1, 2, 3}}},
			wantQuery:  `SELECT * FROM "users" WHERE "id" IN ($1, $2, $3)`,
			wantValues: []any{1, 2, 3},
		},
		{
			name:      "empty in list matches nothing",
			criteria:  types.Criteria{Where: types.Where{"id": []any{}}},
			wantQuery: `SELECT * FROM "users" WHERE 0 = 1`,
		},
		{
			name:       "operators",
			criteria:   types.Criteria{Where: types.Where{"age": map[string]any{">=": 18, "<": 65}}},
			wantQuery:  `SELECT * FROM "users" WHERE "age" < $1 AND "age" >= $2`,
			wantValues: []any{65, 18},
		},
		{
			name:       "not",
			criteria:   types.Criteria{Where: types.Where{"name": map[string]any{"not": "a"}, "age": map[string]any{"!": nil}}},
			wantQuery:  `SELECT * FROM "users" WHERE "age" IS NOT NULL AND "name" <> $1`,
			wantValues: []any{"a"},
		},
		{
			name:       "pattern operators",
			criteria:   types.Criteria{Where: types.Where{"name": map[string]any{"contains": "li", "startsWith": "A"}}},
			wantQuery:  `SELECT * FROM "users" WHERE "name" LIKE $1 AND "name" LIKE $2`,
			wantValues: []any{"%li%", "A%"},
		},
		{
			name: "or",
			criteria: types.Criteria{Where: types.Where{"or": []any{
				map[string]any{"name": "a"},
				map[string]any{"age": 3},
			}}},
			wantQuery:  `SELECT * FROM "users" WHERE (("name" = $1) OR ("age" = $2))`,
			wantValues: []any{"a", 3},
		},
		{
			name: "projection sort and paging",
			criteria: types.Criteria{
				Select: []string{"id", "email"},
				Sort:   []types.Sort{{Attribute: "age", Desc: true}, {Attribute: "name"}},
				Limit:  10,
				Skip:   20,
			},
			wantQuery: `SELECT "id", "email_address" FROM "users" ORDER BY "age" DESC, "name" ASC LIMIT 10 OFFSET 20`,
		},
		{
			name:      "skip without limit",
			criteria:  types.Criteria{Skip: 5},
			wantQuery: `SELECT * FROM "users" LIMIT -1 OFFSET 5`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := c.Find("users", tt.criteria)
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuery, st.Query)
			assert.Equal(t, tt.wantValues, st.Values)
		})
	}
}

func TestFindIsDeterministic(t *testing.T) {
	c := newCompiler(DefaultOptions)
	where := types.Where{"name": "a", "age": 1, "email": "e", "id": 4}

	first, err := c.Find("users", types.Criteria{Where: where})
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := c.Find("users", types.Criteria{Where: where})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestFindUnknownTable(t *testing.T) {
	c := newCompiler(DefaultOptions)
	st, err := c.Find("ghosts", types.Criteria{Where: types.Where{"x": 1}})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "ghosts" WHERE "x" = $1`, st.Query)
}

func TestFindUnknownOperator(t *testing.T) {
	c := newCompiler(DefaultOptions)
	_, err := c.Find("users", types.Criteria{Where: types.Where{"age": map[string]any{"between": 1}}})
	assert.ErrorContains(t, err, "unknown operator")

	_, err = c.Find("users", types.Criteria{Where: types.Where{"or": "a"}})
	assert.Error(t, err)
}

func TestCaseInsensitive(t *testing.T) {
	c := newCompiler(Options{CaseSensitive: false})
	st, err := c.Find("users", types.Criteria{Where: types.Where{"name": "Al", "age": 3}})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" WHERE "age" = $1 AND LOWER("name") = LOWER($2)`, st.Query)
	assert.Equal(t, []any{3, "Al"}, st.Values)
}

func TestCount(t *testing.T) {
	c := newCompiler(DefaultOptions)
	st, err := c.Count("users", types.Criteria{Where: types.Where{"age": 3}})
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) AS "count" FROM "users" WHERE "age" = $1`, st.Query)
	assert.Equal(t, []any{3}, st.Values)
}

func TestUpdate(t *testing.T) {
	c := newCompiler(DefaultOptions)
	st, err := c.Update("users",
		types.Criteria{Where: types.Where{"name": "a"}},
		types.Record{"name": "b", "age": 4},
	)
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "users" SET "age" = $1, "name" = $2 WHERE "name" = $3`, st.Query)
	assert.Equal(t, []any{4, "b", "a"}, st.Values)

	_, err = c.Update("users", types.Criteria{}, types.Record{})
	assert.ErrorIs(t, err, ErrEmptyPatch)
}

func TestUpdateReturning(t *testing.T) {
	c := newCompiler(Options{CanReturnValues: true, CaseSensitive: true})
	st, err := c.Update("users", types.Criteria{}, types.Record{"age": 1})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "users" SET "age" = $1 RETURNING *`, st.Query)
}

func TestDestroy(t *testing.T) {
	c := newCompiler(DefaultOptions)
	st, err := c.Destroy("users", types.Criteria{Where: types.Where{"id": map[string]any{"not": []any{1, 2}}}})
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "users" WHERE "id" NOT IN ($1, $2)`, st.Query)
	assert.Equal(t, []any{1, 2}, st.Values)
}

func TestSimpleWhere(t *testing.T) {
	c := newCompiler(DefaultOptions)

	st, err := c.SimpleWhere("users", types.Where{"email": "a@x"})
	require.NoError(t, err)
	assert.Equal(t, ` WHERE "email_address" = $1`, st.Query)
	assert.Equal(t, []any{"a@x"}, st.Values)

	st, err = c.SimpleWhere("users", nil)
	require.NoError(t, err)
	assert.Empty(t, st.Query)
	assert.Empty(t, st.Values)
}

func TestQuoteEscapes(t *testing.T) {
	c := newCompiler(DefaultOptions)
	st, err := c.Find(`we"ird`, types.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "we""ird"`, st.Query)
}
