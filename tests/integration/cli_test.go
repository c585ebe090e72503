package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const librarySchema = `
author:
  tableName: authors
  attributes:
    id:
      type: integer
      primaryKey: true
      autoIncrement: true
    name:
      type: string
      unique: true
book:
  tableName: books
  attributes:
    id:
      type: integer
      primaryKey: true
      autoIncrement: true
    title: string
    author:
      type: integer
      columnName: author_id
      index: true
    published: date
    tags: json
    inPrint: boolean
`

// TestMain builds the wlsqlite binary once before running tests.
func TestMain(m *testing.M) {
	projectRoot, err := FindProjectRoot()
	if err != nil {
		buildErr = err
		os.Exit(m.Run())
	}

	tmpDir, err := os.MkdirTemp("", "wlsqlite-test-*")
	if err != nil {
		buildErr = err
		os.Exit(m.Run())
	}
	wlsqliteBin = filepath.Join(tmpDir, "wlsqlite")

	cmd := exec.Command("go", "build", "-o", wlsqliteBin, "./cmd/wlsqlite")
	cmd.Dir = projectRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		buildErr = &BuildError{Err: err, Output: string(output)}
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

func TestLibraryLifecycle(t *testing.T) {
	env := NewTestEnv(t, librarySchema)

	defined := ParseJSON[map[string][]string](t, env.MustRun("define").Stdout)
	assert.ElementsMatch(t, []string{"authors", "books"}, defined["defined"])
	assert.FileExists(t, filepath.Join(env.DataDir, "data.sqlite"))

	author := ParseJSON[Row](t, env.MustRun("create", "authors", "--data", `{"name":"Le Guin"}`).Stdout)
	assert.Equal(t, 1.0, author["id"])

	book := ParseJSON[Row](t, env.MustRun("create", "books", "--data",
		`{"title":"The Dispossessed","author":1,"published":"1974-05-01T00:00:00Z","tags":["anarchy","physics"],"inPrint":true}`).Stdout)
	assert.Equal(t, "The Dispossessed", book["title"])
	assert.Equal(t, 1.0, book["author_id"])
	assert.Equal(t, "1974-05-01T00:00:00Z", book["published"])
	assert.Equal(t, []any{"anarchy", "physics"}, book["tags"])
	assert.Equal(t, true, book["inPrint"])

	env.MustRun("create", "books", "--data", `{"title":"Lathe of Heaven","author":1,"inPrint":false}`)

	joined := ParseJSON[[]Row](t, env.MustRun("join", "authors",
		"--with", `[{"alias":"books","parent":"authors","parentKey":"id","child":"books","childKey":"author_id"}]`).Stdout)
	require.Len(t, joined, 1)
	assert.Len(t, joined[0]["books"], 2)

	updated := ParseJSON[[]Row](t, env.MustRun("update", "books",
		"--where", `{"inPrint":false}`, "--data", `{"inPrint":true}`).Stdout)
	require.Len(t, updated, 1)
	assert.Equal(t, "Lathe of Heaven", updated[0]["title"])

	count := ParseJSON[Row](t, env.MustRun("count", "books", "--where", `{"inPrint":true}`).Stdout)
	assert.Equal(t, 2.0, count["count"])

	destroyed := ParseJSON[[]Row](t, env.MustRun("destroy", "books", "--where", `{"title":{"startsWith":"Lathe"}}`).Stdout)
	assert.Len(t, destroyed, 1)
}

func TestDataSurvivesAcrossInvocations(t *testing.T) {
	env := NewTestEnv(t, librarySchema)
	env.MustRun("define", "author")
	env.MustRun("create", "authors", "--data", `{"name":"Butler"}`)

	rows := ParseJSON[[]Row](t, env.MustRun("find", "authors").Stdout)
	require.Len(t, rows, 1)
	assert.Equal(t, "Butler", rows[0]["name"])
}

func TestExitCodes(t *testing.T) {
	env := NewTestEnv(t, librarySchema)
	env.MustRun("define")

	t.Run("usage error", func(t *testing.T) {
		result := env.Run("find")
		assert.Equal(t, 1, result.ExitCode)
	})

	t.Run("bad criteria", func(t *testing.T) {
		result := env.Run("find", "books", "--where", "{not json")
		assert.Equal(t, 1, result.ExitCode)
		assert.Contains(t, result.Stderr, "--where")
	})

	t.Run("unique violation", func(t *testing.T) {
		env.MustRun("create", "authors", "--data", `{"name":"Jemisin"}`)
		result := env.Run("create", "authors", "--data", `{"name":"Jemisin"}`)
		assert.Equal(t, 2, result.ExitCode)
		assert.Contains(t, result.Stderr, "E_UNIQUE")
	})
}

func TestExportImportRoundTrip(t *testing.T) {
	src := NewTestEnv(t, librarySchema)
	src.MustRun("define")
	for _, name := range []string{"Delany", "Russ", "Tiptree"} {
		src.MustRun("create", "authors", "--data", `{"name":"`+name+`"}`)
	}

	file := filepath.Join(t.TempDir(), "authors.jsonl")
	src.MustRun("export", "authors", "--file", file, "--sort", "name")
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 3)

	dst := NewTestEnv(t, librarySchema)
	dst.MustRun("define")
	imported := ParseJSON[Row](t, dst.MustRun("import", "authors", "--file", file).Stdout)
	assert.Equal(t, 3.0, imported["imported"])

	rows := ParseJSON[[]Row](t, dst.MustRun("find", "authors", "--sort", "-name", "--limit", "1").Stdout)
	require.Len(t, rows, 1)
	assert.Equal(t, "Tiptree", rows[0]["name"])
}
