package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/store/sqlstore"
	"github.com/idilsaglam/shoplist/internal/ui"
)

type testEnv struct {
	opt    Options
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("SHOPLIST_CONFIG", "")
	t.Setenv("SHOPLIST_THEME", "mono")

	env := &testEnv{
		opt:    Options{DBPath: filepath.Join(dir, "list.db")},
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
	}
	ui.SetOutput(env.out, env.errOut)
	t.Cleanup(func() { ui.SetOutput(os.Stdout, os.Stderr) })
	return env
}

func (e *testEnv) run(args ...string) int {
	e.out.Reset()
	e.errOut.Reset()
	return Run(args, e.opt)
}

func (e *testEnv) items(t *testing.T) []model.Item {
	t.Helper()
	s, err := sqlstore.Open(context.Background(), e.opt.DBPath, nil)
	require.NoError(t, err)
	defer s.Close()
	items, err := s.List(context.Background())
	require.NoError(t, err)
	return items
}

func TestAddThenList(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, 0, env.run("add", "Oat", "milk"))
	assert.Equal(t, "ok: added\n", env.out.String())
	require.Equal(t, 0, env.run("add", "Bread"))

	items := env.items(t)
	require.Len(t, items, 2)
	assert.Equal(t, "Oat milk", items[0].Name)
	assert.Equal(t, "Bread", items[1].Name)

	require.Equal(t, 0, env.run("ls"))
	out := env.out.String()
	assert.Contains(t, out, "Items 2")
	assert.Contains(t, out, "  1 - Oat milk")
	assert.Contains(t, out, "  2 - Bread")
}

func TestList_Empty(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, 0, env.run("ls"))
	assert.Contains(t, env.out.String(), "no items")
}

func TestAdd_EmptyNameIsUsageError(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, 2, env.run("add"))
	assert.Equal(t, 2, env.run("add", "  "))
	assert.Contains(t, env.errOut.String(), "usage: shoplist add")
	assert.Empty(t, env.items(t))
}

func TestRemove(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, 0, env.run("add", "Bread"))
	require.Equal(t, 0, env.run("add", "Eggs"))
	bread := env.items(t)[0]

	require.Equal(t, 0, env.run("rm", "1"))
	assert.Equal(t, "ok: removed Bread\n", env.out.String())

	items := env.items(t)
	require.Len(t, items, 1)
	assert.Equal(t, "Eggs", items[0].Name)
	assert.NotEqual(t, bread.ID, items[0].ID)
}

func TestRemove_Errors(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, 2, env.run("rm"))
	assert.Equal(t, 2, env.run("rm", "x"))
	assert.Contains(t, env.errOut.String(), "rm: not a number: x")

	assert.Equal(t, 1, env.run("rm", "7"))
	assert.Contains(t, env.errOut.String(), "no item with id 7")
}

func TestExportImport(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, 0, env.run("add", "Bread"))
	require.Equal(t, 0, env.run("add", "Eggs"))

	backup := filepath.Join(t.TempDir(), "backup.json")
	require.Equal(t, 0, env.run("export", backup))
	assert.Contains(t, env.out.String(), "exported 2 items")

	env.opt.DBPath = filepath.Join(t.TempDir(), "fresh.db")
	require.Equal(t, 0, env.run("import", backup))
	assert.Contains(t, env.out.String(), "imported 2 items")

	var got []string
	for _, it := range env.items(t) {
		got = append(got, it.Name)
	}
	assert.ElementsMatch(t, []string{"Bread", "Eggs"}, got)
}

func TestImport_SkipsEmptyNames(t *testing.T) {
	env := newTestEnv(t)
	backup := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, os.WriteFile(backup, []byte(`[{"id":1,"name":""},{"id":2,"name":"Tea"}]`), 0o644))

	require.Equal(t, 0, env.run("import", backup))

	items := env.items(t)
	require.Len(t, items, 1)
	assert.Equal(t, "Tea", items[0].Name)
}

func TestImport_Malformed(t *testing.T) {
	env := newTestEnv(t)
	backup := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, os.WriteFile(backup, []byte(`nope`), 0o644))

	assert.Equal(t, 1, env.run("import", backup))
}

func TestUnknownSubcommand(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, 2, env.run("frobnicate"))
	assert.Contains(t, env.errOut.String(), "unknown subcommand: frobnicate")
}

func TestNoArgs(t *testing.T) {
	newTestEnv(t)
	assert.Equal(t, 2, Run(nil, Options{}))
}

func TestMissingExplicitConfig(t *testing.T) {
	env := newTestEnv(t)
	env.opt.ConfigPath = filepath.Join(t.TempDir(), "absent.toml")

	assert.Equal(t, 1, env.run("ls"))
	assert.Contains(t, env.errOut.String(), "reading config file")
}

func TestConfigFileSetsDatabase(t *testing.T) {
	env := newTestEnv(t)
	dbPath := filepath.Join(t.TempDir(), "from-config.db")
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[database]\npath = \""+filepath.ToSlash(dbPath)+"\"\n"), 0o600))

	env.opt = Options{ConfigPath: cfgPath}
	require.Equal(t, 0, env.run("add", "Tea"))

	_, err := os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestUnopenableStore(t *testing.T) {
	env := newTestEnv(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	env.opt.DBPath = filepath.Join(blocker, "list.db")

	assert.Equal(t, 1, env.run("add", "Tea"))
	assert.Contains(t, env.errOut.String(), "open store")
}

func TestItemLines_TruncatesByWidth(t *testing.T) {
	newTestEnv(t)
	ui.SetTheme("mono")

	long := strings.Repeat("a", 76) + strings.Repeat("ç", 30)
	lines := itemLines([]model.Item{{ID: 1, Name: long}, {ID: 2, Name: "Crème fraîche"}})
	require.Len(t, lines, 2)

	assert.True(t, utf8.ValidString(lines[0]))
	assert.True(t, strings.HasSuffix(lines[0], "..."))
	name := strings.TrimPrefix(lines[0], "  1 - ")
	assert.Equal(t, maxNameWidth, ansi.StringWidth(name))
	assert.Equal(t, "  2 - Crème fraîche", lines[1])
}

func TestColorFlags(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("SHOPLIST_THEME", "classic")
	prev := color.NoColor
	t.Cleanup(func() { color.NoColor = prev })

	env.opt.ForceColor = true
	require.Equal(t, 0, env.run("add", "Tea"))
	assert.Contains(t, env.out.String(), "\x1b[")

	env.opt.NoColor = true
	require.Equal(t, 0, env.run("add", "Jam"))
	assert.Equal(t, "✔ added\n", env.out.String())
}
