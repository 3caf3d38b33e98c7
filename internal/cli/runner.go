package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/charmbracelet/x/ansi"

	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/store/jsonstore"
	"github.com/idilsaglam/shoplist/internal/tui"
	"github.com/idilsaglam/shoplist/internal/ui"
)

// Options come from root flags.
type Options struct {
	ConfigPath string // explicit config file; empty means the default lookup
	DBPath     string // overrides database.path
	ForceColor bool   // color even when stdout is not a terminal
	NoColor    bool   // never color; wins over ForceColor
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	ui.SetColorForcing(opt.ForceColor, opt.NoColor)

	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0

	case "ls":
		return withApp(opt, doList)

	case "ui":
		return withApp(opt, doInteractive)

	case "add":
		name := strings.TrimSpace(strings.Join(a, " "))
		if name == "" {
			ui.Fail("usage: shoplist add <name...>")
			return 2
		}
		return withApp(opt, func(ctx context.Context, ap *app) int { return doAdd(ctx, ap, name) })

	case "rm":
		if len(a) != 1 {
			ui.Fail("usage: shoplist rm <id>")
			return 2
		}
		id, err := strconv.ParseInt(a[0], 10, 64)
		if err != nil {
			ui.Fail("rm: not a number: " + a[0])
			return 2
		}
		return withApp(opt, func(ctx context.Context, ap *app) int { return doRemove(ctx, ap, id) })

	case "export", "import":
		if len(a) > 1 {
			ui.Fail("usage: shoplist " + cmd + " [file]")
			return 2
		}
		path := ""
		if len(a) == 1 {
			path = a[0]
		} else {
			p, err := jsonstore.DefaultPath()
			if err != nil {
				ui.Fail(cmd + ": " + err.Error())
				return 1
			}
			path = p
		}
		if cmd == "export" {
			return withApp(opt, func(ctx context.Context, ap *app) int { return doExport(ctx, ap, path) })
		}
		return withApp(opt, func(ctx context.Context, ap *app) int { return doImport(ctx, ap, path) })
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(os.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Printf(`shoplist - a tiny shopping list

Usage:
  shoplist [-config file] [-db file] [-color|-no-color] <subcommand> [args]

Subcommands:
  add <name...>      Add an item (name can be multiple words)
  rm <id>            Remove the item with this id
  ls                 List items
  ui                 Interactive list (a add, e edit, d remove, u undo, q quit)
  export [file]      Write the list as JSON (default ./shoplist.json)
  import [file]      Add every item from a JSON export

Examples:
  shoplist add "Oat milk"
  shoplist ls
  shoplist rm 3
  shoplist ui
`)
}

func withApp(opt Options, fn func(context.Context, *app) int) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ap, err := openApp(ctx, opt)
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	defer ap.Close()
	return fn(ctx, ap)
}

// -------------- subcommand impls ----------------

func doList(ctx context.Context, ap *app) int {
	items, err := ap.store.List(ctx)
	if err != nil {
		ui.Fail("load: " + err.Error())
		return 1
	}

	t := ui.Current()
	header := fmt.Sprintf("%s  %s %d",
		ui.C(t.Title, "Shopping list"),
		ui.C(t.Accent, "Items"), len(items),
	)

	lines := []string{header, ""}
	lines = append(lines, itemLines(items)...)
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, "Tip: add with `shoplist add \"Oat milk\"`"))
	ui.Panel(lines)
	return 0
}

func doAdd(ctx context.Context, ap *app, name string) int {
	sink := &failures{}
	med := ap.mediator(sink.add)
	med.AddItem(name)
	if err := med.Close(); err != nil || sink.err() != nil {
		ui.Fail("add: " + errors.Join(err, sink.err()).Error())
		return 1
	}
	ui.OK("added")
	return 0
}

func doRemove(ctx context.Context, ap *app, id int64) int {
	items, err := ap.store.List(ctx)
	if err != nil {
		ui.Fail("load: " + err.Error())
		return 1
	}
	var target *model.Item
	for i := range items {
		if items[i].ID == id {
			target = &items[i]
			break
		}
	}
	if target == nil {
		ui.Fail(fmt.Sprintf("no item with id %d", id))
		ui.Hint("Hint: run `shoplist ls` to see valid ids")
		return 1
	}

	sink := &failures{}
	med := ap.mediator(sink.add)
	med.RemoveItem(*target)
	if err := med.Close(); err != nil || sink.err() != nil {
		ui.Fail("rm: " + errors.Join(err, sink.err()).Error())
		return 1
	}
	ui.OK("removed " + target.Name)
	return 0
}

func doInteractive(ctx context.Context, ap *app) int {
	errs := make(chan error, 16)
	med := ap.mediator(func(err error) {
		select {
		case errs <- err:
		default:
		}
	})
	runErr := tui.Run(ctx, med, errs)
	if err := med.Close(); err != nil {
		ap.logger.Error("mediator shutdown", "err", err)
	}
	if runErr != nil {
		ui.Fail("ui: " + runErr.Error())
		return 1
	}
	return 0
}

func doExport(ctx context.Context, ap *app, path string) int {
	items, err := ap.store.List(ctx)
	if err != nil {
		ui.Fail("load: " + err.Error())
		return 1
	}
	if err := jsonstore.Save(path, items); err != nil {
		ui.Fail("export: " + err.Error())
		return 1
	}
	ui.OK(fmt.Sprintf("exported %d items to %s", len(items), path))
	return 0
}

func doImport(ctx context.Context, ap *app, path string) int {
	items, err := jsonstore.Load(path)
	if err != nil {
		ui.Fail("import: " + err.Error())
		return 1
	}

	sink := &failures{}
	med := ap.mediator(sink.add)
	n := 0
	for _, it := range items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		med.AddItem(name)
		n++
	}
	if err := med.Close(); err != nil || sink.err() != nil {
		ui.Fail("import: " + errors.Join(err, sink.err()).Error())
		return 1
	}
	ui.OK(fmt.Sprintf("imported %d items", n))
	return 0
}

// -------------- helpers --------------

// maxNameWidth caps a name in `ls` output, in terminal cells.
const maxNameWidth = 80

// failures collects mediator errors for one-shot commands.
type failures struct {
	mu   sync.Mutex
	errs []error
}

func (f *failures) add(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, err)
}

func (f *failures) err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return errors.Join(f.errs...)
}

func itemLines(items []model.Item) []string {
	t := ui.Current()
	if len(items) == 0 {
		return []string{ui.C(t.Muted, "no items")}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		name := ansi.Truncate(it.Name, maxNameWidth, "...")
		out = append(out, fmt.Sprintf("%s %s %s",
			ui.C(t.Muted, fmt.Sprintf("%3d", it.ID)), ui.C(t.Accent, t.Bullet), name))
	}
	return out
}
